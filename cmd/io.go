package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/shouni/go-comic-kit/pkg/domain"
	"github.com/shouni/go-comic-kit/pkg/publisher"
	"github.com/shouni/go-comic-kit/pkg/workflow"
)

// newManager は読み込み済みの設定からワークフローの Manager を作るのだ。
func newManager(ctx context.Context) (*workflow.Manager, error) {
	lib, err := appCfg.ToLibraryConfig()
	if err != nil {
		return nil, fmt.Errorf("設定が不正なのだ: %w", err)
	}
	return workflow.New(ctx, workflow.ManagerArgs{
		Config:   lib,
		Writer:   publisher.LocalWriter{},
		FontFile: appCfg.FontFile,
	})
}

// readPassages はファイルごとに1つのパッセージを作るのだ。
// ファイルの指定がなければ標準入力を1つのパッセージとして読むのだよ。
func readPassages(files []string) (domain.Passages, error) {
	if len(files) == 0 {
		if !isStdin() {
			return nil, fmt.Errorf("入力ファイル（--file）を指定するか、標準入力から渡してほしいのだ")
		}
		data, err := io.ReadAll(os.Stdin)
		if err != nil {
			return nil, fmt.Errorf("標準入力の読み込みに失敗したのだ: %w", err)
		}
		p := domain.NewPassage("Passage 1")
		p.Text = string(data)
		return domain.Passages{p}, nil
	}

	passages := make(domain.Passages, 0, len(files))
	for _, f := range files {
		data, err := os.ReadFile(f)
		if err != nil {
			return nil, fmt.Errorf("%s の読み込みに失敗したのだ: %w", f, err)
		}
		p := domain.NewPassage(strings.TrimSuffix(filepath.Base(f), filepath.Ext(f)))
		p.Text = string(data)
		passages = append(passages, p)
	}
	return passages, nil
}

// readComic は台本 JSON を読み込むのだ。
func readComic(path string) (*domain.Comic, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("台本ファイルの読み込みに失敗したのだ: %w", err)
	}
	var comic domain.Comic
	if err := json.Unmarshal(data, &comic); err != nil {
		return nil, fmt.Errorf("台本ファイルの解析に失敗したのだ: %w", err)
	}
	if len(comic.Strips) == 0 {
		return nil, fmt.Errorf("%s にストリップがないのだ", path)
	}
	return &comic, nil
}

// writeComic は台本 JSON を保存するのだ。画像の途中経過もここで保存されるのだよ。
func writeComic(ctx context.Context, path string, comic *domain.Comic) error {
	data, err := json.MarshalIndent(comic, "", "  ")
	if err != nil {
		return fmt.Errorf("台本の JSON 変換に失敗したのだ: %w", err)
	}
	return publisher.LocalWriter{}.Write(ctx, path, data)
}

func isStdin() bool {
	stat, err := os.Stdin.Stat()
	if err != nil {
		return false
	}
	return (stat.Mode() & os.ModeCharDevice) == 0
}

// resolveStyle は台本に保存されたスタイルと設定のどちらを使うか決めるのだ。
// --style、COMIC_STYLE、設定ファイルで既定以外が指定されていればそちらが優先なのだよ。
func resolveStyle(flagSet bool, saved, configured string) string {
	if flagSet || saved == "" || configured != domain.DefaultStyleKey {
		return configured
	}
	return saved
}
