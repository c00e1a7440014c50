package publisher

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
)

// OutputWriter はデータを外部ストレージに保存するためのインターフェースです。
type OutputWriter interface {
	Write(ctx context.Context, path string, data []byte) error
}

// LocalWriter はローカルファイルシステムに書き込む OutputWriter です。
type LocalWriter struct{}

// Write は親ディレクトリを作成してからファイルを書き込みます。
func (LocalWriter) Write(ctx context.Context, path string, data []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("ディレクトリの作成に失敗しました: %w", err)
	}
	return os.WriteFile(path, data, 0o644)
}

// AssetManager は生成物の保存パスと永続化を管理します。
type AssetManager struct {
	writer  OutputWriter
	baseDir string // 保存先のベースディレクトリ (例: "output")
}

func NewAssetManager(writer OutputWriter, baseDir string) *AssetManager {
	return &AssetManager{
		writer:  writer,
		baseDir: baseDir,
	}
}

// Save はデータを baseDir 配下に保存し、その保存先のパスを返します。
func (am *AssetManager) Save(ctx context.Context, relPath string, data []byte) (string, error) {
	fullPath := ResolveOutputPath(am.baseDir, relPath)
	if err := am.writer.Write(ctx, fullPath, data); err != nil {
		return "", fmt.Errorf("asset_manager: %s の保存に失敗しました: %w", relPath, err)
	}
	return fullPath, nil
}
