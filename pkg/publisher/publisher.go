package publisher

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/shouni/go-comic-kit/pkg/domain"
)

// Options はパブリッシュ動作を制御する設定項目です。
type Options struct {
	OutputDir string
}

// PublishResult はパブリッシュ処理の結果として生成されたファイルの情報を保持します。
type PublishResult struct {
	MarkdownPath string   // 生成された comic.md のパス
	PNGPath      string   // ストリップ一覧のスナップショット
	ImagePaths   []string // 保存された全画像のパスリスト
}

const (
	defaultMarkdownName = "comic.md"
	defaultPNGName      = "comic.png"
	defaultImageDirName = "images"
	defaultComicTitle   = "AI Comic Strips"
)

// ComicPublisher は成果物の永続化とフォーマット変換を担います。
type ComicPublisher struct {
	writer   OutputWriter
	snapshot *SnapshotCache
}

// NewComicPublisher は writer とスナップショットのキャッシュを受け取って初期化します。
func NewComicPublisher(writer OutputWriter, snapshot *SnapshotCache) *ComicPublisher {
	return &ComicPublisher{
		writer:   writer,
		snapshot: snapshot,
	}
}

// Publish は画像の保存、Markdownの構築、PNG スナップショットの出力を一括して実行します。
func (p *ComicPublisher) Publish(ctx context.Context, comic *domain.Comic, opts Options) (PublishResult, error) {
	result := PublishResult{}
	assets := NewAssetManager(p.writer, opts.OutputDir)

	// 1. 画像の保存
	imagePaths := make(map[[2]int]string)
	for si, strip := range comic.Strips {
		for pi, panel := range strip.Panels {
			if !panel.HasImage() {
				continue
			}
			mimeType, data, err := domain.DecodeDataURL(panel.ImageURL)
			if err != nil {
				return result, fmt.Errorf("strip %d panel %d の画像を読み取れません: %w", si+1, pi+1, err)
			}
			rel := PanelImagePath(si, pi, mimeType)
			saved, err := assets.Save(ctx, rel, data)
			if err != nil {
				return result, fmt.Errorf("画像の書き込みに失敗しました: %w", err)
			}
			imagePaths[[2]int{si, pi}] = rel
			result.ImagePaths = append(result.ImagePaths, saved)
		}
	}

	// 2. Markdown の構築と書き出し
	content := p.BuildMarkdown(comic, imagePaths)
	mdPath, err := assets.Save(ctx, defaultMarkdownName, []byte(content))
	if err != nil {
		return result, fmt.Errorf("markdownファイルの書き込みに失敗しました: %w", err)
	}
	result.MarkdownPath = mdPath

	// 3. PNG スナップショット
	png, err := p.RenderPNG(comic.Strips)
	if err != nil {
		return result, err
	}
	pngPath, err := assets.Save(ctx, defaultPNGName, png)
	if err != nil {
		return result, fmt.Errorf("PNGの書き込みに失敗しました: %w", err)
	}
	result.PNGPath = pngPath

	slog.InfoContext(ctx, "Published comic",
		"markdown", result.MarkdownPath,
		"png", result.PNGPath,
		"images", len(result.ImagePaths))
	return result, nil
}

// RenderPNG はキャッシュを経由してスナップショットを返します。
func (p *ComicPublisher) RenderPNG(strips domain.Strips) ([]byte, error) {
	if p.snapshot == nil {
		return nil, fmt.Errorf("スナップショットのレンダラーが設定されていません")
	}
	return p.snapshot.Render(strips)
}

// BuildMarkdown は台本を Markdown 文字列にします。
// imagePaths に該当するパネルはそのパスを、それ以外は data URL をそのまま参照します。
func (p *ComicPublisher) BuildMarkdown(comic *domain.Comic, imagePaths map[[2]int]string) string {
	title := comic.Title
	if title == "" {
		title = defaultComicTitle
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("# %s\n\n", title))

	for si, strip := range comic.Strips {
		sb.WriteString(fmt.Sprintf("## %s\n\n", strip.Title))
		for pi, panel := range strip.Panels {
			sb.WriteString(fmt.Sprintf("### Panel %d\n\n", pi+1))

			img := imagePaths[[2]int{si, pi}]
			if img == "" {
				img = panel.ImageURL
			}
			if img != "" {
				sb.WriteString(fmt.Sprintf("![%s](%s)\n\n", altText(panel), img))
			}

			if panel.Dialogue != nil {
				if panel.Dialogue.Left != "" {
					sb.WriteString(fmt.Sprintf("- left: %s\n", panel.Dialogue.Left))
				}
				if panel.Dialogue.Right != "" {
					sb.WriteString(fmt.Sprintf("- right: %s\n", panel.Dialogue.Right))
				}
			} else if panel.Caption != "" {
				sb.WriteString(fmt.Sprintf("> %s\n", panel.Caption))
			}
			sb.WriteString(fmt.Sprintf("- prompt: %s\n\n", panel.ImagePrompt))
		}
	}
	return sb.String()
}

func altText(panel domain.Panel) string {
	alt := panel.Caption
	if alt == "" {
		alt = panel.ImagePrompt
	}
	return strings.NewReplacer("[", "(", "]", ")", "\n", " ").Replace(alt)
}
