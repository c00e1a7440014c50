package publisher

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	_ "image/jpeg"
	_ "image/png"
	"log/slog"
	"os"

	"github.com/shouni/go-comic-kit/pkg/domain"

	"github.com/fogleman/gg"
	"github.com/golang/freetype/truetype"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/gofont/goregular"
)

// レイアウトは論理ピクセルで定義し、出力時に Scale 倍します。
const (
	DefaultSnapshotScale = 2.0
	cellSize             = 256.0
	gutter               = 16.0
	titleHeight          = 40.0
	textHeight           = 64.0
	titleFontSize        = 20.0
	textFontSize         = 13.0
)

var (
	backgroundColor  = color.RGBA{R: 0x0f, G: 0x17, B: 0x2a, A: 0xff} // slate-900
	placeholderColor = color.RGBA{R: 0x1e, G: 0x29, B: 0x3b, A: 0xff} // slate-800
	borderColor      = color.RGBA{R: 0x33, G: 0x41, B: 0x55, A: 0xff} // slate-700
	textColor        = color.RGBA{R: 0xe2, G: 0xe8, B: 0xf0, A: 0xff} // slate-200
	titleColor       = color.White
)

// SnapshotRenderer はストリップ一覧を1枚の PNG に描画します。
type SnapshotRenderer struct {
	scale     float64
	titleFont *truetype.Font
	textFont  *truetype.Font
}

// RendererOption は SnapshotRenderer の設定を変更します。
type RendererOption func(*SnapshotRenderer) error

// WithScale は出力倍率を指定します。
func WithScale(scale float64) RendererOption {
	return func(r *SnapshotRenderer) error {
		if scale <= 0 {
			return fmt.Errorf("倍率は正の値である必要があります: %v", scale)
		}
		r.scale = scale
		return nil
	}
}

// WithFontFile は本文用のフォントを TTF ファイルから読み込みます。
// Go フォントに含まれない文字（日本語や韓国語など）を描画する場合に指定します。
func WithFontFile(path string) RendererOption {
	return func(r *SnapshotRenderer) error {
		if path == "" {
			return nil
		}
		data, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("フォントファイルの読み込みに失敗しました: %w", err)
		}
		f, err := truetype.Parse(data)
		if err != nil {
			return fmt.Errorf("フォントの解析に失敗しました: %w", err)
		}
		r.titleFont = f
		r.textFont = f
		return nil
	}
}

// NewSnapshotRenderer は Go フォントを既定として SnapshotRenderer を初期化します。
func NewSnapshotRenderer(opts ...RendererOption) (*SnapshotRenderer, error) {
	titleFont, err := truetype.Parse(gobold.TTF)
	if err != nil {
		return nil, fmt.Errorf("failed to parse font: %w", err)
	}
	textFont, err := truetype.Parse(goregular.TTF)
	if err != nil {
		return nil, fmt.Errorf("failed to parse font: %w", err)
	}

	r := &SnapshotRenderer{
		scale:     DefaultSnapshotScale,
		titleFont: titleFont,
		textFont:  textFont,
	}
	for _, opt := range opts {
		if err := opt(r); err != nil {
			return nil, err
		}
	}
	return r, nil
}

// Size はストリップ一覧を描画した場合の画像サイズを返します。
func (r *SnapshotRenderer) Size(strips domain.Strips) (int, int) {
	maxPanels := 1
	for _, s := range strips {
		if len(s.Panels) > maxPanels {
			maxPanels = len(s.Panels)
		}
	}
	rows := len(strips)
	if rows == 0 {
		rows = 1
	}
	w := gutter + float64(maxPanels)*(cellSize+gutter)
	h := gutter + float64(rows)*(titleHeight+cellSize+textHeight+gutter)
	return int(w * r.scale), int(h * r.scale)
}

// Render は PNG のバイト列を返します。
func (r *SnapshotRenderer) Render(strips domain.Strips) ([]byte, error) {
	if len(strips) == 0 {
		return nil, fmt.Errorf("nothing to export")
	}

	w, h := r.Size(strips)
	dc := gg.NewContext(w, h)
	dc.SetColor(backgroundColor)
	dc.Clear()
	dc.Scale(r.scale, r.scale)

	titleFace := r.face(r.titleFont, titleFontSize)
	textFace := r.face(r.textFont, textFontSize)

	y := gutter
	for si, strip := range strips {
		dc.SetFontFace(titleFace)
		dc.SetColor(titleColor)
		dc.DrawStringAnchored(domain.StripTitle([]string{strip.Title}, si), gutter, y+titleHeight/2, 0, 0.5)
		y += titleHeight

		dc.SetFontFace(textFace)
		for pi, panel := range strip.Panels {
			x := gutter + float64(pi)*(cellSize+gutter)
			r.drawPanel(dc, panel, x, y, si, pi)
		}
		y += cellSize + textHeight + gutter
	}

	var buf bytes.Buffer
	if err := dc.EncodePNG(&buf); err != nil {
		return nil, fmt.Errorf("PNG のエンコードに失敗しました: %w", err)
	}
	return buf.Bytes(), nil
}

func (r *SnapshotRenderer) face(f *truetype.Font, size float64) font.Face {
	return truetype.NewFace(f, &truetype.Options{
		Size:    size,
		DPI:     72,
		Hinting: font.HintingFull,
	})
}

func (r *SnapshotRenderer) drawPanel(dc *gg.Context, panel domain.Panel, x, y float64, si, pi int) {
	dc.SetColor(placeholderColor)
	dc.DrawRectangle(x, y, cellSize, cellSize)
	dc.Fill()

	if panel.HasImage() {
		if img, err := decodePanelImage(panel.ImageURL); err != nil {
			slog.Warn("パネル画像をデコードできませんでした", "strip", si+1, "panel", pi+1, "error", err)
		} else {
			b := img.Bounds()
			dc.Push()
			dc.Translate(x, y)
			dc.Scale(cellSize/float64(b.Dx()), cellSize/float64(b.Dy()))
			dc.DrawImage(img, -b.Min.X, -b.Min.Y)
			dc.Pop()
		}
	}

	dc.SetLineWidth(1.0)
	dc.SetColor(borderColor)
	dc.DrawRectangle(x, y, cellSize, cellSize)
	dc.Stroke()

	dc.SetColor(textColor)
	textY := y + cellSize + 8
	if panel.Dialogue != nil {
		half := cellSize/2 - 4
		dc.DrawStringWrapped(panel.Dialogue.Left, x, textY, 0, 0, half, 1.3, gg.AlignLeft)
		dc.DrawStringWrapped(panel.Dialogue.Right, x+cellSize/2+4, textY, 0, 0, half, 1.3, gg.AlignRight)
		return
	}
	dc.DrawStringWrapped(panel.Caption, x, textY, 0, 0, cellSize, 1.3, gg.AlignCenter)
}

func decodePanelImage(dataURL string) (image.Image, error) {
	_, data, err := domain.DecodeDataURL(dataURL)
	if err != nil {
		return nil, err
	}
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("画像のデコードに失敗しました: %w", err)
	}
	return img, nil
}
