package publisher

import (
	"fmt"
	"path"
	"path/filepath"

	"github.com/shouni/go-comic-kit/pkg/domain"
)

// ResolveOutputPath は、ベースとなるディレクトリパスと相対パスから最終的な出力パスを生成します。
func ResolveOutputPath(baseDir, relPath string) string {
	return filepath.Join(baseDir, filepath.FromSlash(relPath))
}

// PanelImagePath は Markdown から参照する、パネル画像の相対パスを返します。
func PanelImagePath(strip, panel int, mimeType string) string {
	name := fmt.Sprintf("strip_%d_panel_%d%s", strip+1, panel+1, domain.ExtensionForMime(mimeType))
	return path.Join(defaultImageDirName, name)
}
