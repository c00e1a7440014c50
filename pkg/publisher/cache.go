package publisher

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"time"

	"github.com/shouni/go-comic-kit/pkg/domain"

	"github.com/patrickmn/go-cache"
)

const (
	DefaultSnapshotTTL     = 5 * time.Minute
	defaultCleanupInterval = 15 * time.Minute
)

// SnapshotCache は同じ内容のストリップに対する PNG を再描画せずに返します。
type SnapshotCache struct {
	renderer *SnapshotRenderer
	cache    *cache.Cache
}

// NewSnapshotCache は ttl の間だけ描画結果を保持するキャッシュを作成します。
func NewSnapshotCache(renderer *SnapshotRenderer, ttl time.Duration) *SnapshotCache {
	return &SnapshotCache{
		renderer: renderer,
		cache:    cache.New(ttl, defaultCleanupInterval),
	}
}

// Render はキャッシュにあればそれを返し、なければ描画して保存します。
func (c *SnapshotCache) Render(strips domain.Strips) ([]byte, error) {
	key, err := snapshotKey(strips)
	if err != nil {
		return nil, err
	}
	if cached, ok := c.cache.Get(key); ok {
		if png, ok := cached.([]byte); ok {
			return png, nil
		}
	}

	png, err := c.renderer.Render(strips)
	if err != nil {
		return nil, err
	}
	c.cache.SetDefault(key, png)
	return png, nil
}

// Len はキャッシュされている件数を返します。
func (c *SnapshotCache) Len() int {
	return c.cache.ItemCount()
}

func snapshotKey(strips domain.Strips) (string, error) {
	data, err := json.Marshal(strips)
	if err != nil {
		return "", fmt.Errorf("スナップショットのキー生成に失敗しました: %w", err)
	}
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:]), nil
}
