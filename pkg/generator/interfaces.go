package generator

import (
	"context"

	"github.com/shouni/go-comic-kit/pkg/domain"
)

// PanelsImageGenerator は、ストリップ群の未生成パネルを順番に生成するためのインターフェースを定義します。
type PanelsImageGenerator interface {
	GenerateAll(ctx context.Context, strips domain.Strips, opts Options, sink EventSink) (Result, error)
}

// PanelImageGenerator は、指定された1パネルを既存画像の有無にかかわらず生成し直します。
type PanelImageGenerator interface {
	GenerateOne(ctx context.Context, strips domain.Strips, strip, panel int, opts Options, sink EventSink) error
}
