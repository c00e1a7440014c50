package generator

import (
	"context"
	"time"

	"github.com/cenkalti/backoff/v4"
)

// RetryPolicy はパネル1枚あたりの再試行方針です。
type RetryPolicy struct {
	MaxAttempts int           // 初回を含む最大試行回数
	BaseDelay   time.Duration // 最初の再試行前の待ち時間。以降は倍々になる
}

// backOff は揺らぎなしの指数バックオフを試行回数で打ち切ったものを返します。
// BaseDelay=2s, MaxAttempts=3 の場合、待ち時間は 2s, 4s です。
func (p RetryPolicy) backOff(ctx context.Context) backoff.BackOff {
	exp := backoff.NewExponentialBackOff()
	exp.InitialInterval = p.BaseDelay
	exp.RandomizationFactor = 0
	exp.Multiplier = 2
	exp.MaxInterval = p.BaseDelay << 4
	exp.MaxElapsedTime = 0
	exp.Reset()

	retries := 0
	if p.MaxAttempts > 1 {
		retries = p.MaxAttempts - 1
	}
	return backoff.WithMaxRetries(backoff.WithContext(exp, ctx), uint64(retries))
}

// sleepContext は d だけ待ちます。途中でコンテキストが終了した場合はそのエラーを返します。
func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
