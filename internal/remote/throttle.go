package remote

import (
	"context"
	"io"

	"golang.org/x/time/rate"
)

// throttleChunk 单次 Read 的上限，同时作为令牌桶容量
const throttleChunk = 32 * 1024

type throttledReader struct {
	ctx     context.Context
	r       io.Reader
	limiter *rate.Limiter
}

// NewThrottledReader 按 bytesPerSec 限速读取。bytesPerSec <= 0 时原样返回 r。
// ctx 取消后下一次 Read 返回 ctx.Err()。
func NewThrottledReader(ctx context.Context, r io.Reader, bytesPerSec int64) io.Reader {
	if bytesPerSec <= 0 {
		return r
	}
	burst := throttleChunk
	if bytesPerSec < int64(burst) {
		burst = int(bytesPerSec)
	}
	return &throttledReader{
		ctx:     ctx,
		r:       r,
		limiter: rate.NewLimiter(rate.Limit(bytesPerSec), burst),
	}
}

func (t *throttledReader) Read(p []byte) (int, error) {
	if len(p) > t.limiter.Burst() {
		p = p[:t.limiter.Burst()]
	}
	n, err := t.r.Read(p)
	if n > 0 {
		if werr := t.limiter.WaitN(t.ctx, n); werr != nil {
			return n, werr
		}
	}
	return n, err
}
