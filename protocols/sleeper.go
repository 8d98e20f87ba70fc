package protocols

import (
	"context"
	"time"
)

type Sleeper interface {
	// Sleep waits for duration or until ctx is done, returning ctx.Err() in the latter case.
	Sleep(ctx context.Context, duration time.Duration) error
}
