package providers

import (
	"context"
	"time"
)

// shutdownTimeout bounds each graceful stop. Event streams still open when it
// expires are cut.
const shutdownTimeout = 30 * time.Second

func shutdownContext() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), shutdownTimeout)
}
