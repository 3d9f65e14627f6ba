package application

import "context"

// Worker is a long-running background loop (scheduler, manual refresh queue).
// Implementations must run until the context is canceled.
type Worker interface {
	Start(ctx context.Context)
}
