package servicemanager

import "context"

// Service is the lifecycle contract every component the ServiceManager
// orchestrates must satisfy: Init runs synchronously inside AddService,
// before that service's Start goroutine is launched, Start runs for the
// component's lifetime (closing
// readyCh once it's serving), Stop tears it down within the deadline on
// ctx, and Health reports its current status for the aggregate handler.
type Service interface {
	Init(ctx context.Context) error
	Start(ctx context.Context, readyCh chan struct{}) error
	Stop(ctx context.Context) error
	Health(ctx context.Context, checkLiveness bool) (int, string, error)
}
