package services

import "context"

// Transactor runs a function inside one storage transaction. The
// postgres plugin provides the real implementation; tests stub it with
// a passthrough.
type Transactor interface {
	WithTx(ctx context.Context, fn func(ctx context.Context) error) error
}
