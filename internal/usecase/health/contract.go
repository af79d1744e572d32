package health

import "context"

// DBPinger checks document store connectivity.
type DBPinger interface {
	Ping(ctx context.Context) error
}
