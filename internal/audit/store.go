package audit

import "context"

// Store is an append-only sink for audit events. Implementations: in-memory
// (default), Kafka (production trail).
type Store interface {
	Append(ctx context.Context, event Event) error
}
