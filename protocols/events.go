package protocols

import "context"

type EventPublisher interface {
	Publish(ctx context.Context, receipt Receipt) error
}
