package notifications

import (
	"MedOffice/models"
	"context"
	"fmt"

	"go.uber.org/zap"
)

// Sender delivers one message to one destination.
type Sender interface {
	Send(ctx context.Context, destination, message string) error
}

// Router picks the sender registered for the alert's channel.
type Router struct {
	senders map[models.DeliveryChannel]Sender
	log     *zap.Logger
}

func NewRouter(log *zap.Logger) *Router {
	return &Router{senders: make(map[models.DeliveryChannel]Sender), log: log}
}

// Register adds or replaces the sender of a channel.
func (r *Router) Register(channel models.DeliveryChannel, sender Sender) *Router {
	r.senders[channel] = sender
	return r
}

func (r *Router) Send(ctx context.Context, channel models.DeliveryChannel, destination, message string) error {
	sender, ok := r.senders[channel]
	if !ok {
		return fmt.Errorf("no sender configured for channel %s", channel)
	}
	if err := sender.Send(ctx, destination, message); err != nil {
		r.log.Warn("notification failed",
			zap.String("channel", string(channel)),
			zap.String("destination", destination),
			zap.Error(err),
		)
		return err
	}
	r.log.Debug("notification sent", zap.String("channel", string(channel)), zap.String("destination", destination))
	return nil
}
