package eventbus

import (
	"log/slog"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
)

// NewGoChannelEventBus creates an in-process event bus. The dashboard session
// and the mutation path live in one process, so no broker is involved.
func NewGoChannelEventBus(logger *slog.Logger) *WatermillEventBus {
	pubsub := gochannel.NewGoChannel(gochannel.Config{
		OutputChannelBuffer: 64,
	}, watermill.NewSlogLogger(logger))

	return NewWatermillEventBus(pubsub, pubsub)
}
