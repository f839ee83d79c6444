package cmd

import (
	"log/slog"

	"github.com/flowdeck/flowdeck/pkg/eventbus"
)

// NewEventBus creates the in-process event bus shared by the API and the
// dashboard sessions. Mutations and sessions run in one process, so the
// gochannel transport is the only provider.
func NewEventBus(logger *slog.Logger) eventbus.EventBus {
	return eventbus.NewGoChannelEventBus(logger)
}
