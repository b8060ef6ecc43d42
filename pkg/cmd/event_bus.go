package cmd

import (
	"log/slog"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/dnoice/autoflow/pkg/channels/gochannel"
	"github.com/dnoice/autoflow/pkg/eventbus"
)

// NewEventBus creates the in-process execution event bus.
func NewEventBus(logger *slog.Logger) eventbus.EventBus {
	pub, sub := gochannel.CreateChannel(watermill.NewSlogLogger(logger))

	return eventbus.NewWatermillEventBus(pub, sub)
}

// NewBlockingEventBus creates an event bus whose publish blocks until every
// subscriber has acknowledged the event. Used where delivery order must match
// publish order, such as the verbose run reporter.
func NewBlockingEventBus(logger *slog.Logger) eventbus.EventBus {
	pub, sub := gochannel.CreateTestChannel(watermill.NewSlogLogger(logger))

	return eventbus.NewWatermillEventBus(pub, sub)
}

// NewTestEventBus is the blocking bus under its test-suite name, kept so
// tests read as tests.
func NewTestEventBus(logger *slog.Logger) eventbus.EventBus {
	return NewBlockingEventBus(logger)
}
