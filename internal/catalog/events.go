package catalog

import (
	EventBus "github.com/asaskevich/EventBus"
)

// TopicChanged is published once after a batch changes the catalog, so
// observers refresh a single consistent after-image.
const TopicChanged = "catalog:changed"

// ChangeEvent is the payload published on TopicChanged.
type ChangeEvent struct {
	Source   string
	Inserted int
	Updated  int
	Deleted  int
}

// NewBus returns the in-process bus used for catalog notifications.
func NewBus() EventBus.Bus {
	return EventBus.New()
}

// Publish is a nil-safe helper for optional buses.
func Publish(bus EventBus.Bus, ev ChangeEvent) {
	if bus == nil {
		return
	}
	bus.Publish(TopicChanged, ev)
}
