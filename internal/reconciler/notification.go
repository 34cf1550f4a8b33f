package reconciler

import "github.com/sonusmix/sonusmix/internal/desired"

// Notification is the single high-level change signal an update may
// produce, at most one per intent (spec.md §8 universal properties).
type Notification struct {
	Descriptor desired.EndpointDescriptor
	Added      bool // false means EndpointRemoved
}

func endpointAdded(d desired.EndpointDescriptor) *Notification {
	return &Notification{Descriptor: d, Added: true}
}

func endpointRemoved(d desired.EndpointDescriptor) *Notification {
	return &Notification{Descriptor: d, Added: false}
}
