package event

import "github.com/dshills/rewind"

// Notifier bridges a Manager's lifecycle notifications onto a Bus: the
// notification name becomes the topic and the notification itself the
// payload. Pass it to the Manager via rewind.WithNotifier.
type Notifier struct {
	bus *Bus
}

// NewNotifier creates a bridge publishing to bus.
func NewNotifier(bus *Bus) *Notifier {
	return &Notifier{bus: bus}
}

// Notify publishes the notification.
func (n *Notifier) Notify(note rewind.Notification) {
	n.bus.Publish(Event{Topic: Topic(note.Name), Payload: note})
}
