package manager

// Event represents a manager lifecycle event: a name, the configuration key
// it concerns and optional fields.
type Event struct {
	Name   string
	Key    string
	Fields map[string]any
}

// Event names.
const (
	EventConstructStart = "instance_construct_start"
	EventConstructReady = "instance_construct_ready"
	EventConstructFail  = "instance_construct_fail"
	EventCacheStoreFail = "cache_store_fail"
	EventComputeDone    = "compute_done"
	EventBackpressure   = "backpressure"
	EventClosed         = "manager_closed"
)

// EventPublisher receives events from the manager. Implementations should be
// lightweight and non-blocking; Publish must not panic.
type EventPublisher interface {
	Publish(Event)
}

// noopPublisher is the default; it drops events.
type noopPublisher struct{}

func (noopPublisher) Publish(Event) {}

// MultiPublisher fans an event out to every publisher in order.
type MultiPublisher []EventPublisher

func (mp MultiPublisher) Publish(e Event) {
	for _, p := range mp {
		p.Publish(e)
	}
}
