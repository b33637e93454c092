package manager

import "github.com/rs/zerolog"

// LogPublisher writes events to a zerolog logger. Failures go out at warn,
// everything else at debug.
type LogPublisher struct {
	log zerolog.Logger
}

func NewLogPublisher(l zerolog.Logger) *LogPublisher { return &LogPublisher{log: l} }

func (p *LogPublisher) Publish(e Event) {
	ev := p.log.Debug()
	switch e.Name {
	case EventConstructFail, EventCacheStoreFail, EventBackpressure:
		ev = p.log.Warn()
	}
	ev = ev.Str("event", e.Name)
	if e.Key != "" {
		ev = ev.Str("key", e.Key)
	}
	ev.Fields(e.Fields).Msg("manager event")
}
