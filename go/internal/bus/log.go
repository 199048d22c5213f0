package bus

import (
	"context"

	"github.com/mcdev12/doors/go/internal/events"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// LogPublisher writes events to the log instead of a broker. It is used when
// no NATS URL is configured.
type LogPublisher struct {
	logger zerolog.Logger
	prefix string
}

func NewLogPublisher(prefix string) *LogPublisher {
	return &LogPublisher{
		logger: log.With().Str("component", "bus").Logger(),
		prefix: prefix,
	}
}

func (p *LogPublisher) Publish(ctx context.Context, env events.Envelope) error {
	p.logger.Debug().
		Str("subject", Subject(p.prefix, env.EventType)).
		Str("event_id", env.EventID.String()).
		Str("event_type", env.EventType).
		Str("game_id", env.GameID.String()).
		Str("session_id", env.SessionID.String()).
		RawJSON("payload", env.Payload).
		Msg("event")
	return nil
}

func (p *LogPublisher) Close() error { return nil }
