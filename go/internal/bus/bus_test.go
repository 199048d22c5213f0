package bus

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/mcdev12/doors/go/internal/events"
	"github.com/nats-io/nats.go/jetstream"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func TestSubject(t *testing.T) {
	if got := Subject("doors.events", events.TypeDoorOpened); got != "doors.events.DoorOpened" {
		t.Fatalf("Subject = %q", got)
	}
}

func TestStreamConfig(t *testing.T) {
	cfg := DefaultJetStreamConfig()
	sc := streamConfig(cfg)

	if sc.Name != "DOORS_EVENTS" {
		t.Fatalf("stream name = %q", sc.Name)
	}
	if len(sc.Subjects) != 1 || sc.Subjects[0] != "doors.events.>" {
		t.Fatalf("subjects = %v", sc.Subjects)
	}
	if sc.Retention != jetstream.LimitsPolicy || sc.Storage != jetstream.FileStorage {
		t.Fatalf("retention/storage = %v/%v", sc.Retention, sc.Storage)
	}
	if sc.MaxAge != 24*time.Hour || sc.Duplicates != 2*time.Minute || sc.Replicas != 1 {
		t.Fatalf("limits = %+v", sc)
	}
}

func TestLogPublisher(t *testing.T) {
	var buf bytes.Buffer
	previous := log.Logger
	log.Logger = zerolog.New(&buf).Level(zerolog.DebugLevel)
	t.Cleanup(func() { log.Logger = previous })

	p := NewLogPublisher("doors.events")
	env, err := events.NewEnvelope(events.TypeWinBanked, uuid.New(), uuid.New(), time.Now(), events.WinBankedPayload{Reward: 50, Wins: 150})
	if err != nil {
		t.Fatalf("NewEnvelope: %v", err)
	}
	if err := p.Publish(context.Background(), env); err != nil {
		t.Fatalf("Publish: %v", err)
	}
	if err := p.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	var line struct {
		Component string                  `json:"component"`
		Subject   string                  `json:"subject"`
		EventID   string                  `json:"event_id"`
		Payload   events.WinBankedPayload `json:"payload"`
	}
	if err := json.Unmarshal(buf.Bytes(), &line); err != nil {
		t.Fatalf("decode log line %q: %v", buf.String(), err)
	}
	if line.Component != "bus" || line.Subject != "doors.events.WinBanked" || line.EventID != env.EventID.String() {
		t.Fatalf("log line = %+v", line)
	}
	if line.Payload.Wins != 150 {
		t.Fatalf("payload = %+v", line.Payload)
	}
}
