package audit

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog"
)

// Subject carries every control-action event.
const Subject = "telestack.actions"

// Event describes one control action taken through the bot. Events are
// fire-and-forget: a publish failure is logged, never surfaced to the
// operator.
type Event struct {
	ID          string    `json:"id"`
	Action      string    `json:"action"`
	ChatID      int64     `json:"chat_id"`
	MachineID   string    `json:"machine_id,omitempty"`
	MachineName string    `json:"machine_name,omitempty"`
	Outcome     string    `json:"outcome"`
	Time        time.Time `json:"time"`
}

// Publisher writes action events to NATS. A nil Publisher is valid and
// publishes nothing, which is how the audit trail is disabled when no
// NATS_URL is configured.
type Publisher struct {
	nc  *nats.Conn
	log zerolog.Logger
}

// Connect dials the NATS endpoint. Reconnects are unbounded so a broker
// restart does not take the audit trail down with it.
func Connect(url string, log zerolog.Logger) (*Publisher, error) {
	opts := []nats.Option{
		nats.Name("telestack"),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2 * time.Second),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			log.Warn().Err(err).Msg("nats disconnected")
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			log.Info().Str("url", nc.ConnectedUrl()).Msg("nats reconnected")
		}),
	}
	nc, err := nats.Connect(url, opts...)
	if err != nil {
		return nil, err
	}
	return &Publisher{nc: nc, log: log}, nil
}

// Record publishes an event, filling in the id and timestamp.
func (p *Publisher) Record(ev Event) {
	if p == nil || p.nc == nil {
		return
	}
	ev.ID = uuid.NewString()
	ev.Time = time.Now().UTC()

	data, err := json.Marshal(ev)
	if err != nil {
		p.log.Error().Err(err).Msg("marshal audit event")
		return
	}
	if err := p.nc.Publish(Subject, data); err != nil {
		p.log.Error().Err(err).Str("action", ev.Action).Msg("publish audit event")
	}
}

// Close drains the underlying connection.
func (p *Publisher) Close() {
	if p == nil || p.nc == nil {
		return
	}
	if err := p.nc.Drain(); err != nil {
		p.nc.Close()
	}
}
