package events

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/nats-io/nats.go"

	gderrors "git.home.luguber.info/inful/gendocs/internal/errors"
	"git.home.luguber.info/inful/gendocs/internal/logfields"
	"git.home.luguber.info/inful/gendocs/internal/retry"
)

// Publisher delivers generation events.
type Publisher interface {
	Publish(ctx context.Context, event *GeneratedEvent) error
	Close() error
}

// NoopPublisher discards events (default when no NATS URL is configured).
type NoopPublisher struct{}

func (NoopPublisher) Publish(context.Context, *GeneratedEvent) error { return nil }
func (NoopPublisher) Close() error                                   { return nil }

// conn is the subset of *nats.Conn used for publishing.
type conn interface {
	Publish(subject string, data []byte) error
	FlushTimeout(timeout time.Duration) error
	Close()
}

const flushTimeout = 5 * time.Second

// NATSPublisher publishes JSON events on a core NATS subject.
type NATSPublisher struct {
	conn    conn
	subject string
	policy  retry.Policy
	logger  *slog.Logger
}

// NewNATSPublisher connects to url and returns a publisher for subject.
func NewNATSPublisher(url, subject string, policy retry.Policy, logger *slog.Logger) (*NATSPublisher, error) {
	if subject == "" {
		return nil, errors.New("events subject is required")
	}
	nc, err := nats.Connect(url,
		nats.Name("gendocs"),
		nats.Timeout(flushTimeout),
	)
	if err != nil {
		return nil, gderrors.Wrap(err, gderrors.CategoryEvents, gderrors.SeverityWarning, "failed to connect to NATS").
			WithContext("url", url)
	}
	if logger == nil {
		logger = slog.Default()
	}
	logger.Info("NATS publisher connected", "url", nc.ConnectedUrlRedacted(), logfields.Subject(subject))
	return newNATSPublisher(nc, subject, policy, logger), nil
}

func newNATSPublisher(c conn, subject string, policy retry.Policy, logger *slog.Logger) *NATSPublisher {
	if logger == nil {
		logger = slog.Default()
	}
	return &NATSPublisher{conn: c, subject: subject, policy: policy, logger: logger}
}

// Publish sends the event, retrying transient failures with the configured policy.
func (p *NATSPublisher) Publish(ctx context.Context, event *GeneratedEvent) error {
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now().UTC()
	}
	data, err := json.Marshal(event)
	if err != nil {
		return gderrors.InternalError("failed to marshal event", err)
	}

	err = p.policy.Do(ctx, retryablePublishError, func(attempt int) error {
		if attempt > 0 {
			p.logger.Debug("Retrying event publish", logfields.Subject(p.subject), logfields.Attempt(attempt))
		}
		if err := p.conn.Publish(p.subject, data); err != nil {
			return err
		}
		return p.conn.FlushTimeout(flushTimeout)
	})
	if err != nil {
		return gderrors.PublishFailed(p.subject, err)
	}

	p.logger.Debug("Published generation event",
		logfields.Subject(p.subject),
		logfields.RunID(event.RunID),
		logfields.Count(len(event.Documents)))
	return nil
}

// Close closes the NATS connection.
func (p *NATSPublisher) Close() error {
	p.conn.Close()
	return nil
}

func retryablePublishError(err error) bool {
	switch {
	case errors.Is(err, nats.ErrBadSubject), errors.Is(err, nats.ErrMaxPayload):
		return false
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return false
	default:
		return true
	}
}

