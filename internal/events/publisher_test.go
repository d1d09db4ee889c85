package events

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/gendocs/internal/config"
	gderrors "git.home.luguber.info/inful/gendocs/internal/errors"
	"git.home.luguber.info/inful/gendocs/internal/retry"
)

type fakeConn struct {
	failures  []error
	published [][]byte
	subjects  []string
	closed    bool
}

func (f *fakeConn) Publish(subject string, data []byte) error {
	if len(f.failures) > 0 {
		err := f.failures[0]
		f.failures = f.failures[1:]
		return err
	}
	f.subjects = append(f.subjects, subject)
	f.published = append(f.published, data)
	return nil
}

func (f *fakeConn) FlushTimeout(time.Duration) error { return nil }
func (f *fakeConn) Close()                           { f.closed = true }

func fastPolicy(retries int) retry.Policy {
	return retry.NewPolicy(config.RetryBackoffFixed, time.Millisecond, time.Millisecond, retries)
}

func TestNATSPublisher_PublishesJSON(t *testing.T) {
	fc := &fakeConn{}
	p := newNATSPublisher(fc, "gendocs.generated", fastPolicy(0), nil)

	ev := &GeneratedEvent{
		RunID:     "run-1",
		Project:   "widget",
		Outcome:   "success",
		Documents: []DocumentEvent{{Kind: "readme", Path: "README.md", Status: "created"}},
	}
	require.NoError(t, p.Publish(t.Context(), ev))

	require.Len(t, fc.published, 1)
	assert.Equal(t, "gendocs.generated", fc.subjects[0])

	var decoded GeneratedEvent
	require.NoError(t, json.Unmarshal(fc.published[0], &decoded))
	assert.Equal(t, "run-1", decoded.RunID)
	assert.Equal(t, "README.md", decoded.Documents[0].Path)
	assert.False(t, decoded.Timestamp.IsZero())

	require.NoError(t, p.Close())
	assert.True(t, fc.closed)
}

func TestNATSPublisher_RetriesTransientFailures(t *testing.T) {
	fc := &fakeConn{failures: []error{nats.ErrConnectionReconnecting, nats.ErrTimeout}}
	p := newNATSPublisher(fc, "s", fastPolicy(3), nil)

	require.NoError(t, p.Publish(t.Context(), &GeneratedEvent{RunID: "r"}))
	assert.Len(t, fc.published, 1)
}

func TestNATSPublisher_GivesUp(t *testing.T) {
	fc := &fakeConn{failures: []error{nats.ErrTimeout, nats.ErrTimeout, nats.ErrTimeout}}
	p := newNATSPublisher(fc, "s", fastPolicy(1), nil)

	err := p.Publish(t.Context(), &GeneratedEvent{RunID: "r"})
	require.Error(t, err)
	assert.True(t, gderrors.IsCategory(err, gderrors.CategoryEvents))
	assert.ErrorIs(t, err, nats.ErrTimeout)
	assert.Empty(t, fc.published)
}

func TestNATSPublisher_PermanentErrorNotRetried(t *testing.T) {
	fc := &fakeConn{failures: []error{nats.ErrMaxPayload}}
	p := newNATSPublisher(fc, "s", fastPolicy(5), nil)

	err := p.Publish(t.Context(), &GeneratedEvent{RunID: "r"})
	require.ErrorIs(t, err, nats.ErrMaxPayload)
	assert.Empty(t, fc.failures)
}

func TestRetryablePublishError(t *testing.T) {
	assert.True(t, retryablePublishError(errors.New("io")))
	assert.False(t, retryablePublishError(nats.ErrBadSubject))
	assert.False(t, retryablePublishError(context.Canceled))
}

func TestNewNATSPublisher_RequiresSubject(t *testing.T) {
	_, err := NewNATSPublisher("nats://127.0.0.1:4222", "", retry.DefaultPolicy(), nil)
	require.Error(t, err)
}

func TestGeneratedEventChanged(t *testing.T) {
	ev := &GeneratedEvent{Documents: []DocumentEvent{{Status: "unchanged"}, {Status: "skipped"}}}
	assert.False(t, ev.Changed())
	ev.Documents = append(ev.Documents, DocumentEvent{Status: "updated"})
	assert.True(t, ev.Changed())
}

func TestNoopPublisher(t *testing.T) {
	var p Publisher = NoopPublisher{}
	require.NoError(t, p.Publish(t.Context(), &GeneratedEvent{}))
	require.NoError(t, p.Close())
}
