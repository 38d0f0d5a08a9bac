package nats

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sms-dispatch/internal/domain"
	"sms-dispatch/internal/ports"
)

type recordingPublisher struct {
	subject string
	data    []byte
	err     error
}

func (r *recordingPublisher) Publish(subj string, data []byte) error {
	r.subject = subj
	r.data = data
	return r.err
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestPublishStatusChanged(t *testing.T) {
	rec := &recordingPublisher{}
	c := &Client{pub: rec, log: discardLogger()}

	evt := ports.StatusChanged{MessageID: uuid.New(), From: domain.StatusSent, To: domain.StatusDelivered}
	require.NoError(t, c.PublishStatusChanged(context.Background(), evt))

	assert.Equal(t, Subject, rec.subject)
	var got ports.StatusChanged
	require.NoError(t, json.Unmarshal(rec.data, &got))
	assert.Equal(t, evt.MessageID, got.MessageID)
	assert.Equal(t, domain.StatusDelivered, got.To)
}

func TestPublishStatusChanged_Error(t *testing.T) {
	c := &Client{pub: &recordingPublisher{err: errors.New("no responders")}, log: discardLogger()}

	err := c.PublishStatusChanged(context.Background(), ports.StatusChanged{})
	assert.ErrorContains(t, err, "no responders")
}

func TestHandle_DecodesAndSkipsMalformed(t *testing.T) {
	c := &Client{log: discardLogger()}
	var seen []ports.StatusChanged
	handler := func(_ context.Context, evt ports.StatusChanged) error {
		seen = append(seen, evt)
		return nil
	}

	id := uuid.New()
	body, _ := json.Marshal(ports.StatusChanged{MessageID: id, To: domain.StatusFailed})

	c.handle(context.Background(), []byte("garbage"), handler)
	c.handle(context.Background(), body, handler)

	require.Len(t, seen, 1)
	assert.Equal(t, id, seen[0].MessageID)
}
