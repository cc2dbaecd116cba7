package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	kafkago "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/site-safety-desk/internal/config"
	"github.com/couchcryptid/site-safety-desk/internal/domain"
)

type fakeWriter struct {
	msgs   []kafkago.Message
	err    error
	closed bool
}

func (f *fakeWriter) WriteMessages(_ context.Context, msgs ...kafkago.Message) error {
	if f.err != nil {
		return f.err
	}
	f.msgs = append(f.msgs, msgs...)
	return nil
}

func (f *fakeWriter) Close() error {
	f.closed = true
	return nil
}

var archivedAt = time.Date(2026, 1, 21, 8, 30, 0, 0, time.UTC)

func testEntry() domain.Entry {
	return domain.Entry{
		Timestamp:  archivedAt,
		Site:       "경기-이천",
		Category:   domain.CategoryHazardReport,
		Content:    "protection confirmed",
		Attachment: &domain.Attachment{Filename: "skylight.png", ContentType: "image/png", Data: []byte{1, 2, 3}},
	}
}

func testGateway(w messageWriter) *Gateway {
	return &Gateway{writer: w, brokers: []string{"localhost:9092"}, logger: slog.New(slog.NewTextHandler(io.Discard, nil))}
}

func TestSerializeToMessage(t *testing.T) {
	msg, err := serializeToMessage(testEntry())
	require.NoError(t, err)

	assert.Equal(t, []byte("경기-이천"), msg.Key)
	assert.Equal(t, archivedAt, msg.Time)
	require.Len(t, msg.Headers, 2)
	assert.Equal(t, "category", msg.Headers[0].Key)
	assert.Equal(t, []byte(domain.CategoryHazardReport), msg.Headers[0].Value)
	assert.Equal(t, "archived_at", msg.Headers[1].Key)
	assert.Equal(t, []byte(archivedAt.Format(time.RFC3339)), msg.Headers[1].Value)

	var value archiveMessage
	require.NoError(t, json.Unmarshal(msg.Value, &value))
	assert.Equal(t, "protection confirmed", value.Content)
	assert.Equal(t, `\\NAS\Safety_Data\경기-이천\2026-01-21\`, value.Path)
	require.NotNil(t, value.Attachment)
	assert.Equal(t, []byte{1, 2, 3}, value.Attachment.Data)
	assert.Equal(t, 3, value.Attachment.Size)
}

func TestSerializeToMessage_NoAttachment(t *testing.T) {
	entry := testEntry()
	entry.Attachment = nil

	msg, err := serializeToMessage(entry)
	require.NoError(t, err)
	assert.NotContains(t, string(msg.Value), `"attachment"`)
}

func TestGateway_Record(t *testing.T) {
	w := &fakeWriter{}
	g := testGateway(w)

	require.NoError(t, g.Record(context.Background(), testEntry()))
	require.Len(t, w.msgs, 1)
	assert.Equal(t, []byte("경기-이천"), w.msgs[0].Key)
}

func TestGateway_RecordError(t *testing.T) {
	g := testGateway(&fakeWriter{err: errors.New("leader not available")})

	err := g.Record(context.Background(), testEntry())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "publish archive entry")
	assert.Contains(t, err.Error(), "leader not available")
}

func TestGateway_Close(t *testing.T) {
	w := &fakeWriter{}
	require.NoError(t, testGateway(w).Close())
	assert.True(t, w.closed)
}

func TestGateway_PingNoBrokers(t *testing.T) {
	g := &Gateway{writer: &fakeWriter{}, logger: slog.Default()}
	require.Error(t, g.Ping(context.Background()))
}

func TestNewGateway(t *testing.T) {
	cfg := &config.Config{KafkaBrokers: []string{"b1:9092"}, KafkaArchiveTopic: "safety-archive"}
	g := NewGateway(cfg, slog.Default())

	w, ok := g.writer.(*kafkago.Writer)
	require.True(t, ok)
	assert.Equal(t, "safety-archive", w.Topic)
	assert.Equal(t, []string{"b1:9092"}, g.brokers)
}
