package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	kafkago "github.com/segmentio/kafka-go"

	"github.com/couchcryptid/site-safety-desk/internal/config"
	"github.com/couchcryptid/site-safety-desk/internal/domain"
)

// messageWriter is the subset of *kafkago.Writer the gateway uses.
type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafkago.Message) error
	Close() error
}

// Gateway publishes archival entries to a Kafka topic.
// It implements domain.ArchivalGateway.
type Gateway struct {
	writer  messageWriter
	brokers []string
	logger  *slog.Logger
}

// NewGateway creates a Kafka producer for the configured archive topic.
func NewGateway(cfg *config.Config, logger *slog.Logger) *Gateway {
	w := &kafkago.Writer{
		Addr:                   kafkago.TCP(cfg.KafkaBrokers...),
		Topic:                  cfg.KafkaArchiveTopic,
		Balancer:               &kafkago.Hash{},
		RequiredAcks:           kafkago.RequireAll,
		AllowAutoTopicCreation: true,
	}
	return &Gateway{writer: w, brokers: cfg.KafkaBrokers, logger: logger}
}

// Record publishes one entry, keyed by site so a site's entries stay ordered
// within a partition.
func (g *Gateway) Record(ctx context.Context, entry domain.Entry) error {
	msg, err := serializeToMessage(entry)
	if err != nil {
		return err
	}
	if err := g.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("publish archive entry: %w", err)
	}
	g.logger.Debug("archived to kafka", "site", entry.Site, "category", entry.Category)
	return nil
}

// Ping dials the first broker.
func (g *Gateway) Ping(ctx context.Context) error {
	if len(g.brokers) == 0 {
		return errors.New("no kafka brokers configured")
	}
	conn, err := kafkago.DialContext(ctx, "tcp", g.brokers[0])
	if err != nil {
		return fmt.Errorf("dial kafka: %w", err)
	}
	return conn.Close()
}

func (g *Gateway) Close() error {
	return g.writer.Close()
}

// archiveMessage is the JSON value of a published entry.
type archiveMessage struct {
	ArchivedAt time.Time          `json:"archived_at"`
	Site       string             `json:"site"`
	Category   string             `json:"category"`
	Content    string             `json:"content"`
	Path       string             `json:"path"`
	Attachment *attachmentMessage `json:"attachment,omitempty"`
}

type attachmentMessage struct {
	Filename    string `json:"filename"`
	ContentType string `json:"content_type,omitempty"`
	Size        int    `json:"size"`
	Data        []byte `json:"data"` // base64 in JSON
}

// serializeToMessage marshals an Entry into a Kafka message.
func serializeToMessage(entry domain.Entry) (kafkago.Message, error) {
	m := archiveMessage{
		ArchivedAt: entry.Timestamp,
		Site:       entry.Site,
		Category:   entry.Category,
		Content:    entry.Content,
		Path:       entry.Path(),
	}
	if a := entry.Attachment; a != nil {
		m.Attachment = &attachmentMessage{
			Filename:    a.Filename,
			ContentType: a.ContentType,
			Size:        a.Size(),
			Data:        a.Data,
		}
	}
	data, err := json.Marshal(m)
	if err != nil {
		return kafkago.Message{}, fmt.Errorf("serialize archive entry: %w", err)
	}
	return kafkago.Message{
		Key:   []byte(entry.Site),
		Value: data,
		Time:  entry.Timestamp,
		Headers: []kafkago.Header{
			{Key: "category", Value: []byte(entry.Category)},
			{Key: "archived_at", Value: []byte(entry.Timestamp.Format(time.RFC3339))},
		},
	}, nil
}
