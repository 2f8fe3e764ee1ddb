package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	kafkago "github.com/segmentio/kafka-go"

	"github.com/couchcryptid/climate-dataset-etl/internal/config"
	"github.com/couchcryptid/climate-dataset-etl/internal/dataset"
)

// Announcer publishes a small message after every successful pipeline run so
// downstream consumers reload the dataset instead of polling the file.
// It implements pipeline.Notifier.
type Announcer struct {
	writer       *kafkago.Writer
	artifactPath string
	logger       *slog.Logger
}

// NewAnnouncer creates a producer for the configured announce topic.
func NewAnnouncer(cfg *config.Config, logger *slog.Logger) *Announcer {
	w := &kafkago.Writer{
		Addr:         kafkago.TCP(cfg.KafkaBrokers...),
		Topic:        cfg.KafkaAnnounceTopic,
		Balancer:     &kafkago.LeastBytes{},
		RequiredAcks: kafkago.RequireAll,
	}
	return &Announcer{writer: w, artifactPath: cfg.ArtifactPath(), logger: logger}
}

// runAnnouncement is the wire shape consumers see: the generation timestamp,
// per-metric point counts, and where the artifact lives.
type runAnnouncement struct {
	GeneratedAt  string         `json:"generated_at"`
	Series       map[string]int `json:"series"`
	ArtifactPath string         `json:"artifact_path"`
}

func (a *Announcer) Name() string { return "kafka-announcer" }

// NotifyRun publishes one message per completed run, keyed by the generation
// timestamp so replays deduplicate naturally.
func (a *Announcer) NotifyRun(ctx context.Context, artifact *dataset.Artifact) error {
	msg, err := announcementMessage(artifact, a.artifactPath)
	if err != nil {
		return err
	}
	if err := a.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("write announcement: %w", err)
	}
	a.logger.Info("run announced",
		"topic", a.writer.Topic, "generated_at", artifact.GeneratedAtISO)
	return nil
}

func (a *Announcer) Close() error {
	return a.writer.Close()
}

func announcementMessage(artifact *dataset.Artifact, artifactPath string) (kafkago.Message, error) {
	counts := make(map[string]int, len(artifact.Series))
	for key, points := range artifact.Series {
		counts[key] = len(points)
	}
	payload, err := json.Marshal(runAnnouncement{
		GeneratedAt:  artifact.GeneratedAtISO,
		Series:       counts,
		ArtifactPath: artifactPath,
	})
	if err != nil {
		return kafkago.Message{}, fmt.Errorf("serialize announcement: %w", err)
	}
	return kafkago.Message{
		Key:   []byte(artifact.GeneratedAtISO),
		Value: payload,
		Headers: []kafkago.Header{
			{Key: "source", Value: []byte("climate-dataset-etl")},
		},
	}, nil
}
