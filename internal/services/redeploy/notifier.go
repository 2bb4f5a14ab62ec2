package redeploy

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/WelcomerTeam/RealRock/bucketstore"
	"github.com/ictsc/ictsc-discord-bot/botjson"
	"github.com/ictsc/ictsc-discord-bot/discord"
	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog"
	"github.com/segmentio/kafka-go"
)

const (
	WebhookRateLimitDuration = 5 * time.Second
	WebhookRateLimitLimit    = 5
)

var (
	ColourStarted = discord.RGB(40, 167, 65)
	ColourFailed  = discord.RGB(236, 76, 82)
)

// Notifier announces the outcome of a redeploy request. err is the error
// returned by the Service, job is only meaningful when err is nil.
type Notifier interface {
	Notify(ctx context.Context, target Target, job Job, err error) error
}

// EventType is the kind of Event published to message brokers.
type EventType string

const (
	EventTypeStarted EventType = "redeploy_started"
	EventTypeFailed  EventType = "redeploy_failed"
)

// Event is the message body published by the broker notifiers.
type Event struct {
	Type        EventType `json:"type"`
	TeamID      string    `json:"team_id"`
	ProblemCode string    `json:"problem_code"`
	JobID       string    `json:"job_id,omitempty"`
	Error       string    `json:"error,omitempty"`
	Time        time.Time `json:"time"`
}

func NewEvent(target Target, job Job, err error, now time.Time) Event {
	event := Event{
		Type:        EventTypeStarted,
		TeamID:      target.TeamID,
		ProblemCode: target.ProblemCode,
		JobID:       job.ID,
		Time:        now.UTC(),
	}

	if err != nil {
		event.Type = EventTypeFailed
		event.JobID = ""
		event.Error = err.Error()
	}

	return event
}

// MultiNotifier fans a notification out to every notifier. A failing
// notifier does not stop the others.
type MultiNotifier []Notifier

func (m MultiNotifier) Notify(ctx context.Context, target Target, job Job, err error) error {
	var errs []error

	for _, notifier := range m {
		notifyErr := notifier.Notify(ctx, target, job, err)
		if notifyErr != nil {
			errs = append(errs, notifyErr)
		}
	}

	return errors.Join(errs...)
}

// WebhookNotifier posts an embed to discord webhooks.
type WebhookNotifier struct {
	logger  zerolog.Logger
	session *discord.Session
	urls    []string
	buckets *bucketstore.BucketStore
}

// NewWebhookNotifier posts through restInterface. Webhook urls carry their
// own token so the session is unauthenticated.
func NewWebhookNotifier(logger zerolog.Logger, restInterface discord.RESTInterface, urls []string) *WebhookNotifier {
	return &WebhookNotifier{
		logger:  logger,
		session: discord.NewSession(context.Background(), "", restInterface),
		urls:    urls,
		buckets: bucketstore.NewBucketStore(),
	}
}

// Embed renders the notification for a redeploy outcome.
func Embed(target Target, job Job, err error) discord.Embed {
	if err != nil {
		return *discord.NewEmbed("再展開失敗通知").
			SetColor(ColourFailed).
			AddField("チームID", target.TeamID, true).
			AddField("問題コード", target.ProblemCode, true).
			AddField("エラー", err.Error(), true)
	}

	return *discord.NewEmbed("再展開開始通知").
		SetColor(ColourStarted).
		AddField("チームID", target.TeamID, true).
		AddField("問題コード", target.ProblemCode, true).
		AddField("再展開Job ID", job.ID, true)
}

func (w *WebhookNotifier) Notify(ctx context.Context, target Target, job Job, err error) error {
	params := discord.WebhookMessageParams{
		Embeds: []discord.Embed{Embed(target, job, err)},
	}

	session := w.session.WithContext(ctx)

	var errs []error

	for _, webhookURL := range w.urls {
		webhookURL = strings.TrimSpace(webhookURL)

		_ = w.buckets.CreateWaitForBucket(webhookURL, WebhookRateLimitLimit, WebhookRateLimitDuration)

		sendErr := discord.ExecuteWebhookURL(session, webhookURL, params)
		if sendErr != nil {
			w.logger.Warn().Err(sendErr).Msg("Failed to send webhook")

			errs = append(errs, sendErr)

			continue
		}

		w.logger.Debug().Str("team_id", target.TeamID).Str("problem_code", target.ProblemCode).Msg("Sent redeploy webhook")
	}

	return errors.Join(errs...)
}

// NATSNotifier publishes events on a NATS subject.
type NATSNotifier struct {
	conn    *nats.Conn
	subject string
	now     func() time.Time
}

func NewNATSNotifier(conn *nats.Conn, subject string) *NATSNotifier {
	return &NATSNotifier{
		conn:    conn,
		subject: subject,
		now:     time.Now,
	}
}

// ConnectNATS dials address with the bot's client name.
func ConnectNATS(address string) (*nats.Conn, error) {
	conn, err := nats.Connect(address, nats.Name("ictsc-discord-bot"))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to nats: %w", err)
	}

	return conn, nil
}

func (n *NATSNotifier) Notify(_ context.Context, target Target, job Job, err error) error {
	data, marshalErr := botjson.Marshal(NewEvent(target, job, err, n.now()))
	if marshalErr != nil {
		return fmt.Errorf("failed to marshal event: %w", marshalErr)
	}

	publishErr := n.conn.Publish(n.subject, data)
	if publishErr != nil {
		return fmt.Errorf("failed to publish to %s: %w", n.subject, publishErr)
	}

	return nil
}

// MessageWriter is the subset of *kafka.Writer used by KafkaNotifier.
type MessageWriter interface {
	WriteMessages(ctx context.Context, messages ...kafka.Message) error
}

// KafkaNotifier writes events to a Kafka topic keyed by team.
type KafkaNotifier struct {
	writer MessageWriter
	topic  string
	now    func() time.Time
}

func NewKafkaNotifier(writer MessageWriter, topic string) *KafkaNotifier {
	return &KafkaNotifier{
		writer: writer,
		topic:  topic,
		now:    time.Now,
	}
}

// NewKafkaWriter creates a writer hashing messages to partitions by key.
func NewKafkaWriter(addresses []string) *kafka.Writer {
	return &kafka.Writer{
		Addr:     kafka.TCP(addresses...),
		Balancer: &kafka.Hash{},
	}
}

func (k *KafkaNotifier) Notify(ctx context.Context, target Target, job Job, err error) error {
	data, marshalErr := botjson.Marshal(NewEvent(target, job, err, k.now()))
	if marshalErr != nil {
		return fmt.Errorf("failed to marshal event: %w", marshalErr)
	}

	writeErr := k.writer.WriteMessages(ctx, kafka.Message{
		Topic: k.topic,
		Key:   []byte(target.TeamID),
		Value: data,
	})
	if writeErr != nil {
		return fmt.Errorf("failed to write to %s: %w", k.topic, writeErr)
	}

	return nil
}
