package worker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"cloud.google.com/go/pubsub/v2"
	"github.com/rs/zerolog"

	"github.com/pulseboard/pulseboard/internal/dashboard"
)

// Job errors. Messages failing with either are acked and dropped.
var (
	ErrMalformedJob = errors.New("malformed job message")
	ErrUnknownJob   = errors.New("unknown job type")
)

// JobMessage is the payload of a job published to the job topic.
type JobMessage struct {
	JobType     string    `json:"job_type"`
	RequestedAt time.Time `json:"requested_at,omitempty"`
}

// EncodeJob builds the payload for a job of the given type.
func EncodeJob(jobType string, at time.Time) ([]byte, error) {
	return json.Marshal(JobMessage{JobType: jobType, RequestedAt: at.UTC()})
}

// JobRunner executes jobs against the store.
type JobRunner struct {
	store   *dashboard.Store
	refresh *RefreshJob
	logger  zerolog.Logger
}

// NewJobRunner creates a new JobRunner.
func NewJobRunner(store *dashboard.Store, refresh *RefreshJob, logger zerolog.Logger) *JobRunner {
	return &JobRunner{store: store, refresh: refresh, logger: logger}
}

// Process decodes and runs one job payload and returns the job type.
func (r *JobRunner) Process(ctx context.Context, data []byte) (string, error) {
	var msg JobMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return "", fmt.Errorf("%w: %s", ErrMalformedJob, err.Error())
	}

	switch msg.JobType {
	case JobMetricsRefresh:
		return msg.JobType, r.refresh.RefreshMetrics(ctx)
	case JobDemoReset:
		r.store.InitializeDemoData()
		return msg.JobType, nil
	case JobHealthCheck:
		return msg.JobType, r.healthCheck(ctx)
	default:
		return msg.JobType, ErrUnknownJob
	}
}

func (r *JobRunner) healthCheck(ctx context.Context) error {
	result := r.refresh.HealthSweep(ctx)

	// Consider it successful unless most probes failed.
	if result.Failed > result.Succeeded {
		return fmt.Errorf("too many probe failures: %d/%d", result.Failed, result.Total)
	}
	return nil
}

// PubSubHandler receives jobs from a Pub/Sub subscription.
type PubSubHandler struct {
	client           *pubsub.Client
	subscriber       *pubsub.Subscriber
	subscriptionName string
	runner           *JobRunner
	logger           zerolog.Logger
}

// PubSubConfig holds configuration for the Pub/Sub handler.
type PubSubConfig struct {
	ProjectID        string
	SubscriptionName string
	Runner           *JobRunner
	Logger           zerolog.Logger
}

// NewPubSubHandler creates a new Pub/Sub handler.
func NewPubSubHandler(ctx context.Context, cfg PubSubConfig) (*PubSubHandler, error) {
	client, err := pubsub.NewClient(ctx, cfg.ProjectID)
	if err != nil {
		return nil, fmt.Errorf("creating pubsub client: %w", err)
	}

	subscriber := client.Subscriber(cfg.SubscriptionName)

	// Jobs mutate shared state; a handful in flight is plenty.
	subscriber.ReceiveSettings.MaxOutstandingMessages = 4
	subscriber.ReceiveSettings.MaxExtension = 5 * time.Minute

	return &PubSubHandler{
		client:           client,
		subscriber:       subscriber,
		subscriptionName: cfg.SubscriptionName,
		runner:           cfg.Runner,
		logger:           cfg.Logger,
	}, nil
}

// Start begins processing Pub/Sub messages. It blocks until ctx is done.
func (h *PubSubHandler) Start(ctx context.Context) error {
	h.logger.Info().
		Str("subscription", h.subscriptionName).
		Msg("starting pubsub handler")

	return h.subscriber.Receive(ctx, func(ctx context.Context, msg *pubsub.Message) {
		if h.handleMessage(ctx, msg.ID, msg.PublishTime, msg.Data) {
			msg.Ack()
		} else {
			msg.Nack()
		}
	})
}

// Close closes the Pub/Sub client.
func (h *PubSubHandler) Close() error {
	return h.client.Close()
}

// handleMessage runs the job and reports whether the message should be acked.
func (h *PubSubHandler) handleMessage(ctx context.Context, id string, published time.Time, data []byte) bool {
	startTime := time.Now()

	logger := h.logger.With().
		Str("message_id", id).
		Str("publish_time", published.Format(time.RFC3339)).
		Logger()

	jobType, err := h.runner.Process(ctx, data)
	switch {
	case errors.Is(err, ErrMalformedJob), errors.Is(err, ErrUnknownJob):
		logger.Warn().Err(err).Str("job_type", jobType).Msg("dropping job")
		return true
	case err != nil:
		logger.Error().Err(err).Str("job_type", jobType).Msg("job failed")
		return false
	}

	logger.Info().
		Str("job_type", jobType).
		Dur("duration", time.Since(startTime)).
		Msg("job completed successfully")
	return true
}

// JobPublisher publishes jobs to the job topic.
type JobPublisher struct {
	client    *pubsub.Client
	publisher *pubsub.Publisher
	now       func() time.Time
}

// NewJobPublisher creates a publisher for topic in projectID.
func NewJobPublisher(ctx context.Context, projectID, topic string) (*JobPublisher, error) {
	client, err := pubsub.NewClient(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("creating pubsub client: %w", err)
	}

	return &JobPublisher{
		client:    client,
		publisher: client.Publisher(topic),
		now:       time.Now,
	}, nil
}

// Publish sends one job and waits for the server to accept it.
func (p *JobPublisher) Publish(ctx context.Context, jobType string) (string, error) {
	data, err := EncodeJob(jobType, p.now())
	if err != nil {
		return "", fmt.Errorf("encoding job: %w", err)
	}

	res := p.publisher.Publish(ctx, &pubsub.Message{
		Data:       data,
		Attributes: map[string]string{"job_type": jobType},
	})
	id, err := res.Get(ctx)
	if err != nil {
		return "", fmt.Errorf("publishing %s job: %w", jobType, err)
	}
	return id, nil
}

// Close flushes pending messages and closes the client.
func (p *JobPublisher) Close() error {
	p.publisher.Stop()
	return p.client.Close()
}
