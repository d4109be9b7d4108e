// Package worker provides a NATS worker that turns object-created
// notifications into speech.
package worker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	lambdaevents "github.com/aws/aws-lambda-go/events"
	"github.com/book-expert/events"
	"github.com/book-expert/logger"
	"github.com/book-expert/text-speech/internal/synthesis"
	"github.com/google/uuid"
	"github.com/nats-io/nats.go"
)

const handleMessageTimeout = 60 * time.Second

var (
	// ErrSubjectEmpty indicates that the subject is empty.
	ErrSubjectEmpty = errors.New("subject cannot be empty")
	// ErrProcessorNil indicates that no processor was provided.
	ErrProcessorNil = errors.New("processor cannot be nil")
	// ErrNoRecords indicates a notification without records.
	ErrNoRecords = errors.New("notification contains no records")
)

// Processor synthesizes the objects named by an S3-shaped notification.
type Processor interface {
	Process(ctx context.Context, event lambdaevents.S3Event) []synthesis.Result
}

// NatsWorker listens for object-created notifications on a NATS subject.
type NatsWorker struct {
	natsConnection *nats.Conn
	subject        string
	processor      Processor
	now            func() time.Time
	log            *logger.Logger
}

// NewNatsWorker creates a new instance of a NATS worker.
func NewNatsWorker(
	natsConnection *nats.Conn,
	subject string,
	processor Processor,
	log *logger.Logger,
) (*NatsWorker, error) {
	if subject == "" {
		return nil, ErrSubjectEmpty
	}

	if processor == nil {
		return nil, ErrProcessorNil
	}

	return &NatsWorker{
		natsConnection: natsConnection,
		subject:        subject,
		processor:      processor,
		now:            time.Now,
		log:            log,
	}, nil
}

// Run starts the worker and begins listening for messages.
func (w *NatsWorker) Run(ctx context.Context) error {
	sub, err := w.natsConnection.Subscribe(w.subject, w.handleMessage)
	if err != nil {
		return fmt.Errorf("failed to subscribe to subject %s: %w", w.subject, err)
	}

	w.log.Info("Listening for object notifications on %s", w.subject)

	<-ctx.Done()

	drainErr := sub.Drain()
	if drainErr != nil {
		return fmt.Errorf("failed to drain subscription: %w", drainErr)
	}

	return nil
}

func (w *NatsWorker) handleMessage(msg *nats.Msg) {
	ctx, cancel := context.WithTimeout(context.Background(), handleMessageTimeout)
	defer cancel()

	event, err := parseEvent(msg.Data)
	if err != nil {
		w.log.Error("Failed to parse notification on %s: %v", msg.Subject, err)

		return
	}

	results := w.processor.Process(ctx, event)

	if msg.Reply == "" {
		return
	}

	header := events.EventHeader{
		Timestamp:  w.now().UTC(),
		WorkflowID: uuid.NewString(),
		EventID:    "",
		UserID:     "",
		TenantID:   "",
	}

	created := make([]synthesis.Result, 0, len(results))

	for _, result := range results {
		if result.Err == nil {
			created = append(created, result)
		}
	}

	for index, result := range created {
		header.EventID = uuid.NewString()

		replyEvent := &events.AudioChunkCreatedEvent{
			Header:     header,
			AudioKey:   result.AudioKey,
			PageNumber: index + 1,
			TotalPages: len(created),
		}

		err = w.publishReplyEvent(msg, replyEvent)
		if err != nil {
			w.log.Error("Failed to publish reply event for workflow %s: %v", header.WorkflowID, err)

			return
		}
	}
}

// publishReplyEvent marshals and responds with the AudioChunkCreatedEvent.
func (w *NatsWorker) publishReplyEvent(msg *nats.Msg, replyEvent *events.AudioChunkCreatedEvent) error {
	replyData, err := json.Marshal(replyEvent)
	if err != nil {
		return fmt.Errorf("failed to marshal reply event: %w", err)
	}

	err = msg.Respond(replyData)
	if err != nil {
		return fmt.Errorf("failed to publish reply event: %w", err)
	}

	return nil
}

func parseEvent(data []byte) (lambdaevents.S3Event, error) {
	var event lambdaevents.S3Event

	err := json.Unmarshal(data, &event)
	if err != nil {
		return event, fmt.Errorf("failed to unmarshal event: %w", err)
	}

	if len(event.Records) == 0 {
		return event, ErrNoRecords
	}

	return event, nil
}
