package jobs

import (
	"context"
	"encoding/json"
	"fmt"
	"log"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/google/uuid"

	"parking_reservation/internal/domain"
)

// JobQueue enqueues notification work for asynchronous processing.
type JobQueue interface {
	Enqueue(ctx context.Context, jobType domain.JobType, payload interface{}) (string, error)
}

// SQSJobQueue publishes jobs as JSON messages on an SQS queue.
type SQSJobQueue struct {
	client   *sqs.Client
	queueURL string
}

func NewSQSJobQueue(client *sqs.Client, queueURL string) *SQSJobQueue {
	return &SQSJobQueue{client: client, queueURL: queueURL}
}

func (q *SQSJobQueue) Enqueue(ctx context.Context, jobType domain.JobType, payload interface{}) (string, error) {
	job := domain.Job{
		ID:   uuid.NewString(),
		Type: jobType,
	}
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return "", fmt.Errorf("marshaling %s payload: %w", jobType, err)
		}
		job.Payload = data
	}

	body, err := json.Marshal(job)
	if err != nil {
		return "", fmt.Errorf("marshaling job %s: %w", job.ID, err)
	}

	_, err = q.client.SendMessage(ctx, &sqs.SendMessageInput{
		QueueUrl:    &q.queueURL,
		MessageBody: aws.String(string(body)),
	})
	if err != nil {
		return "", fmt.Errorf("enqueueing job %s (%s): %w", job.ID, jobType, err)
	}
	log.Printf("Enqueued job %s (%s)", job.ID, jobType)
	return job.ID, nil
}

var _ JobQueue = (*SQSJobQueue)(nil)
