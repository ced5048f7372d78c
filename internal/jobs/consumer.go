package jobs

import (
	"context"
	"encoding/json"
	"log"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/sqs"

	"parking_reservation/internal/domain"
)

// JobHandler processes one dequeued job. A nil return deletes the message;
// an error leaves it on the queue for redelivery after the visibility timeout.
type JobHandler interface {
	HandleJob(ctx context.Context, job domain.Job) error
}

// SQSConsumer long-polls the job queue and dispatches messages to the handler.
type SQSConsumer struct {
	sqsClient *sqs.Client
	queueURL  string
	handler   JobHandler
}

func NewSQSConsumer(client *sqs.Client, queueURL string, handler JobHandler) *SQSConsumer {
	return &SQSConsumer{
		sqsClient: client,
		queueURL:  queueURL,
		handler:   handler,
	}
}

func (c *SQSConsumer) Start(ctx context.Context) {
	log.Printf("SQS consumer listening on queue: %s", c.queueURL)
	for {
		select {
		case <-ctx.Done():
			log.Println("SQS consumer: context cancelled, stopping.")
			return
		default:
			receiveInput := &sqs.ReceiveMessageInput{
				QueueUrl:            &c.queueURL,
				MaxNumberOfMessages: 10,
				WaitTimeSeconds:     20,
				VisibilityTimeout:   60,
			}

			result, err := c.sqsClient.ReceiveMessage(ctx, receiveInput)
			if err != nil {
				log.Printf("SQS consumer: receive failed: %v", err)
				select {
				case <-time.After(5 * time.Second):
				case <-ctx.Done():
					log.Println("SQS consumer: context cancelled while waiting to retry.")
					return
				}
				continue
			}

			if len(result.Messages) == 0 {
				continue
			}

			for _, message := range result.Messages {
				if message.Body == nil {
					log.Println("SQS consumer: message with empty body, deleting.")
					c.deleteMessage(ctx, message.ReceiptHandle)
					continue
				}

				var job domain.Job
				if err := json.Unmarshal([]byte(*message.Body), &job); err != nil {
					// A malformed body will never parse; delete instead of
					// redelivering forever.
					log.Printf("SQS consumer: undecodable message %s, deleting: %v", *message.MessageId, err)
					c.deleteMessage(ctx, message.ReceiptHandle)
					continue
				}

				if err := c.handler.HandleJob(ctx, job); err != nil {
					log.Printf("SQS consumer: job %s failed, will be redelivered: %v", job.ID, err)
					continue
				}
				c.deleteMessage(ctx, message.ReceiptHandle)
			}
		}
	}
}

func (c *SQSConsumer) deleteMessage(ctx context.Context, receiptHandle *string) {
	if receiptHandle == nil {
		log.Println("SQS consumer: empty receipt handle, cannot delete message.")
		return
	}
	_, err := c.sqsClient.DeleteMessage(ctx, &sqs.DeleteMessageInput{
		QueueUrl:      &c.queueURL,
		ReceiptHandle: receiptHandle,
	})
	if err != nil {
		log.Printf("SQS consumer: delete failed: %v", err)
	}
}
