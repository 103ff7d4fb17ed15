package notifications

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	sqstypes "github.com/aws/aws-sdk-go-v2/service/sqs/types"
)

// SQSNotifier delivers dispatch messages to the mail dispatcher's SQS queue.
type SQSNotifier struct {
	client   *sqs.Client
	queueURL string
}

// NewSQSNotifier constructs an SQS-backed notifier.
func NewSQSNotifier(ctx context.Context, region, queueURL string) (*SQSNotifier, error) {
	if strings.TrimSpace(queueURL) == "" {
		return nil, fmt.Errorf("NOTIFY_SQS_QUEUE_URL is required")
	}
	cfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}
	return &SQSNotifier{
		client:   sqs.NewFromConfig(cfg),
		queueURL: queueURL,
	}, nil
}

// Send delivers a message to the configured SQS queue. The priority hint
// rides along as a message attribute so the dispatcher can reorder without
// decoding the body.
func (n *SQSNotifier) Send(ctx context.Context, msg Message) error {
	payload, err := EncodeMessage(msg)
	if err != nil {
		return fmt.Errorf("encode notification: %w", err)
	}

	_, err = n.client.SendMessage(ctx, &sqs.SendMessageInput{
		QueueUrl:    aws.String(n.queueURL),
		MessageBody: aws.String(string(payload)),
		MessageAttributes: map[string]sqstypes.MessageAttributeValue{
			"priority": {
				DataType:    aws.String("Number"),
				StringValue: aws.String(strconv.Itoa(msg.Priority)),
			},
		},
	})
	if err != nil {
		return fmt.Errorf("sqs send notification: %w", err)
	}
	return nil
}

var _ Notifier = (*SQSNotifier)(nil)
