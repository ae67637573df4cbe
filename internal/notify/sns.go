package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	snstypes "github.com/aws/aws-sdk-go-v2/service/sns/types"
)

// snsPublisher is the part of the SNS client the notifier uses
type snsPublisher interface {
	Publish(ctx context.Context, params *sns.PublishInput, optFns ...func(*sns.Options)) (*sns.PublishOutput, error)
}

// SNSNotifier publishes notifications to an SNS topic. Mobile endpoints subscribed to
// the topic receive the GCM payload; other subscribers get the plain body.
type SNSNotifier struct {
	client   snsPublisher
	topicARN string
	log      *slog.Logger
}

// NewSNSNotifier loads AWS credentials from the default chain
func NewSNSNotifier(ctx context.Context, topicARN, region string, logger *slog.Logger) (*SNSNotifier, error) {
	var opts []func(*awsconfig.LoadOptions) error
	if region != "" {
		opts = append(opts, awsconfig.WithRegion(region))
	}
	cfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}
	return newSNSNotifier(sns.NewFromConfig(cfg), topicARN, logger), nil
}

func newSNSNotifier(client snsPublisher, topicARN string, logger *slog.Logger) *SNSNotifier {
	return &SNSNotifier{client: client, topicARN: topicARN, log: logger}
}

func (s *SNSNotifier) Notify(ctx context.Context, n Notification) error {
	msg, err := snsMessage(n)
	if err != nil {
		return err
	}

	out, err := s.client.Publish(ctx, &sns.PublishInput{
		TopicArn:         aws.String(s.topicARN),
		Subject:          aws.String(n.Title),
		Message:          aws.String(msg),
		MessageStructure: aws.String("json"),
		MessageAttributes: map[string]snstypes.MessageAttributeValue{
			"type": {DataType: aws.String("String"), StringValue: aws.String(n.Type)},
		},
	})
	if err != nil {
		return fmt.Errorf("sns publish failed: %w", err)
	}
	s.log.Debug("notification published", "type", n.Type, "message_id", aws.ToString(out.MessageId))
	return nil
}

// snsMessage builds the per-protocol JSON document SNS expects when
// MessageStructure is "json": every value is itself a string.
func snsMessage(n Notification) (string, error) {
	gcm, err := json.Marshal(map[string]any{
		"notification": map[string]string{"title": n.Title, "body": n.Body},
		"data":         n.Data,
	})
	if err != nil {
		return "", fmt.Errorf("failed to encode gcm payload: %w", err)
	}
	raw, err := json.Marshal(map[string]string{
		"default": n.Body,
		"GCM":     string(gcm),
	})
	if err != nil {
		return "", fmt.Errorf("failed to encode sns message: %w", err)
	}
	return string(raw), nil
}
