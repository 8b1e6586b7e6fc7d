package sns

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	"github.com/aws/aws-sdk-go-v2/service/sns/types"
	"github.com/marque-api/internal/config"
	"go.uber.org/zap"
)

// SMSSender delivers verification codes by text message.
type SMSSender interface {
	SendSMS(ctx context.Context, to, message string) error
}

// Publisher is the part of the SNS client the sender uses.
type Publisher interface {
	Publish(ctx context.Context, params *sns.PublishInput, optFns ...func(*sns.Options)) (*sns.PublishOutput, error)
}

type sender struct {
	client Publisher
}

// NewSender picks the delivery backend named by SMS_PROVIDER.
func NewSender(cfg *config.Config, log *zap.Logger) (SMSSender, error) {
	switch cfg.SMSProvider {
	case "", "log":
		return NewLogSender(log), nil
	case "sns":
		awsCfg, err := awsconfig.LoadDefaultConfig(context.Background(),
			awsconfig.WithRegion(cfg.SNSRegion),
		)
		if err != nil {
			return nil, err
		}
		return NewPublisherSender(sns.NewFromConfig(awsCfg)), nil
	}
	return nil, fmt.Errorf("unknown SMS_PROVIDER %q", cfg.SMSProvider)
}

func NewPublisherSender(client Publisher) SMSSender {
	return &sender{client: client}
}

func (s *sender) SendSMS(ctx context.Context, to, message string) error {
	_, err := s.client.Publish(ctx, &sns.PublishInput{
		PhoneNumber: aws.String(to),
		Message:     aws.String(message),
		MessageAttributes: map[string]types.MessageAttributeValue{
			"AWS.SNS.SMS.SMSType": {DataType: aws.String("String"), StringValue: aws.String("Transactional")},
		},
	})
	return err
}

type logSender struct {
	log *zap.Logger
}

// NewLogSender writes messages to the log instead of delivering them. Development only.
func NewLogSender(log *zap.Logger) SMSSender {
	if log == nil {
		log = zap.NewNop()
	}
	return &logSender{log: log}
}

func (s *logSender) SendSMS(_ context.Context, to, message string) error {
	s.log.Info("sms (log provider)", zap.String("to", to), zap.String("message", message))
	return nil
}
