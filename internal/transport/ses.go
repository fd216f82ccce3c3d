package transport

import (
	"context"
	"errors"
	"fmt"
	"net"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/sesv2"
	"github.com/aws/aws-sdk-go-v2/service/sesv2/types"

	"github.com/ignite/emailpro/internal/pkg/logger"
)

// SESSender delivers email through AWS SES using the SDK v2.
type SESSender struct {
	client *sesv2.Client
}

// NewSESSender creates an SES-backed sender. Returns an error if the AWS
// config cannot be assembled from the given static credentials.
func NewSESSender(accessKey, secretKey, region string) (*SESSender, error) {
	if region == "" {
		region = "us-east-1"
	}

	cfg, err := awsconfig.LoadDefaultConfig(context.Background(),
		awsconfig.WithRegion(region),
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(accessKey, secretKey, "")),
	)
	if err != nil {
		return nil, fmt.Errorf("init aws config: %w", err)
	}

	return &SESSender{client: sesv2.NewFromConfig(cfg)}, nil
}

// Send delivers a single email through AWS SES. Provider rejections are
// classified into a failure Result rather than returned as errors.
func (s *SESSender) Send(ctx context.Context, msg *Message) (*Result, error) {
	input := &sesv2.SendEmailInput{
		FromEmailAddress: aws.String(fmt.Sprintf("%s <%s>", msg.FromName, msg.FromEmail)),
		Destination:      &types.Destination{ToAddresses: []string{msg.To}},
		Content: &types.EmailContent{
			Simple: &types.Message{
				Subject: &types.Content{Data: aws.String(msg.Subject), Charset: aws.String("UTF-8")},
				Body: &types.Body{
					Html: &types.Content{Data: aws.String(msg.HTMLBody), Charset: aws.String("UTF-8")},
				},
			},
		},
		EmailTags: []types.MessageTag{
			{Name: aws.String("campaign_id"), Value: aws.String(msg.CampaignID)},
			{Name: aws.String("delivery_id"), Value: aws.String(msg.DeliveryID)},
		},
	}

	if msg.TextBody != "" {
		input.Content.Simple.Body.Text = &types.Content{Data: aws.String(msg.TextBody), Charset: aws.String("UTF-8")}
	}

	out, err := s.client.SendEmail(ctx, input)
	if err != nil {
		reason := classifySESError(err)
		logger.Warn("ses send failed",
			"to", msg.To, "reason", string(reason), "error", err.Error())
		return Failed(reason, err.Error()), nil
	}

	messageID := ""
	if out.MessageId != nil {
		messageID = *out.MessageId
	}

	return &Result{Delivered: true, MessageID: messageID, SentAt: time.Now()}, nil
}

// classifySESError maps an SES SDK error into a failure reason.
func classifySESError(err error) FailureReason {
	var rejected *types.MessageRejected
	if errors.As(err, &rejected) {
		return FailureInvalidAddress
	}
	var badReq *types.BadRequestException
	if errors.As(err, &badReq) {
		return FailureInvalidAddress
	}
	var tooMany *types.TooManyRequestsException
	if errors.As(err, &tooMany) {
		return FailureRateLimited
	}
	var limit *types.LimitExceededException
	if errors.As(err, &limit) {
		return FailureRateLimited
	}
	var netErr net.Error
	if errors.As(err, &netErr) || errors.Is(err, context.DeadlineExceeded) {
		return FailureNetwork
	}
	return FailureUnknown
}
