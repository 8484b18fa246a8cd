package mail

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	"github.com/aws/aws-sdk-go-v2/service/ses/types"
	"go.uber.org/zap"
)

type Message struct {
	To      string
	Subject string
	HTML    string
	Text    string
}

type Mailer interface {
	Send(ctx context.Context, m Message) error
}

type Config struct {
	Provider        string // ses | noop
	FromAddress     string
	FromName        string
	Region          string
	AccessKeyID     string
	SecretAccessKey string
}

// New returns an SES mailer for provider "ses"; anything else gets a noop
// mailer that only logs.
func New(cfg Config, log *zap.Logger) Mailer {
	if log == nil {
		log = zap.NewNop()
	}
	switch cfg.Provider {
	case "ses":
		awsCfg := aws.Config{Region: cfg.Region}
		if cfg.AccessKeyID != "" {
			awsCfg.Credentials = aws.NewCredentialsCache(
				credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
			)
		}
		return &sesMailer{
			client: ses.NewFromConfig(awsCfg),
			from:   source(cfg.FromName, cfg.FromAddress),
			log:    log,
		}
	case "noop", "":
	default:
		log.Warn("unknown mail provider, using noop", zap.String("provider", cfg.Provider))
	}
	return &noopMailer{log: log}
}

func source(name, addr string) string {
	if name == "" {
		return addr
	}
	return fmt.Sprintf("%s <%s>", name, addr)
}

type sesAPI interface {
	SendEmail(ctx context.Context, in *ses.SendEmailInput, optFns ...func(*ses.Options)) (*ses.SendEmailOutput, error)
}

type sesMailer struct {
	client sesAPI
	from   string
	log    *zap.Logger
}

func utf8(s string) *types.Content {
	return &types.Content{Data: aws.String(s), Charset: aws.String("UTF-8")}
}

func (s *sesMailer) Send(ctx context.Context, m Message) error {
	in := &ses.SendEmailInput{
		Source:      aws.String(s.from),
		Destination: &types.Destination{ToAddresses: []string{m.To}},
		Message: &types.Message{
			Subject: utf8(m.Subject),
			Body:    &types.Body{},
		},
	}
	if m.HTML != "" {
		in.Message.Body.Html = utf8(m.HTML)
	}
	if m.Text != "" {
		in.Message.Body.Text = utf8(m.Text)
	}
	out, err := s.client.SendEmail(ctx, in)
	if err != nil {
		return fmt.Errorf("send email via ses: %w", err)
	}
	s.log.Info("email sent", zap.String("to", m.To), zap.String("message_id", aws.ToString(out.MessageId)))
	return nil
}

type noopMailer struct{ log *zap.Logger }

func (n *noopMailer) Send(_ context.Context, m Message) error {
	n.log.Debug("email not sent (noop)", zap.String("to", m.To), zap.String("subject", m.Subject))
	return nil
}
