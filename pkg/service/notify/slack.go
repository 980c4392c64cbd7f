package notify

import (
	"context"
	"fmt"

	"github.com/hairlab/stylist/pkg/domain/interfaces"
	"github.com/hairlab/stylist/pkg/domain/model"
	"github.com/m-mizutani/goerr/v2"
	"github.com/slack-go/slack"
)

// SlackWebhook posts accepted recommendations to a Slack incoming webhook
type SlackWebhook struct {
	webhookURL string
	channel    string
}

var _ interfaces.Notifier = (*SlackWebhook)(nil)

type Option func(*SlackWebhook)

// WithChannel overrides the webhook's default channel
func WithChannel(channel string) Option {
	return func(s *SlackWebhook) {
		s.channel = channel
	}
}

func NewSlackWebhook(webhookURL string, opts ...Option) (*SlackWebhook, error) {
	if webhookURL == "" {
		return nil, goerr.New("slack webhook URL is required")
	}

	s := &SlackWebhook{webhookURL: webhookURL}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

func (s *SlackWebhook) NotifyAccepted(ctx context.Context, rec *model.Recommendation) error {
	msg := buildAcceptedMessage(rec)
	msg.Channel = s.channel

	if err := slack.PostWebhookContext(ctx, s.webhookURL, msg); err != nil {
		return goerr.Wrap(err, "failed to post slack webhook",
			goerr.V(model.RecordIDKey, rec.RecordID))
	}
	return nil
}

func buildAcceptedMessage(rec *model.Recommendation) *slack.WebhookMessage {
	summary := fmt.Sprintf("A client accepted *%s* (confidence %.0f%%)", rec.StyleName, rec.Confidence.Float64()*100)

	blocks := []slack.Block{
		slack.NewSectionBlock(slack.NewTextBlockObject(slack.MarkdownType, summary, false, false), nil, nil),
	}
	if rec.Description != "" {
		blocks = append(blocks, slack.NewSectionBlock(
			slack.NewTextBlockObject(slack.PlainTextType, rec.Description, false, false), nil, nil))
	}

	fields := []*slack.TextBlockObject{
		slack.NewTextBlockObject(slack.MarkdownType, "*Record*\n"+string(rec.RecordID), false, false),
	}
	if len(rec.Products) > 0 {
		list := ""
		for _, p := range rec.Products {
			list += "\n• " + p
		}
		fields = append(fields, slack.NewTextBlockObject(slack.MarkdownType, "*Products*"+list, false, false))
	}
	blocks = append(blocks, slack.NewSectionBlock(nil, fields, nil))

	return &slack.WebhookMessage{
		Text: summary,
		Blocks: &slack.Blocks{
			BlockSet: blocks,
		},
	}
}
