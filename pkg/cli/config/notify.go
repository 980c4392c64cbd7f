package config

import (
	"log/slog"

	"github.com/hairlab/stylist/pkg/service/notify"
	"github.com/m-mizutani/goerr/v2"
	"github.com/urfave/cli/v3"
)

// Notify configures the Slack webhook that announces accepted recommendations
type Notify struct {
	webhookURL string
	channel    string
}

func (x *Notify) Flags() []cli.Flag {
	category := "Notification"
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "slack-webhook-url",
			Usage:       "Slack incoming webhook URL for accepted recommendations",
			Category:    category,
			Sources:     cli.EnvVars("STYLIST_SLACK_WEBHOOK_URL"),
			Destination: &x.webhookURL,
		},
		&cli.StringFlag{
			Name:        "slack-channel",
			Usage:       "Channel override for the webhook",
			Category:    category,
			Sources:     cli.EnvVars("STYLIST_SLACK_CHANNEL"),
			Destination: &x.channel,
		},
	}
}

func (x Notify) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Bool("enabled", x.webhookURL != ""),
		slog.String("channel", x.channel),
	)
}

// Configure returns nil when no webhook is set
func (x *Notify) Configure() (*notify.SlackWebhook, error) {
	if x.webhookURL == "" {
		return nil, nil
	}

	n, err := notify.NewSlackWebhook(x.webhookURL, notify.WithChannel(x.channel))
	if err != nil {
		return nil, goerr.Wrap(err, "failed to configure Slack notification")
	}
	return n, nil
}
