package delivery

import (
	"context"

	"github.com/jameshorton2486/kollect-it-sub006/internal/render"
	"github.com/slack-go/slack"
)

// SlackGateway posts report summaries to Slack. Recipients are channel IDs.
type SlackGateway struct {
	client *slack.Client
}

func NewSlackGateway(token string) *SlackGateway {
	return &SlackGateway{client: slack.New(token)}
}

func (g *SlackGateway) Deliver(ctx context.Context, content *render.Content, recipients []string) ([]RecipientResult, error) {
	attachment := slack.Attachment{
		Color: "#36a64f",
		Title: content.Subject,
		Text:  "Scheduled report is ready.",
	}

	results := make([]RecipientResult, 0, len(recipients))
	for _, channel := range recipients {
		if err := ctx.Err(); err != nil {
			return results, err
		}

		_, _, err := g.client.PostMessageContext(ctx, channel,
			slack.MsgOptionAttachments(attachment),
		)
		if err != nil {
			results = append(results, RecipientResult{Recipient: channel, Error: err.Error()})
			continue
		}
		results = append(results, RecipientResult{Recipient: channel, OK: true})
	}
	return results, nil
}
