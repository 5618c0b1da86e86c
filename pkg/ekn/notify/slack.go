// Package notify wires the Runner's retry-exhausted callback (pkg/ekn/runner's
// WithNotifier) to an outbound Slack alert, the one failure surface the spec
// names outside the pipeline itself (spec.md §7: "the operator must learn a
// run has stopped advancing without polling for it").
package notify

import (
	"context"
	"fmt"

	"github.com/go-logr/logr"
	"github.com/slack-go/slack"

	"github.com/enliterator/enliterator/pkg/ekn/runner"
	"github.com/enliterator/enliterator/pkg/ekn/services"
)

// SlackNotifier posts one message per exhausted-retry run transition to a
// configured incoming webhook. It never blocks the caller on Slack being
// down: the breaker (same shape as services.Breaker) degrades a persistently
// failing webhook to a fast no-op rather than piling up goroutines behind a
// slow HTTP call triggered from inside the Runner's locked Advance path.
type SlackNotifier struct {
	webhookURL string
	channel    string
	breaker    *services.Breaker
	log        logr.Logger
	post       func(url string, msg *slack.WebhookMessage) error
}

// NewSlackNotifier constructs a notifier posting to webhookURL. An empty
// webhookURL yields a notifier whose Notify is a no-op, so wiring it
// unconditionally in cmd/enliterator is safe even when the operator has not
// configured Slack.
func NewSlackNotifier(webhookURL, channel string, log logr.Logger) *SlackNotifier {
	return &SlackNotifier{
		webhookURL: webhookURL,
		channel:    channel,
		breaker:    services.NewBreaker("slack-notify"),
		log:        log,
		post:       slack.PostWebhook,
	}
}

// Notify satisfies the func(run *runner.PipelineRun, err error) shape
// runner.WithNotifier expects.
func (n *SlackNotifier) Notify(run *runner.PipelineRun, err error) {
	if n.webhookURL == "" {
		return
	}

	msg := &slack.WebhookMessage{
		Channel: n.channel,
		Attachments: []slack.Attachment{
			{
				Color: "danger",
				Title: fmt.Sprintf("pipeline run %d stalled at stage %s", run.ID, run.CurrentStage),
				Text:  fmt.Sprintf("batch %d, retries exhausted after %d attempts: %v", run.BatchID, run.RetryCount, err),
				Fields: []slack.AttachmentField{
					{Title: "State", Value: string(run.State), Short: true},
					{Title: "Stage", Value: run.CurrentStage.String(), Short: true},
				},
			},
		},
	}

	_, breakerErr := n.breaker.Do(context.Background(), func(ctx context.Context) (any, error) {
		return nil, n.post(n.webhookURL, msg)
	})
	if breakerErr != nil {
		n.log.Error(breakerErr, "failed to post Slack failure notification", "runID", run.ID, "batchID", run.BatchID)
	}
}
