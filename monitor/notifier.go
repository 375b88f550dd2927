package monitor

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/slack-go/slack"
)

// Alert is raised when interest moves by at least the threshold
type Alert struct {
	Keyword   string
	Location  string
	Baseline  int
	Current   int
	ChangePct float64
	Threshold float64
	Timestamp time.Time
}

type Notifier interface {
	Name() string
	Notify(ctx context.Context, alert Alert) error
}

// SlackNotifier posts alerts to a Slack incoming webhook
type SlackNotifier struct {
	WebhookURL string
	Channel    string
}

func (n *SlackNotifier) Name() string { return "slack" }

func (n *SlackNotifier) Notify(ctx context.Context, a Alert) error {
	color := "good"
	if a.ChangePct < 0 {
		color = "danger"
	}

	msg := &slack.WebhookMessage{
		Channel: n.Channel,
		Text:    fmt.Sprintf("Trend alert: %s", a.Keyword),
		Attachments: []slack.Attachment{{
			Color: color,
			Title: fmt.Sprintf("%s (%s)", a.Keyword, a.Location),
			Fields: []slack.AttachmentField{
				{Title: "Current interest", Value: fmt.Sprintf("%d", a.Current), Short: true},
				{Title: "Change", Value: fmt.Sprintf("%.2f%%", a.ChangePct), Short: true},
				{Title: "Threshold", Value: fmt.Sprintf("%.0f%%", a.Threshold), Short: true},
			},
			Ts: json.Number(fmt.Sprintf("%d", a.Timestamp.Unix())),
		}},
	}
	if err := slack.PostWebhookContext(ctx, n.WebhookURL, msg); err != nil {
		return fmt.Errorf("slack webhook: %w", err)
	}
	return nil
}

// WebhookNotifier posts alerts as JSON to an arbitrary endpoint
type WebhookNotifier struct {
	URL     string
	Headers map[string]string
	Client  *http.Client
}

type webhookPayload struct {
	Keyword          string    `json:"keyword"`
	Location         string    `json:"location"`
	CurrentValue     int       `json:"current_value"`
	BaselineValue    int       `json:"baseline_value"`
	ChangePercentage float64   `json:"change_percentage"`
	AlertType        string    `json:"alert_type"`
	Timestamp        time.Time `json:"timestamp"`
}

func (n *WebhookNotifier) Name() string { return "webhook" }

func (n *WebhookNotifier) Notify(ctx context.Context, a Alert) error {
	body, err := json.Marshal(webhookPayload{
		Keyword:          a.Keyword,
		Location:         a.Location,
		CurrentValue:     a.Current,
		BaselineValue:    a.Baseline,
		ChangePercentage: a.ChangePct,
		AlertType:        "trend_change",
		Timestamp:        a.Timestamp,
	})
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.URL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("webhook request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	for k, v := range n.Headers {
		req.Header.Set(k, v)
	}

	client := n.Client
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}
	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("webhook post: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("webhook returned status %d", resp.StatusCode)
	}
	return nil
}

// Notifiers builds the enabled notifiers of cfg
func Notifiers(cfg Notifications) []Notifier {
	var out []Notifier
	if cfg.Slack.Enabled {
		out = append(out, &SlackNotifier{WebhookURL: cfg.Slack.WebhookURL, Channel: cfg.Slack.Channel})
	}
	if cfg.Webhook.Enabled {
		out = append(out, &WebhookNotifier{URL: cfg.Webhook.URL, Headers: cfg.Webhook.Headers})
	}
	return out
}
