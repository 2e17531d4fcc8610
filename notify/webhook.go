package notify

import (
	"context"
	"strings"
	"time"

	"github.com/goliatone/go-watcher/core"
	"github.com/goliatone/go-watcher/transport"
)

// WebhookNotifier posts {"text": ...} to an incoming webhook URL.
type WebhookNotifier struct {
	adapter *transport.RESTAdapter
	url     string
	timeout time.Duration
}

func NewWebhookNotifier(adapter *transport.RESTAdapter, url string, timeout time.Duration) (*WebhookNotifier, error) {
	url = strings.TrimSpace(url)
	if url == "" {
		return nil, core.InternalError("notify: webhook url is required", nil)
	}
	if adapter == nil {
		adapter = transport.NewRESTAdapter(nil)
	}
	return &WebhookNotifier{adapter: adapter, url: url, timeout: timeout}, nil
}

type webhookPayload struct {
	Text string `json:"text"`
}

func (n *WebhookNotifier) Notify(ctx context.Context, msg core.NotificationMessage) error {
	if n == nil || n.adapter == nil {
		return core.InternalError("notify: webhook notifier is not configured", nil)
	}
	_, err := n.adapter.PostJSON(ctx, n.url, webhookPayload{Text: msg.Text}, n.timeout)
	return err
}

// NewNotifier selects the sender for cfg. A Slack bot token wins over a
// webhook URL.
func NewNotifier(cfg core.NotifyConfig, adapter *transport.RESTAdapter) (core.Notifier, error) {
	if err := cfg.ValidateSender(); err != nil {
		return nil, core.InternalError(err.Error(), nil)
	}
	if cfg.SlackConfigured() {
		return NewSlackNotifier(SlackConfig{
			BotToken:  cfg.SlackBotToken,
			ChannelID: cfg.SlackChannelID,
			APIURL:    cfg.SlackAPIURL,
		})
	}
	return NewWebhookNotifier(adapter, cfg.WebhookURL, cfg.Timeout)
}

var _ core.Notifier = (*WebhookNotifier)(nil)
