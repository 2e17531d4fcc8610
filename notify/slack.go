package notify

import (
	"context"
	"net/http"
	"strings"

	"github.com/slack-go/slack"

	"github.com/goliatone/go-watcher/core"
)

// SlackPoster is the subset of the slack client used for delivery.
type SlackPoster interface {
	PostMessageContext(ctx context.Context, channelID string, options ...slack.MsgOption) (string, string, error)
}

type SlackConfig struct {
	BotToken   string
	ChannelID  string
	APIURL     string
	HTTPClient *http.Client
}

// SlackNotifier posts alerts with chat.postMessage using a bot token.
type SlackNotifier struct {
	client    SlackPoster
	channelID string
}

func NewSlackNotifier(cfg SlackConfig) (*SlackNotifier, error) {
	token := strings.TrimSpace(cfg.BotToken)
	if token == "" {
		return nil, core.InternalError("notify: slack bot token is required", nil)
	}
	opts := make([]slack.Option, 0, 2)
	if apiURL := strings.TrimSpace(cfg.APIURL); apiURL != "" {
		if !strings.HasSuffix(apiURL, "/") {
			apiURL += "/"
		}
		opts = append(opts, slack.OptionAPIURL(apiURL))
	}
	if cfg.HTTPClient != nil {
		opts = append(opts, slack.OptionHTTPClient(cfg.HTTPClient))
	}
	return NewSlackNotifierWithClient(slack.New(token, opts...), cfg.ChannelID)
}

func NewSlackNotifierWithClient(client SlackPoster, channelID string) (*SlackNotifier, error) {
	if client == nil {
		return nil, core.InternalError("notify: slack client is required", nil)
	}
	channelID = strings.TrimSpace(channelID)
	if channelID == "" {
		return nil, core.InternalError("notify: slack channel id is required", nil)
	}
	return &SlackNotifier{client: client, channelID: channelID}, nil
}

func (n *SlackNotifier) Notify(ctx context.Context, msg core.NotificationMessage) error {
	if n == nil || n.client == nil {
		return core.InternalError("notify: slack notifier is not configured", nil)
	}
	_, _, err := n.client.PostMessageContext(ctx, n.channelID, slack.MsgOptionText(msg.Text, false))
	if err != nil {
		return core.DeliveryError(err, "notify: slack post message", map[string]any{
			"channel_id":  n.channelID,
			"result_code": msg.Code,
		})
	}
	return nil
}

var _ core.Notifier = (*SlackNotifier)(nil)
