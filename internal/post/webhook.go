package post

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
)

// ToWebhook posts the message as JSON to the channel, which is expected
// to be the webhook URL itself. Discord-compatible payload shape.
func ToWebhook(client *http.Client) SinkFn {
	if client == nil {
		client = http.DefaultClient
	}
	return func(ctx context.Context, channel, message string) error {
		u, err := url.ParseRequestURI(channel)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") {
			return fmt.Errorf("invalid webhook channel %q", channel)
		}

		payload, err := json.Marshal(map[string]string{"content": message})
		if err != nil {
			return fmt.Errorf("unable to marshal webhook payload: %w", err)
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodPost, channel, bytes.NewReader(payload))
		if err != nil {
			return fmt.Errorf("new request: %w", err)
		}
		req.Header.Set("Content-Type", "application/json")

		res, err := client.Do(req)
		if err != nil {
			return fmt.Errorf("do request: %w", err)
		}
		defer res.Body.Close()

		if res.StatusCode < http.StatusOK || res.StatusCode >= http.StatusMultipleChoices {
			return fmt.Errorf("webhook error: %s", res.Status)
		}
		return nil
	}
}

// ToWebhookURL posts to a fixed webhook URL regardless of the stored
// channel, for deployments where the URL comes from the config file.
func ToWebhookURL(client *http.Client, url string) SinkFn {
	send := ToWebhook(client)
	return func(ctx context.Context, _, message string) error {
		return send(ctx, url, message)
	}
}
