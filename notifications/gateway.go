package notifications

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// httpGateway posts a JSON message to a messaging gateway.
type httpGateway struct {
	client *http.Client
	url    string
	token  string
}

func newHTTPGateway(url, token string) httpGateway {
	return httpGateway{
		client: &http.Client{Timeout: 10 * time.Second},
		url:    url,
		token:  token,
	}
}

func (g httpGateway) post(ctx context.Context, payload interface{}) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.url, bytes.NewReader(data))
	if err != nil {
		return err
	}
	req.Header.Add("Content-Type", "application/json")
	if g.token != "" {
		req.Header.Add("Authorization", "Bearer "+g.token)
	}

	res, err := g.client.Do(req)
	if err != nil {
		return err
	}
	defer res.Body.Close()

	body, err := io.ReadAll(io.LimitReader(res.Body, 4096))
	if err != nil {
		return err
	}
	if res.StatusCode >= http.StatusMultipleChoices {
		return fmt.Errorf("gateway responded %d: %s", res.StatusCode, string(body))
	}
	return nil
}

// WhatsAppSender sends through a WhatsApp HTTP gateway exposing /send/message.
type WhatsAppSender struct {
	gateway httpGateway
}

func NewWhatsAppSender(baseURL string) *WhatsAppSender {
	return &WhatsAppSender{gateway: newHTTPGateway(baseURL+"/send/message", "")}
}

func (s *WhatsAppSender) Send(ctx context.Context, destination, message string) error {
	return s.gateway.post(ctx, map[string]string{
		"phone":   destination,
		"message": message,
	})
}

// SMSSender sends through a token protected SMS HTTP gateway.
type SMSSender struct {
	gateway httpGateway
}

func NewSMSSender(url, token string) *SMSSender {
	return &SMSSender{gateway: newHTTPGateway(url, token)}
}

func (s *SMSSender) Send(ctx context.Context, destination, message string) error {
	return s.gateway.post(ctx, map[string]string{
		"to":   destination,
		"body": message,
	})
}
