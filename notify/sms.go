package notify

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/go-resty/resty/v2"
	"golang.org/x/time/rate"
)

// SMSClient sends rendered messages through the configured HTTP gateway.
// Sends are rate limited so a bulk notification burst cannot trip the
// gateway's own throttling.
type SMSClient struct {
	client  *resty.Client
	limiter *rate.Limiter
	token   string
}

// NewSMSClient builds a client for the gateway at baseURL. ratePerSec
// bounds outgoing sends; values <= 0 fall back to one send per second.
func NewSMSClient(baseURL, token string, ratePerSec float64) *SMSClient {
	if ratePerSec <= 0 {
		ratePerSec = 1
	}
	client := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(10 * time.Second).
		SetRetryCount(2).
		SetRetryWaitTime(500 * time.Millisecond)
	return &SMSClient{
		client:  client,
		limiter: rate.NewLimiter(rate.Limit(ratePerSec), 1),
		token:   token,
	}
}

type smsRequest struct {
	To      string `json:"to"`
	Message string `json:"message"`
}

type smsResponse struct {
	Status string `json:"status"`
	Error  string `json:"error"`
}

// Send delivers one message to a phone number. It blocks on the rate
// limiter, so callers should pass a context with a deadline when sending
// from a request handler.
func (s *SMSClient) Send(ctx context.Context, phone, message string) error {
	if phone == "" {
		return fmt.Errorf("send sms: no phone number")
	}
	if err := s.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("send sms: %w", err)
	}

	var result smsResponse
	resp, err := s.client.R().
		SetContext(ctx).
		SetAuthToken(s.token).
		SetBody(smsRequest{To: phone, Message: message}).
		SetResult(&result).
		SetError(&result).
		Post("/messages")
	if err != nil {
		return fmt.Errorf("send sms: %w", err)
	}
	if resp.IsError() {
		if result.Error != "" {
			return fmt.Errorf("send sms: gateway returned %s: %s", resp.Status(), result.Error)
		}
		return fmt.Errorf("send sms: gateway returned %s", resp.Status())
	}

	log.Printf("INFO: SMS sent to %s (%d bytes)", phone, len(message))
	return nil
}
