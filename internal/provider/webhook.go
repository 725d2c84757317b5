package provider

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
)

const defaultWebhookTimeout = 10 * time.Second

type webhookRequest struct {
	To       string `json:"to"`
	Winery   string `json:"winery"`
	BOP      int64  `json:"bopNumber"`
	Customer string `json:"customer"`
	WineKit  string `json:"wineKit"`
	Stage    string `json:"stage"`
	DueDate  string `json:"dueDate"`
	Message  string `json:"message"`
}

// WebhookEmailProvider posts reminder emails to a webhook-style mail
// relay endpoint.
type WebhookEmailProvider struct {
	client   *resty.Client
	endpoint string
}

func NewWebhookEmailProvider(endpoint string) (*WebhookEmailProvider, error) {
	client := resty.New()
	client.SetTimeout(defaultWebhookTimeout)
	client.SetRetryCount(0)

	return NewWebhookEmailProviderWithClient(endpoint, client)
}

func NewWebhookEmailProviderWithClient(endpoint string, client *resty.Client) (*WebhookEmailProvider, error) {
	trimmedEndpoint := strings.TrimSpace(endpoint)
	if trimmedEndpoint == "" {
		return nil, fmt.Errorf("webhook endpoint is required")
	}
	if _, err := url.ParseRequestURI(trimmedEndpoint); err != nil {
		return nil, fmt.Errorf("invalid webhook endpoint: %w", err)
	}
	if client == nil {
		return nil, fmt.Errorf("resty client is required")
	}

	if client.GetClient().Timeout == 0 {
		client.SetTimeout(defaultWebhookTimeout)
	}
	client.SetRetryCount(0)

	return &WebhookEmailProvider{
		client:   client,
		endpoint: trimmedEndpoint,
	}, nil
}

func (p *WebhookEmailProvider) Send(ctx context.Context, email ReminderEmail) (*ProviderResponse, error) {
	if p == nil || p.client == nil {
		return nil, fmt.Errorf("provider is not initialized")
	}
	if err := email.Validate(); err != nil {
		return nil, fmt.Errorf("invalid reminder email: %w", err)
	}

	dueDate := email.DueDate.Format("2006-01-02")
	reqBody := webhookRequest{
		To:       email.To,
		Winery:   email.WineryName,
		BOP:      email.BOPNumber,
		Customer: email.CustomerName,
		WineKit:  email.WineKitName,
		Stage:    email.Stage.DisplayName(),
		DueDate:  dueDate,
		Message: fmt.Sprintf("Batch #%d (%s) is overdue for %s since %s.",
			email.BOPNumber, email.WineKitName, strings.ToLower(email.Stage.DisplayName()), dueDate),
	}

	response, err := p.client.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetBody(reqBody).
		Post(p.endpoint)
	if err != nil {
		return nil, &ProviderError{
			Message:   "provider request failed",
			Transient: !errors.Is(err, context.Canceled),
			Cause:     err,
		}
	}
	if response == nil {
		return nil, &ProviderError{
			Message:   "provider returned empty response",
			Transient: true,
		}
	}

	statusCode := response.StatusCode()
	responseBody := strings.TrimSpace(response.String())

	if statusCode >= http.StatusOK && statusCode < http.StatusMultipleChoices {
		return &ProviderResponse{
			StatusCode: statusCode,
			Body:       responseBody,
			MessageID:  providerMessageID(response),
		}, nil
	}

	return nil, &ProviderError{
		StatusCode: statusCode,
		Message:    providerErrorMessage(statusCode, responseBody),
		Transient:  isTransientHTTPStatus(statusCode),
	}
}

func isTransientHTTPStatus(statusCode int) bool {
	return statusCode == http.StatusTooManyRequests || (statusCode >= http.StatusInternalServerError && statusCode <= 599)
}

func providerErrorMessage(statusCode int, body string) string {
	base := fmt.Sprintf("provider returned status %d", statusCode)
	if body == "" {
		return base
	}
	return fmt.Sprintf("%s: %s", base, body)
}

func providerMessageID(response *resty.Response) string {
	if response == nil {
		return ""
	}

	for _, key := range []string{"X-Request-ID", "X-Request-Id", "X-Correlation-ID", "X-Correlation-Id"} {
		if value := strings.TrimSpace(response.Header().Get(key)); value != "" {
			return value
		}
	}

	return ""
}
