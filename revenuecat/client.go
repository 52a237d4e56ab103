// Package revenuecat reads subscriber entitlements from the RevenueCat REST API.
package revenuecat

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

var ErrUnauthorized = errors.New("revenuecat: invalid API key")

// APIError is a non-2xx response other than 401.
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("revenuecat: API error (status %d): %s", e.StatusCode, e.Body)
}

// Entitlement is one entry of subscriber.entitlements. ExpiresDate is nil
// for lifetime purchases.
type Entitlement struct {
	ExpiresDate       *time.Time `json:"expires_date"`
	PurchaseDate      *time.Time `json:"purchase_date"`
	ProductIdentifier string     `json:"product_identifier"`
}

// ActiveAt reports whether the entitlement grants access at t.
func (e Entitlement) ActiveAt(t time.Time) bool {
	return e.ExpiresDate == nil || e.ExpiresDate.After(t)
}

type Subscriber struct {
	OriginalAppUserID string                 `json:"original_app_user_id"`
	FirstSeen         *time.Time             `json:"first_seen"`
	Entitlements      map[string]Entitlement `json:"entitlements"`
}

type subscriberResponse struct {
	Subscriber Subscriber `json:"subscriber"`
}

type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

func NewClient(baseURL, apiKey string, timeout time.Duration) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: timeout},
	}
}

// Subscriber fetches GET /v1/subscribers/{appUserID}.
func (c *Client) Subscriber(ctx context.Context, appUserID string) (*Subscriber, error) {
	endpoint := c.baseURL + "/v1/subscribers/" + url.PathEscape(appUserID)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	switch {
	case resp.StatusCode == http.StatusUnauthorized:
		return nil, ErrUnauthorized
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		return nil, &APIError{StatusCode: resp.StatusCode, Body: string(body)}
	}

	var out subscriberResponse
	if err := json.Unmarshal(body, &out); err != nil {
		return nil, fmt.Errorf("decode subscriber: %w", err)
	}
	if out.Subscriber.Entitlements == nil {
		out.Subscriber.Entitlements = map[string]Entitlement{}
	}
	return &out.Subscriber, nil
}
