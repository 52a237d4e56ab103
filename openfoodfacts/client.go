// Package openfoodfacts is a small client for the Open Food Facts public API.
package openfoodfacts

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/FloFRCD/nutrition-app-sub001/nutrition"
)

var ErrNotFound = errors.New("openfoodfacts: product not found")

// StatusError is returned for any non-2xx response.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("openfoodfacts: status %d: %s", e.StatusCode, e.Body)
}

// Float decodes numbers that the API sometimes sends as strings or empty strings.
type Float float64

func (f *Float) UnmarshalJSON(b []byte) error {
	s := strings.Trim(strings.TrimSpace(string(b)), `"`)
	if s == "" || s == "null" {
		*f = 0
		return nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		// unparseable values count as missing
		*f = 0
		return nil
	}
	*f = Float(v)
	return nil
}

type Nutriments struct {
	EnergyKcal100g    Float `json:"energy-kcal_100g"`
	Proteins100g      Float `json:"proteins_100g"`
	Carbohydrates100g Float `json:"carbohydrates_100g"`
	Fat100g           Float `json:"fat_100g"`
	Fiber100g         Float `json:"fiber_100g"`
}

type Product struct {
	Code        string     `json:"code"`
	ProductName string     `json:"product_name"`
	Brands      string     `json:"brands"`
	Nutriments  Nutriments `json:"nutriments"`
}

// Brand returns the first brand of the comma separated brands field.
func (p Product) Brand() string {
	first, _, _ := strings.Cut(p.Brands, ",")
	return strings.TrimSpace(first)
}

// Nutrients returns the per-100 g values.
func (p Product) Nutrients() nutrition.Nutrients {
	n := p.Nutriments
	return nutrition.Nutrients{
		Calories: float64(n.EnergyKcal100g),
		Protein:  float64(n.Proteins100g),
		Carbs:    float64(n.Carbohydrates100g),
		Fat:      float64(n.Fat100g),
		Fiber:    float64(n.Fiber100g),
	}
}

type Client struct {
	baseURL   string
	userAgent string
	client    *http.Client
}

func NewClient(baseURL, userAgent string, timeout time.Duration) *Client {
	return &Client{
		baseURL:   strings.TrimRight(baseURL, "/"),
		userAgent: userAgent,
		client:    &http.Client{Timeout: timeout},
	}
}

func (c *Client) get(ctx context.Context, rawURL string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return ErrNotFound
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return &StatusError{StatusCode: resp.StatusCode, Body: string(body)}
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

// Search runs a full-text product search.
func (c *Client) Search(ctx context.Context, query string, pageSize int) ([]Product, error) {
	q := url.Values{}
	q.Set("search_terms", query)
	q.Set("search_simple", "1")
	q.Set("action", "process")
	q.Set("json", "1")
	if pageSize > 0 {
		q.Set("page_size", strconv.Itoa(pageSize))
	}

	var result struct {
		Products []Product `json:"products"`
	}
	if err := c.get(ctx, c.baseURL+"/cgi/search.pl?"+q.Encode(), &result); err != nil {
		return nil, err
	}
	return result.Products, nil
}

// Product looks a product up by barcode.
func (c *Client) Product(ctx context.Context, barcode string) (*Product, error) {
	var result struct {
		Status  int     `json:"status"`
		Product Product `json:"product"`
	}
	if err := c.get(ctx, c.baseURL+"/api/v2/product/"+url.PathEscape(barcode)+".json", &result); err != nil {
		return nil, err
	}
	if result.Status != 1 {
		return nil, ErrNotFound
	}
	if result.Product.Code == "" {
		result.Product.Code = barcode
	}
	return &result.Product, nil
}
