package shopify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"strconv"
	"strings"
	"time"

	"shopify-variant-reset/internal/model"

	"golang.org/x/time/rate"
)

// Config holds client construction settings.
type Config struct {
	// BaseURL is the Admin REST root, e.g. https://shop.myshopify.com/admin/api/2024-04
	BaseURL string
	Token   string

	// MinGap is the minimum spacing between consecutive outbound calls.
	// Shopify allows 2 requests/second per store; 600ms stays under it.
	MinGap time.Duration

	// MaxRetries bounds attempts on throttled calls.
	MaxRetries int

	// RetryBase is the first backoff interval; it doubles per attempt.
	RetryBase time.Duration

	// HTTPClient overrides the default client (tests).
	HTTPClient *http.Client
}

// Client calls the Shopify Admin REST API with bounded pacing and
// throttle-aware retries. It owns no domain state; both reconcilers share
// one instance per run so the spacing applies store-wide.
type Client struct {
	baseURL    string
	token      string
	http       *http.Client
	limiter    *rate.Limiter
	maxRetries int
	retryBase  time.Duration
}

// NewClient creates a rate-limited Shopify client.
func NewClient(cfg Config) *Client {
	if cfg.MinGap <= 0 {
		cfg.MinGap = 600 * time.Millisecond
	}
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = 5
	}
	if cfg.RetryBase <= 0 {
		cfg.RetryBase = time.Second
	}
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	return &Client{
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		token:      cfg.Token,
		http:       httpClient,
		limiter:    rate.NewLimiter(rate.Every(cfg.MinGap), 1),
		maxRetries: cfg.MaxRetries,
		retryBase:  cfg.RetryBase,
	}
}

// Do executes one API call. Throttled responses are retried with
// exponential backoff (Retry-After honored when present); validation
// rejections and any other failure are returned classified, unretried.
func (c *Client) Do(ctx context.Context, method, path string, payload interface{}) ([]byte, error) {
	var body []byte
	if payload != nil {
		var err error
		body, err = json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("failed to encode request body: %w", err)
		}
	}

	url := c.baseURL + "/" + strings.TrimLeft(path, "/")

	for attempt := 0; attempt < c.maxRetries; attempt++ {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, err
		}

		req, err := http.NewRequestWithContext(ctx, method, url, bytes.NewReader(body))
		if err != nil {
			return nil, err
		}
		req.Header.Set("X-Shopify-Access-Token", c.token)
		req.Header.Set("Content-Type", "application/json")

		resp, err := c.http.Do(req)
		if err != nil {
			return nil, &APIError{Class: ClassTransport, Path: path, Body: []byte(err.Error())}
		}

		respBody, readErr := io.ReadAll(resp.Body)
		resp.Body.Close()
		if readErr != nil {
			return nil, &APIError{Class: ClassTransport, StatusCode: resp.StatusCode, Path: path, Body: []byte(readErr.Error())}
		}

		switch {
		case resp.StatusCode == http.StatusTooManyRequests:
			wait := c.backoff(attempt, resp.Header.Get("Retry-After"))
			log.Printf("[ShopifyClient] Throttled on %s %s (attempt %d/%d), waiting %s",
				method, path, attempt+1, c.maxRetries, wait)
			if err := sleepCtx(ctx, wait); err != nil {
				return nil, err
			}
			continue

		case resp.StatusCode == http.StatusUnprocessableEntity:
			return nil, &APIError{Class: ClassValidation, StatusCode: resp.StatusCode, Path: path, Body: respBody}

		case resp.StatusCode >= 400:
			return nil, &APIError{Class: ClassTransport, StatusCode: resp.StatusCode, Path: path, Body: respBody}
		}

		return respBody, nil
	}

	return nil, &APIError{
		Class:      ClassThrottled,
		StatusCode: http.StatusTooManyRequests,
		Path:       path,
		Body:       []byte(fmt.Sprintf("still throttled after %d attempts", c.maxRetries)),
	}
}

// backoff returns how long to wait after a throttled attempt (0-based).
// A parseable Retry-After header overrides the exponential schedule.
func (c *Client) backoff(attempt int, retryAfter string) time.Duration {
	if retryAfter != "" {
		if secs, err := strconv.ParseFloat(retryAfter, 64); err == nil && secs > 0 {
			return time.Duration(secs * float64(time.Second))
		}
	}
	return c.retryBase << uint(attempt)
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// --- Typed Admin API operations ---

// Variants fetches all variants of a product, in platform order.
func (c *Client) Variants(ctx context.Context, productID int64) ([]model.Variant, error) {
	body, err := c.Do(ctx, http.MethodGet, fmt.Sprintf("products/%d/variants.json", productID), nil)
	if err != nil {
		return nil, err
	}
	var out struct {
		Variants []model.Variant `json:"variants"`
	}
	if err := json.Unmarshal(body, &out); err != nil {
		return nil, fmt.Errorf("failed to decode variants: %w", err)
	}
	return out.Variants, nil
}

// CreateVariant creates a variant under a product and returns the created
// resource, including the platform-assigned inventory_item_id.
func (c *Client) CreateVariant(ctx context.Context, productID int64, v model.Variant) (model.Variant, error) {
	payload := map[string]model.Variant{"variant": v}
	body, err := c.Do(ctx, http.MethodPost, fmt.Sprintf("products/%d/variants.json", productID), payload)
	if err != nil {
		return model.Variant{}, err
	}
	var out struct {
		Variant model.Variant `json:"variant"`
	}
	if err := json.Unmarshal(body, &out); err != nil {
		return model.Variant{}, fmt.Errorf("failed to decode created variant: %w", err)
	}
	return out.Variant, nil
}

// DeleteVariant deletes one variant of a product.
func (c *Client) DeleteVariant(ctx context.Context, productID, variantID int64) error {
	_, err := c.Do(ctx, http.MethodDelete, fmt.Sprintf("products/%d/variants/%d.json", productID, variantID), nil)
	return err
}

// InventoryLevels fetches the current levels held by one inventory item.
func (c *Client) InventoryLevels(ctx context.Context, inventoryItemID int64) ([]model.InventoryLevel, error) {
	body, err := c.Do(ctx, http.MethodGet, fmt.Sprintf("inventory_levels.json?inventory_item_ids=%d", inventoryItemID), nil)
	if err != nil {
		return nil, err
	}
	var out struct {
		InventoryLevels []model.InventoryLevel `json:"inventory_levels"`
	}
	if err := json.Unmarshal(body, &out); err != nil {
		return nil, fmt.Errorf("failed to decode inventory levels: %w", err)
	}
	return out.InventoryLevels, nil
}

// SetInventoryLevel sets the available quantity for an item at a location.
// Setting the same value twice has no further effect.
func (c *Client) SetInventoryLevel(ctx context.Context, inventoryItemID, locationID int64, available int) error {
	payload := map[string]interface{}{
		"location_id":       locationID,
		"inventory_item_id": inventoryItemID,
		"available":         available,
	}
	_, err := c.Do(ctx, http.MethodPost, "inventory_levels/set.json", payload)
	return err
}

// DeleteInventoryLevel removes the level record for an item at a location,
// returning the location to an untracked state for that item.
func (c *Client) DeleteInventoryLevel(ctx context.Context, inventoryItemID, locationID int64) error {
	_, err := c.Do(ctx, http.MethodDelete,
		fmt.Sprintf("inventory_levels.json?inventory_item_id=%d&location_id=%d", inventoryItemID, locationID), nil)
	return err
}

// Locations fetches all locations known to the store.
func (c *Client) Locations(ctx context.Context) ([]model.Location, error) {
	body, err := c.Do(ctx, http.MethodGet, "locations.json", nil)
	if err != nil {
		return nil, err
	}
	var out struct {
		Locations []model.Location `json:"locations"`
	}
	if err := json.Unmarshal(body, &out); err != nil {
		return nil, fmt.Errorf("failed to decode locations: %w", err)
	}
	return out.Locations, nil
}

// LocationIDByName finds a location ID by case-insensitive name match.
func (c *Client) LocationIDByName(ctx context.Context, name string) (int64, error) {
	locations, err := c.Locations(ctx)
	if err != nil {
		return 0, err
	}
	for _, loc := range locations {
		if strings.EqualFold(loc.Name, name) {
			return loc.ID, nil
		}
	}
	return 0, fmt.Errorf("location %q not found", name)
}

// NextLink extracts the next-page URL from a Link response header.
func NextLink(linkHeader string) string {
	if linkHeader == "" {
		return ""
	}
	for _, part := range strings.Split(linkHeader, ",") {
		if strings.Contains(part, `rel="next"`) {
			return strings.Trim(strings.Split(part, ";")[0], "<> ")
		}
	}
	return ""
}
