// Package catalog implements the read-only client for the remote event
// source, a public REST API whose product records are remapped into
// events.
package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/eventexplorer/eventexplorer-go/internal/model"
)

// DefaultBrand is substituted when the upstream record carries no brand.
const DefaultBrand = "Event Organizer"

// ErrEmptyEventID is returned before any network call when the requested
// event id is empty.
var ErrEmptyEventID = errors.New("event id is required")

// NetworkError reports a non-2xx response from the event source.
// The source is never retried automatically.
type NetworkError struct {
	StatusCode int
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("event source responded with status %d", e.StatusCode)
}

// Client fetches events from the remote event source.
type Client struct {
	baseURL string
	http    *http.Client
	now     func() time.Time
}

// NewClient creates a catalog client for the given base URL.
func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: baseURL,
		http:    &http.Client{Timeout: 10 * time.Second},
		now:     time.Now,
	}
}

// product mirrors the upstream record shape. Only the fields the mapping
// needs are decoded.
type product struct {
	ID          int     `json:"id"`
	Title       string  `json:"title"`
	Description string  `json:"description"`
	Thumbnail   string  `json:"thumbnail"`
	Category    string  `json:"category"`
	Brand       string  `json:"brand"`
	Price       float64 `json:"price"`
}

type productList struct {
	Products []product `json:"products"`
}

// mapProduct is the single total mapping from an upstream product to an
// Event. Every Event field is either copied verbatim or given an
// explicit default; CreatedAt is client-generated and not authoritative.
func mapProduct(p product, now time.Time) model.Event {
	brand := p.Brand
	if brand == "" {
		brand = DefaultBrand
	}
	return model.Event{
		ID:          p.ID,
		Title:       p.Title,
		Description: p.Description,
		Thumbnail:   p.Thumbnail,
		Category:    p.Category,
		Brand:       brand,
		CreatedAt:   now,
		Price:       p.Price,
	}
}

// ListEvents fetches all events from the source.
func (c *Client) ListEvents(ctx context.Context) ([]model.Event, error) {
	var list productList
	if err := c.getJSON(ctx, c.baseURL+"/products", &list); err != nil {
		return nil, err
	}

	now := c.now()
	events := make([]model.Event, len(list.Products))
	for i, p := range list.Products {
		events[i] = mapProduct(p, now)
	}
	return events, nil
}

// GetEvent fetches a single event by id. An empty id short-circuits with
// ErrEmptyEventID and issues no network call.
func (c *Client) GetEvent(ctx context.Context, id string) (model.Event, error) {
	if id == "" {
		return model.Event{}, ErrEmptyEventID
	}

	var p product
	if err := c.getJSON(ctx, c.baseURL+"/products/"+id, &p); err != nil {
		return model.Event{}, err
	}
	return mapProduct(p, c.now()), nil
}

func (c *Client) getJSON(ctx context.Context, url string, v any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &NetworkError{StatusCode: resp.StatusCode}
	}

	return json.NewDecoder(resp.Body).Decode(v)
}
