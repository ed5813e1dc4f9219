// Package catalog is the engine's view of the property/project catalog.
// The catalog itself is an external service; the engine only needs enough
// metadata to derive a deal's type at creation time.
package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// PropertyInfo is the slice of catalog metadata the engine consumes.
type PropertyInfo struct {
	ID             uint    `json:"id"`
	Title          string  `json:"title"`
	Location       string  `json:"location"`
	Price          float64 `json:"price"`
	ListingAgentID uint    `json:"listingAgentId"`
	Marketplace    bool    `json:"marketplace"` // listed on the shared marketplace
}

type ProjectInfo struct {
	ID          uint   `json:"id"`
	Title       string `json:"title"`
	Location    string `json:"location"`
	DeveloperID uint   `json:"developerId"`
}

type Catalog interface {
	Property(ctx context.Context, id uint) (*PropertyInfo, error)
	Project(ctx context.Context, id uint) (*ProjectInfo, error)
}

// HTTPClient talks to the catalog service over JSON/HTTP.
type HTTPClient struct {
	BaseURL string
	Client  *http.Client
}

func NewHTTPClient(baseURL string) *HTTPClient {
	return &HTTPClient{BaseURL: baseURL, Client: &http.Client{Timeout: 5 * time.Second}}
}

func (c *HTTPClient) Property(ctx context.Context, id uint) (*PropertyInfo, error) {
	var info PropertyInfo
	if err := c.get(ctx, fmt.Sprintf("%s/properties/%d", c.BaseURL, id), &info); err != nil {
		return nil, err
	}
	return &info, nil
}

func (c *HTTPClient) Project(ctx context.Context, id uint) (*ProjectInfo, error) {
	var info ProjectInfo
	if err := c.get(ctx, fmt.Sprintf("%s/projects/%d", c.BaseURL, id), &info); err != nil {
		return nil, err
	}
	return &info, nil
}

func (c *HTTPClient) get(ctx context.Context, url string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}
	resp, err := c.Client.Do(req)
	if err != nil {
		return fmt.Errorf("catalog unavailable: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode == http.StatusNotFound {
		return fmt.Errorf("catalog: %s not found", url)
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("catalog: unexpected status %d", resp.StatusCode)
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

// Static serves catalog lookups from memory. Test double.
type Static struct {
	Properties map[uint]PropertyInfo
	Projects   map[uint]ProjectInfo
}

func (s *Static) Property(_ context.Context, id uint) (*PropertyInfo, error) {
	p, ok := s.Properties[id]
	if !ok {
		return nil, fmt.Errorf("catalog: property %d not found", id)
	}
	return &p, nil
}

func (s *Static) Project(_ context.Context, id uint) (*ProjectInfo, error) {
	p, ok := s.Projects[id]
	if !ok {
		return nil, fmt.Errorf("catalog: project %d not found", id)
	}
	return &p, nil
}
