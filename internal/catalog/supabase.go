package catalog

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/Kurzwaffle/antiques/pkg/httpclient"
)

const productsQuery = "/rest/v1/products?select=*,categories(*),product_images(*),product_materials(*)&order=created_at.desc"

// Doer sends HTTP requests. *httpclient.CircuitBreakerClient satisfies it.
type Doer interface {
	Do(ctx context.Context, req *http.Request) (*http.Response, error)
}

// SupabaseSource reads the catalog from the hosted PostgREST endpoint.
type SupabaseSource struct {
	baseURL string
	apiKey  string
	client  Doer
}

// NewSupabaseSource creates a source for the project at baseURL using the
// public anon key.
func NewSupabaseSource(baseURL, apiKey string, client Doer) *SupabaseSource {
	return &SupabaseSource{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		client:  client,
	}
}

func (s *SupabaseSource) Name() string { return "supabase" }

// Fetch returns every product with its category, images and materials,
// newest first.
func (s *SupabaseSource) Fetch(ctx context.Context) ([]RawRecord, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.baseURL+productsQuery, nil)
	if err != nil {
		return nil, fmt.Errorf("build catalog request: %w", err)
	}
	req.Header.Set("apikey", s.apiKey)
	req.Header.Set("Authorization", "Bearer "+s.apiKey)
	req.Header.Set("Accept", "application/json")

	resp, err := s.client.Do(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("fetch catalog: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, httpclient.ParseResponseError(resp, "catalog")
	}
	defer func() { _ = resp.Body.Close() }()

	records, err := decodeRecords(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("decode catalog response: %w", err)
	}
	return records, nil
}
