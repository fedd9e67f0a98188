package catalog

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/pashagolub/pgxmock/v4"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/Kurzwaffle/antiques/pkg/errors"
	"github.com/Kurzwaffle/antiques/pkg/httpclient"
)

func noRetryClient() *httpclient.Client {
	cfg := httpclient.DefaultConfig()
	cfg.MaxRetries = 0
	return httpclient.New(cfg)
}

// ============================================================================
// Static
// ============================================================================

func TestStaticSource_SeedCatalogNormalizes(t *testing.T) {
	records, err := NewStaticSource().Fetch(context.Background())
	require.NoError(t, err)
	require.Len(t, records, 6)

	for _, rec := range records {
		_, err := Normalize(rec)
		assert.NoError(t, err, "record %v", rec["id"])
	}

	first, err := Normalize(records[0])
	require.NoError(t, err)
	assert.Equal(t, "1", first.ID)
	assert.Equal(t, "Antique Albanian Chest", first.Name)
	assert.True(t, decimal.NewFromInt(2800).Equal(first.Price))
	assert.Len(t, first.Images, 2)
}

func TestStaticSource_BadYAML(t *testing.T) {
	_, err := NewStaticSourceFromYAML([]byte("- id: [unterminated")).Fetch(context.Background())
	assert.Error(t, err)
}

// ============================================================================
// Postgres
// ============================================================================

func TestPostgresSource_Fetch(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	doc := `{"id":"p1","name":"Copper Serving Set","price":980.00,"in_stock":true,
		"categories":{"name":"Copper & Metalwork"},
		"product_images":[{"image_url":"/b.jpg","display_order":2},{"image_url":"/a.jpg","display_order":1}],
		"product_materials":[{"material_name":"Copper"}]}`
	mock.ExpectQuery("SELECT json_build_object").
		WillReturnRows(pgxmock.NewRows([]string{"json_build_object"}).AddRow([]byte(doc)))

	records, err := NewPostgresSource(mock, nil).Fetch(context.Background())
	require.NoError(t, err)
	require.Len(t, records, 1)

	p, err := Normalize(records[0])
	require.NoError(t, err)
	assert.Equal(t, []string{"/a.jpg", "/b.jpg"}, p.Images)
	assert.Equal(t, "Copper & Metalwork", p.Category)
	assert.Equal(t, "980.00", p.Price.StringFixed(2))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresSource_QueryError(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectQuery("SELECT json_build_object").WillReturnError(errors.New("relation does not exist"))

	_, err = NewPostgresSource(mock, nil).Fetch(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "query products")
}

func TestPostgresSource_BadDocument(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectQuery("SELECT json_build_object").
		WillReturnRows(pgxmock.NewRows([]string{"json_build_object"}).AddRow([]byte(`{not json`)))

	_, err = NewPostgresSource(mock, nil).Fetch(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "decode product document")
}

// ============================================================================
// Supabase
// ============================================================================

func TestSupabaseSource_Fetch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/rest/v1/products", r.URL.Path)
		assert.Equal(t, "*,categories(*),product_images(*),product_materials(*)", r.URL.Query().Get("select"))
		assert.Equal(t, "created_at.desc", r.URL.Query().Get("order"))
		assert.Equal(t, "anon", r.Header.Get("apikey"))
		assert.Equal(t, "Bearer anon", r.Header.Get("Authorization"))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[{"id":"x","name":"Decorative Metal Piece","price":1800,
			"product_images":[{"image_url":"/m.jpg","display_order":0}],"product_materials":[],"categories":null}]`))
	}))
	defer srv.Close()

	records, err := NewSupabaseSource(srv.URL+"/", "anon", noRetryClient()).Fetch(context.Background())
	require.NoError(t, err)
	require.Len(t, records, 1)

	p, err := Normalize(records[0])
	require.NoError(t, err)
	assert.Equal(t, "Decorative Metal Piece", p.Name)
	assert.Empty(t, p.Category)
}

func TestSupabaseSource_ErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"message":"Invalid API key"}`))
	}))
	defer srv.Close()

	_, err := NewSupabaseSource(srv.URL, "bad", noRetryClient()).Fetch(context.Background())
	require.Error(t, err)

	var appErr *apperrors.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, http.StatusUnauthorized, appErr.Status)
	assert.Contains(t, appErr.Message, "Invalid API key")
}

func TestSupabaseSource_ThroughBreaker(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	breaker := httpclient.NewCircuitBreakerClient(noRetryClient(),
		httpclient.DefaultCircuitBreakerConfig("catalog"), nil, discardLogger())

	_, err := NewSupabaseSource(srv.URL, "anon", breaker).Fetch(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "fetch catalog")
}
