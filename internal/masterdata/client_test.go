package masterdata

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joseph-ayodele/policy-extract/internal/entity"
)

func TestNormalizeList(t *testing.T) {
	cases := map[string]struct {
		body string
		want []entity.PolicyCategory
	}{
		"bare list": {`[{"id":1,"category_name":"Motor"}]`, []entity.PolicyCategory{{ID: 1, CategoryName: "Motor"}}},
		"envelope":  {`{"success":true,"data":[{"id":2,"category_name":"Health"}]}`, []entity.PolicyCategory{{ID: 2, CategoryName: "Health"}}},
		"empty":     {"  ", []entity.PolicyCategory{}},
		"null":      {"null", []entity.PolicyCategory{}},
		"failed":    {`{"success":false,"data":[{"id":3}]}`, []entity.PolicyCategory{}},
		"no data":   {`{"success":true}`, []entity.PolicyCategory{}},
		"object":    {`{"success":true,"data":{"id":3}}`, []entity.PolicyCategory{}},
		"scalar":    {`42`, []entity.PolicyCategory{}},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			got, err := normalizeList[entity.PolicyCategory]([]byte(tc.body))
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}

	_, err := normalizeList[entity.PolicyCategory]([]byte("<b>Warning</b>"))
	assert.ErrorIs(t, err, ErrInvalidResponse)
}

func TestLoad_BothEndpoints(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc(CompaniesPath, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"success":true,"data":[{"id":1,"name":"Acme General"},{"id":2,"name":"Star Health"}]}`))
	})
	mux.HandleFunc(CategoriesPath, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`[{"id":7,"category_name":"Motor"}]`))
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	c := NewClient(Config{BaseURL: server.URL + "/"}, nil, nil)
	m, err := c.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []entity.InsuranceCompany{{ID: 1, Name: "Acme General"}, {ID: 2, Name: "Star Health"}}, m.Companies)
	assert.Equal(t, []entity.PolicyCategory{{ID: 7, CategoryName: "Motor"}}, m.Categories)
}

func TestStatusErrors(t *testing.T) {
	cases := map[string]struct {
		body string
		want string
	}{
		"json message": {`{"message":"token expired"}`, "token expired"},
		"php fatal":    {`<b>Fatal error</b>: Uncaught mysqli_sql_exception`, "database error: a required column or table might be missing on the server"},
		"plain":        {`oops`, "server error (500)"},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusInternalServerError)
				_, _ = w.Write([]byte(tc.body))
			}))
			defer server.Close()

			_, err := NewClient(Config{BaseURL: server.URL}, nil, nil).Companies(context.Background())
			var se *StatusError
			require.True(t, errors.As(err, &se))
			assert.Equal(t, http.StatusInternalServerError, se.StatusCode)
			assert.Equal(t, tc.want, se.Message)
		})
	}
}

func TestNetworkError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := server.URL
	server.Close()

	_, err := NewClient(Config{BaseURL: url}, nil, nil).PolicyCategories(context.Background())
	assert.ErrorIs(t, err, ErrNetwork)
}

func TestCache_ServesRepeatCalls(t *testing.T) {
	var hits atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		_, _ = w.Write([]byte(`[{"id":1,"name":"Acme"}]`))
	}))
	defer server.Close()

	c := NewClient(Config{BaseURL: server.URL, CacheTTL: time.Minute}, NewMemoryCache(), nil)
	for i := 0; i < 3; i++ {
		got, err := c.Companies(context.Background())
		require.NoError(t, err)
		assert.Len(t, got, 1)
	}
	assert.Equal(t, int32(1), hits.Load())
}

func TestCache_SkipsInvalidBodies(t *testing.T) {
	var hits atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		_, _ = w.Write([]byte(`<html>maintenance</html>`))
	}))
	defer server.Close()

	c := NewClient(Config{BaseURL: server.URL, CacheTTL: time.Minute}, NewMemoryCache(), nil)
	for i := 0; i < 2; i++ {
		_, err := c.Companies(context.Background())
		assert.ErrorIs(t, err, ErrInvalidResponse)
	}
	assert.Equal(t, int32(2), hits.Load())
}

func TestMemoryCache_Expiry(t *testing.T) {
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	c := NewMemoryCache()
	c.now = func() time.Time { return now }
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "k", []byte("v"), time.Minute))
	got, err := c.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, []byte("v"), got)

	now = now.Add(time.Minute)
	_, err = c.Get(ctx, "k")
	assert.ErrorIs(t, err, ErrCacheMiss)
}
