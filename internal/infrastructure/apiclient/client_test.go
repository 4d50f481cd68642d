package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Fiarr4ikDev/DiplomForXenon/internal/domain/catalog"
)

func fastRetry(n int) Option {
	return WithRetryConfig(RetryConfig{MaxRetries: n, RetryDelay: time.Millisecond, MaxDelay: time.Millisecond, Multiplier: 1})
}

func newTestClient(t *testing.T, h http.HandlerFunc, opts ...Option) *Client {
	t.Helper()
	server := httptest.NewServer(h)
	t.Cleanup(server.Close)
	c, err := New(server.URL+"/api", opts...)
	require.NoError(t, err)
	return c
}

func TestNew(t *testing.T) {
	t.Run("valid base url", func(t *testing.T) {
		c, err := New("http://localhost:8080/api/")
		require.NoError(t, err)
		assert.Equal(t, "http://localhost:8080/api", c.BaseURL())
	})

	t.Run("empty base url", func(t *testing.T) {
		_, err := New("")
		assert.Error(t, err)
	})

	t.Run("relative base url", func(t *testing.T) {
		_, err := New("/api")
		assert.Error(t, err)
	})
}

func TestClient_BearerToken(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer secret", r.Header.Get("Authorization"))
		assert.Equal(t, "/api/categories", r.URL.Path)
		_, _ = w.Write([]byte(`[]`))
	}, WithTokenSource(StaticToken("secret")))

	list, err := c.Categories().List(context.Background())
	require.NoError(t, err)
	assert.Empty(t, list)
	assert.NotNil(t, list)
}

func TestClient_RetriesIdempotentOnly(t *testing.T) {
	t.Run("GET retried on 503", func(t *testing.T) {
		var calls int32
		c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			if atomic.AddInt32(&calls, 1) < 3 {
				w.WriteHeader(http.StatusServiceUnavailable)
				return
			}
			_, _ = w.Write([]byte(`5`))
		}, fastRetry(3))

		n, err := c.Parts().Count(context.Background())
		require.NoError(t, err)
		assert.Equal(t, int64(5), n)
		assert.Equal(t, int32(3), atomic.LoadInt32(&calls))
	})

	t.Run("POST not retried", func(t *testing.T) {
		var calls int32
		c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			atomic.AddInt32(&calls, 1)
			w.WriteHeader(http.StatusServiceUnavailable)
		}, fastRetry(3))

		_, err := c.Categories().Create(context.Background(), catalog.CategoryRequest{Name: "x"})
		require.Error(t, err)
		assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
	})

	t.Run("PUT body resent on retry", func(t *testing.T) {
		var calls int32
		c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			body, _ := io.ReadAll(r.Body)
			assert.JSONEq(t, `{"name":"Engine","description":""}`, string(body))
			if atomic.AddInt32(&calls, 1) == 1 {
				w.WriteHeader(http.StatusBadGateway)
				return
			}
			_, _ = w.Write([]byte(`{"categoryId":3,"name":"Engine"}`))
		}, fastRetry(1))

		cat, err := c.Categories().Update(context.Background(), 3, catalog.CategoryRequest{Name: "Engine"})
		require.NoError(t, err)
		assert.Equal(t, int64(3), cat.CategoryID)
	})
}

func TestEntityClient_CRUD(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.Method + " " + r.URL.Path {
		case "GET /api/parts":
			_, _ = w.Write([]byte(`[{"partId":1,"name":"Filter","unitPrice":12.5,"categoryId":2,"supplierId":3}]`))
		case "POST /api/parts":
			var req map[string]any
			assert.NoError(t, json.NewDecoder(r.Body).Decode(&req))
			assert.Equal(t, 99.9, req["unitPrice"])
			w.WriteHeader(http.StatusCreated)
			_, _ = w.Write([]byte(`{"partId":2,"name":"Belt","unitPrice":99.9}`))
		case "DELETE /api/parts/2":
			w.WriteHeader(http.StatusNoContent)
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	})
	ctx := context.Background()

	parts, err := c.Parts().List(ctx)
	require.NoError(t, err)
	require.Len(t, parts, 1)
	assert.True(t, parts[0].UnitPrice.Equal(decimal.RequireFromString("12.5")))

	created, err := c.Parts().Create(ctx, catalog.PartRequest{Name: "Belt", UnitPrice: decimal.RequireFromString("99.9")})
	require.NoError(t, err)
	assert.Equal(t, int64(2), created.PartID)

	require.NoError(t, c.Parts().Delete(ctx, 2))

	_, err = c.Parts().Get(ctx, 42)
	assert.True(t, IsNotFound(err))
}

func TestInventoryClient_Adjust(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/inventory/4/add", r.URL.Path)
		assert.Equal(t, "5", r.URL.Query().Get("quantity"))
		_, _ = w.Write([]byte(`{"id":4,"partId":1,"quantityInStock":15}`))
	})

	rec, err := c.Inventory().Adjust(context.Background(), 4, catalog.AdjustAdd, 5)
	require.NoError(t, err)
	assert.Equal(t, int64(4), rec.InventoryID)
	assert.Equal(t, 15, rec.QuantityInStock)

	_, err = c.Inventory().Adjust(context.Background(), 4, "double", 5)
	assert.Error(t, err)
}

func TestMetricsClient(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/metrics/stock-distribution":
			assert.Equal(t, "5", r.URL.Query().Get("lowThreshold"))
			assert.Equal(t, "20", r.URL.Query().Get("mediumThreshold"))
			_, _ = w.Write([]byte(`[{"stockLevel":"Low","count":2}]`))
		case "/api/metrics/low-stock":
			assert.Equal(t, "5", r.URL.Query().Get("threshold"))
			_, _ = w.Write([]byte(`[{"partName":"Bolt","quantity":1}]`))
		case "/api/metrics/overall":
			_, _ = w.Write([]byte(`{"totalParts":3,"totalValue":100.5,"averagePrice":33.5}`))
		}
	})
	ctx := context.Background()

	dist, err := c.Metrics().StockDistribution(ctx, catalog.Thresholds{Low: 5, Medium: 20})
	require.NoError(t, err)
	assert.Equal(t, []catalog.StockLevelCount{{StockLevel: "Low", Count: 2}}, dist)

	low, err := c.Metrics().LowStock(ctx, 5)
	require.NoError(t, err)
	assert.Equal(t, "Bolt", low[0].PartName)

	overall, err := c.Metrics().Overall(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(3), overall.TotalParts)
}

func TestAuthClient(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/auth/login":
			var creds Credentials
			assert.NoError(t, json.NewDecoder(r.Body).Decode(&creds))
			if creds.Password != "pw" {
				w.WriteHeader(http.StatusUnauthorized)
				_, _ = w.Write([]byte("Неверное имя пользователя или пароль"))
				return
			}
			_, _ = w.Write([]byte(`{"token":"tok","username":"anna"}`))
		case "/api/auth/avatar/7":
			w.Header().Set("Content-Type", "image/png")
			_, _ = w.Write([]byte{0x89, 'P', 'N', 'G'})
		case "/api/auth/avatar/upload":
			f, hdr, err := r.FormFile("avatar")
			if !assert.NoError(t, err) {
				w.WriteHeader(http.StatusBadRequest)
				return
			}
			defer f.Close()
			assert.Equal(t, "me.png", hdr.Filename)
			_, _ = w.Write([]byte(`{"message":"ok"}`))
		}
	})
	ctx := context.Background()

	resp, err := c.Auth().Login(ctx, Credentials{Username: "anna", Password: "pw"})
	require.NoError(t, err)
	assert.Equal(t, "tok", resp.Token)

	_, err = c.Auth().Login(ctx, Credentials{Username: "anna", Password: "bad"})
	require.Error(t, err)
	assert.True(t, IsUnauthorized(err))
	assert.Equal(t, "Неверное имя пользователя или пароль", UserMessage(err))

	avatar, err := c.Auth().Avatar(ctx, 7)
	require.NoError(t, err)
	assert.Equal(t, "image/png", avatar.ContentType)
	assert.Len(t, avatar.Data, 4)

	require.NoError(t, c.Auth().UploadAvatar(ctx, "me.png", bytes.NewReader([]byte("img"))))
}

func TestIsConstraintViolation(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected bool
	}{
		{"500 with marker", &APIError{StatusCode: 500, Body: []byte(`{"message":"ERROR: update or delete on table \"categories\" violates foreign key constraint"}`)}, true},
		{"409 data integrity", &APIError{StatusCode: 409, Message: "DataIntegrityViolationException"}, true},
		{"wrapped", errors.Join(errors.New("ctx"), &APIError{StatusCode: 500, Message: "Foreign Key check failed"}), true},
		{"500 without marker", &APIError{StatusCode: 500, Message: "NullPointerException"}, false},
		{"400 with marker", &APIError{StatusCode: 400, Message: "constraint"}, false},
		{"plain error", errors.New("violates foreign key constraint"), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, IsConstraintViolation(tt.err))
		})
	}
}

func TestExtractMessage(t *testing.T) {
	assert.Equal(t, "Category not found", extractMessage([]byte(`{"status":404,"error":"Not Found","message":"Category not found"}`)))
	assert.Equal(t, "a; b", extractMessage([]byte(`{"status":400,"errors":[{"field":"name","message":"a"},{"field":"x","message":"b"}]}`)))
	assert.Equal(t, "plain text", extractMessage([]byte("plain text")))
	assert.Equal(t, "", extractMessage(nil))
}

