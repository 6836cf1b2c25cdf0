package api

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/Checker-Finance/basedata-adapter/internal/basedata"
	"github.com/Checker-Finance/basedata-adapter/internal/store"
	"github.com/Checker-Finance/basedata-adapter/pkg/model"
)

// --- Mock Service ---

type mockService struct {
	extractFn func(ctx context.Context, req basedata.Request) (*model.InstrumentRecord, error)
	calls     atomic.Int32
}

func (m *mockService) ExtractInstrument(ctx context.Context, req basedata.Request) (*model.InstrumentRecord, error) {
	m.calls.Add(1)
	if m.extractFn != nil {
		return m.extractFn(ctx, req)
	}
	return nil, fmt.Errorf("not implemented")
}

// --- Test Helpers ---

func newTestApp(svc InstrumentService, cache store.RecordCache) *fiber.App {
	app := fiber.New()
	handler := NewBaseDataHandler(zap.NewNop(), svc, cache)
	RegisterRoutes(app, cache, handler)
	return app
}

func newTestCache(t *testing.T) (*store.RedisStore, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	cache, err := store.NewRedis(mr.Addr(), 0, "", time.Hour, zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = cache.Close() })
	return cache, mr
}

func siemens() *model.InstrumentRecord {
	isin := "DE0007236101"
	symbol := "SIE"
	lt := "3240541"
	ex := "1929749"
	return &model.InstrumentRecord{
		Name:                            "Siemens",
		PrimaryIdentifier:               "723610",
		SecondaryIdentifier:             &isin,
		Symbol:                          &symbol,
		AssetClass:                      model.AssetClassStock,
		LifeTradingVenues:               map[string]string{"LT Société Générale": "3240541"},
		ExchangeTradingVenues:           map[string]string{"Xetra": "1929749"},
		PreferredLifeTradingVenueID:     &lt,
		PreferredExchangeTradingVenueID: &ex,
	}
}

func doGet(t *testing.T, app *fiber.App, target string, header ...string) (*http.Response, map[string]any) {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, target, nil)
	for i := 0; i+1 < len(header); i += 2 {
		req.Header.Set(header[i], header[i+1])
	}
	resp, err := app.Test(req, -1)
	require.NoError(t, err)

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	_ = resp.Body.Close()

	var body map[string]any
	if len(raw) > 0 {
		require.NoError(t, json.Unmarshal(raw, &body), string(raw))
	}
	return resp, body
}

// --- GetBaseData Tests ---

func TestGetBaseData_Success(t *testing.T) {
	var got basedata.Request
	svc := &mockService{
		extractFn: func(ctx context.Context, req basedata.Request) (*model.InstrumentRecord, error) {
			got = req
			return siemens(), nil
		},
	}
	app := newTestApp(svc, nil)

	resp, body := doGet(t, app, "/api/v1/instruments/723610/basedata")

	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, "Siemens", body["name"])
	assert.Equal(t, "723610", body["primary_identifier"])
	assert.Equal(t, "DE0007236101", body["secondary_identifier"])
	assert.Equal(t, "stock", body["asset_class"])
	assert.Equal(t, "3240541", body["preferred_life_trading_venue_id"])
	assert.Empty(t, resp.Header.Get("X-Cache"))

	assert.Equal(t, "723610", got.Identifier)
	assert.Nil(t, got.AssetClass)
	assert.Empty(t, got.VenueID)
}

func TestGetBaseData_PassesHintAndVenue(t *testing.T) {
	var got basedata.Request
	svc := &mockService{
		extractFn: func(ctx context.Context, req basedata.Request) (*model.InstrumentRecord, error) {
			got = req
			return siemens(), nil
		},
	}
	app := newTestApp(svc, nil)

	resp, _ := doGet(t, app, "/api/v1/instruments/vq1abc/basedata?asset_class=Optionsschein&venue_id=400100")

	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, "VQ1ABC", got.Identifier)
	require.NotNil(t, got.AssetClass)
	assert.Equal(t, model.AssetClassWarrant, *got.AssetClass)
	assert.Equal(t, "400100", got.VenueID)
}

func TestGetBaseData_InvalidRequest(t *testing.T) {
	svc := &mockService{}
	app := newTestApp(svc, nil)

	for _, target := range []string{
		"/api/v1/instruments/123/basedata",
		"/api/v1/instruments/723610/basedata?asset_class=crypto",
		"/api/v1/instruments/723610/basedata?venue_id=12-34",
	} {
		resp, body := doGet(t, app, target)
		assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode, target)
		assert.Equal(t, "invalid_request", body["kind"], target)
		assert.NotEmpty(t, body["error"], target)
	}
	assert.Zero(t, svc.calls.Load())
}

func TestGetBaseData_ErrorMapping(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantKind   string
	}{
		{
			name:       "unresolved asset class",
			err:        &basedata.AssetClassUnresolvedError{URL: "https://www.comdirect.de/inf/search/all.html"},
			wantStatus: fiber.StatusNotFound,
			wantKind:   "asset_class_unresolved",
		},
		{
			name:       "mandatory field missing",
			err:        &basedata.MandatoryFieldMissingError{Identifier: "723610", Field: basedata.FieldName},
			wantStatus: fiber.StatusUnprocessableEntity,
			wantKind:   "mandatory_field_missing",
		},
		{
			name:       "document fetch",
			err:        &basedata.FetchError{Identifier: "723610", URL: "https://www.comdirect.de", Status: 503, Err: fmt.Errorf("unavailable")},
			wantStatus: fiber.StatusBadGateway,
			wantKind:   "document_fetch",
		},
		{
			name:       "invalid request from service",
			err:        fmt.Errorf("%w: identifier is required", basedata.ErrInvalidRequest),
			wantStatus: fiber.StatusBadRequest,
			wantKind:   "invalid_request",
		},
		{
			name:       "deadline",
			err:        context.DeadlineExceeded,
			wantStatus: fiber.StatusGatewayTimeout,
			wantKind:   "timeout",
		},
		{
			name:       "unexpected",
			err:        fmt.Errorf("boom"),
			wantStatus: fiber.StatusInternalServerError,
			wantKind:   "internal",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := &mockService{
				extractFn: func(ctx context.Context, req basedata.Request) (*model.InstrumentRecord, error) {
					return nil, tt.err
				},
			}
			app := newTestApp(svc, nil)

			resp, body := doGet(t, app, "/api/v1/instruments/723610/basedata", "X-Request-ID", "req-42")

			assert.Equal(t, tt.wantStatus, resp.StatusCode)
			assert.Equal(t, tt.wantKind, body["kind"])
			assert.Equal(t, tt.err.Error(), body["error"])
			assert.Equal(t, "req-42", body["request_id"])
		})
	}
}

func TestGetBaseData_CacheMissThenHit(t *testing.T) {
	cache, mr := newTestCache(t)
	svc := &mockService{
		extractFn: func(ctx context.Context, req basedata.Request) (*model.InstrumentRecord, error) {
			return siemens(), nil
		},
	}
	app := newTestApp(svc, cache)

	resp, body := doGet(t, app, "/api/v1/instruments/723610/basedata")
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, "MISS", resp.Header.Get("X-Cache"))
	assert.Equal(t, "Siemens", body["name"])
	assert.True(t, mr.Exists("basedata:record:723610::"))

	resp, body = doGet(t, app, "/api/v1/instruments/723610/basedata")
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, "HIT", resp.Header.Get("X-Cache"))
	assert.Equal(t, "Siemens", body["name"])
	assert.Equal(t, "SIE", body["symbol"])

	assert.Equal(t, int32(1), svc.calls.Load())
}

func TestGetBaseData_CacheKeyIncludesHintAndVenue(t *testing.T) {
	cache, mr := newTestCache(t)
	svc := &mockService{
		extractFn: func(ctx context.Context, req basedata.Request) (*model.InstrumentRecord, error) {
			return siemens(), nil
		},
	}
	app := newTestApp(svc, cache)

	doGet(t, app, "/api/v1/instruments/723610/basedata")
	doGet(t, app, "/api/v1/instruments/723610/basedata?asset_class=aktie&venue_id=9385813")

	assert.True(t, mr.Exists("basedata:record:723610::"))
	assert.True(t, mr.Exists("basedata:record:723610:stock:9385813"))
	assert.Equal(t, int32(2), svc.calls.Load())
}

func TestGetBaseData_ErrorsAreNotCached(t *testing.T) {
	cache, mr := newTestCache(t)
	svc := &mockService{
		extractFn: func(ctx context.Context, req basedata.Request) (*model.InstrumentRecord, error) {
			return nil, &basedata.FetchError{Identifier: req.Identifier, Status: 502, Err: fmt.Errorf("bad gateway")}
		},
	}
	app := newTestApp(svc, cache)

	resp, _ := doGet(t, app, "/api/v1/instruments/723610/basedata")
	assert.Equal(t, fiber.StatusBadGateway, resp.StatusCode)
	assert.Empty(t, mr.Keys())
}

func TestGetBaseData_CacheFailureFallsThrough(t *testing.T) {
	cache, mr := newTestCache(t)
	svc := &mockService{
		extractFn: func(ctx context.Context, req basedata.Request) (*model.InstrumentRecord, error) {
			return siemens(), nil
		},
	}
	app := newTestApp(svc, cache)
	mr.Close()

	resp, body := doGet(t, app, "/api/v1/instruments/723610/basedata")
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, "Siemens", body["name"])
	assert.Equal(t, int32(1), svc.calls.Load())
}

// --- Routes Tests ---

func TestHealth_CacheDisabled(t *testing.T) {
	app := newTestApp(&mockService{}, nil)

	resp, body := doGet(t, app, "/health")
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, "ok", body["status"])
	checks := body["checks"].(map[string]any)
	assert.Equal(t, "disabled", checks["cache"])
}

func TestHealth_CacheUpAndDown(t *testing.T) {
	cache, mr := newTestCache(t)
	app := newTestApp(&mockService{}, cache)

	resp, body := doGet(t, app, "/health")
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, "ok", body["status"])

	mr.Close()
	resp, body = doGet(t, app, "/health")
	assert.Equal(t, fiber.StatusServiceUnavailable, resp.StatusCode)
	assert.Equal(t, "degraded", body["status"])
	checks := body["checks"].(map[string]any)
	assert.Contains(t, checks["cache"], "redis ping failed")
}

func TestRequestID(t *testing.T) {
	app := newTestApp(&mockService{}, nil)

	resp, _ := doGet(t, app, "/health", "X-Request-ID", "abc-123")
	assert.Equal(t, "abc-123", resp.Header.Get("X-Request-ID"))

	resp, _ = doGet(t, app, "/health")
	assert.Len(t, resp.Header.Get("X-Request-ID"), 36)
}

func TestMetricsEndpoint(t *testing.T) {
	cache, _ := newTestCache(t)
	svc := &mockService{
		extractFn: func(ctx context.Context, req basedata.Request) (*model.InstrumentRecord, error) {
			return siemens(), nil
		},
	}
	app := newTestApp(svc, cache)
	doGet(t, app, "/api/v1/instruments/723610/basedata")

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(raw), "go_goroutines")
	assert.Contains(t, string(raw), `basedata_cache_access_total{result="miss"}`)
}
