package marketdata

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCalendarDate(t *testing.T) {
	cases := map[string]string{
		"2025-09-15":           "2025-09-15",
		"2025-09-15T00:00:00Z": "2025-09-15",
		" 2025-09-15":          "2025-09-15",
		"not a date":           "",
		"":                     "",
	}
	for in, want := range cases {
		assert.Equal(t, want, calendarDate(in), "input %q", in)
	}
}

func TestNumberToFloat(t *testing.T) {
	assert.Equal(t, 0.0, numberToFloat(""))
	assert.Equal(t, 123.45, numberToFloat(json.Number("123.45")))
	assert.Equal(t, 0.0, numberToFloat(json.Number("garbage")))
}

func newTestServer(t *testing.T, handler http.HandlerFunc) (*httptest.Server, *BorsdataClient) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	client := NewBorsdataClient(BorsdataConfig{
		BaseURL: srv.URL,
		APIKey:  "test-key",
		HTTP: HTTPClientConfig{
			RateLimit:         1000,
			MaxRetries:        0,
			CircuitBreakerMax: 100,
		},
		Routing: NewMarketRouting(nil),
	}, nil)
	t.Cleanup(func() { client.Close() })
	return srv, client
}

func TestBorsdataGetPrices(t *testing.T) {
	_, client := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "test-key", r.URL.Query().Get("authKey"))
		switch r.URL.Path {
		case "/v1/instruments":
			json.NewEncoder(w).Encode(map[string]any{
				"instruments": []map[string]any{
					{"insId": 42, "name": "Lundin Gold", "ticker": "LUG"},
				},
			})
		case "/v1/instruments/42/stockprices":
			assert.Equal(t, "2025-09-15", r.URL.Query().Get("from"))
			assert.Equal(t, "2025-09-17", r.URL.Query().Get("to"))
			json.NewEncoder(w).Encode(map[string]any{
				"stockPricesList": []map[string]any{
					{"d": "2025-09-16", "o": 101, "c": 102.5, "h": 103, "l": 100, "v": 5000},
					{"d": "2025-09-15", "o": 100, "c": 101, "h": 102, "l": 99, "v": 4000},
				},
			})
		default:
			t.Fatalf("unexpected path %s", r.URL.Path)
		}
	})

	prices, err := client.GetPrices(context.Background(), "lug", "2025-09-15", "2025-09-17")
	require.NoError(t, err)
	require.Len(t, prices, 2)
	assert.Equal(t, "2025-09-15", prices[0].Date(), "bars must come back oldest first")
	assert.Equal(t, 102.5, prices[1].Close)
	assert.Equal(t, int64(5000), prices[1].Volume)
}

func TestBorsdataUnknownTicker(t *testing.T) {
	_, client := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{"instruments": []map[string]any{}})
	})

	_, err := client.GetPrices(context.Background(), "NOPE", "2025-09-15", "2025-09-17")
	require.Error(t, err)
}

func TestBorsdataInsiderTradesSignsShares(t *testing.T) {
	_, client := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/v1/instruments":
			json.NewEncoder(w).Encode(map[string]any{
				"instruments": []map[string]any{{"insId": 7, "ticker": "TTWO"}},
			})
		case "/v1/holdings/insider":
			json.NewEncoder(w).Encode(map[string]any{
				"list": []map[string]any{{
					"insId": 7,
					"values": []map[string]any{
						{"ownerName": "J Smith", "shares": 500, "transactionType": 0, "transactionDate": "2025-09-16T00:00:00"},
						{"ownerName": "A Jones", "shares": 200, "transactionType": 2, "transactionDate": "2025-09-17T00:00:00"},
						{"ownerName": "Late", "shares": 100, "transactionType": 0, "transactionDate": "2025-10-01T00:00:00"},
					},
				}},
			})
		default:
			t.Fatalf("unexpected path %s", r.URL.Path)
		}
	})

	trades, err := client.GetInsiderTrades(context.Background(), "TTWO", "2025-09-23", "2025-09-15", 100)
	require.NoError(t, err)
	require.Len(t, trades, 2, "trades outside the window must be dropped")

	byName := map[string]float64{}
	for _, tr := range trades {
		byName[tr.Name] = tr.TransactionShares
	}
	assert.Equal(t, 500.0, byName["J Smith"], "acquisitions keep positive shares")
	assert.Equal(t, -200.0, byName["A Jones"], "disposals flip to negative shares")
}

func TestBorsdataCompanyEventsMergesCalendars(t *testing.T) {
	_, client := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/v1/instruments":
			json.NewEncoder(w).Encode(map[string]any{
				"instruments": []map[string]any{{"insId": 7, "ticker": "TTWO"}},
			})
		case "/v1/instruments/report/calendar":
			json.NewEncoder(w).Encode(map[string]any{
				"list": []map[string]any{{
					"insId":  7,
					"values": []map[string]any{{"releaseDate": "2025-09-18T00:00:00", "reportType": "quarter"}},
				}},
			})
		case "/v1/instruments/dividend/calendar":
			json.NewEncoder(w).Encode(map[string]any{
				"list": []map[string]any{{
					"insId":  7,
					"values": []map[string]any{{"excludingDate": "2025-09-16T00:00:00", "amountPaid": 2.5, "currencyShortName": "SEK"}},
				}},
			})
		default:
			t.Fatalf("unexpected path %s", r.URL.Path)
		}
	})

	events, err := client.GetCompanyEvents(context.Background(), "TTWO", "2025-09-23", "2025-09-15", 100)
	require.NoError(t, err)
	require.Len(t, events, 2)
	assert.Equal(t, "dividend", events[0].Category, "events must come back chronological")
	assert.Equal(t, "report", events[1].Category)
}

func TestBorsdataInstrumentCatalogIsCached(t *testing.T) {
	catalogHits := 0
	_, client := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/v1/instruments":
			catalogHits++
			json.NewEncoder(w).Encode(map[string]any{
				"instruments": []map[string]any{{"insId": 7, "ticker": "TTWO"}},
			})
		case "/v1/instruments/7/stockprices":
			json.NewEncoder(w).Encode(map[string]any{"stockPricesList": []map[string]any{}})
		default:
			t.Fatalf("unexpected path %s", r.URL.Path)
		}
	})

	ctx := context.Background()
	_, err := client.GetPrices(ctx, "TTWO", "2025-09-15", "2025-09-16")
	require.NoError(t, err)
	_, err = client.GetPrices(ctx, "TTWO", "2025-09-16", "2025-09-17")
	require.NoError(t, err)

	assert.Equal(t, 1, catalogHits, "catalog must be fetched once per TTL")
}
