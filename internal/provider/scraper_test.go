package provider

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"ratebot/internal/config"
	"ratebot/internal/rates"
)

const ratePage = `<table>
<tr><th>Entidad</th><th>Compra</th><th>Venta</th></tr>
<tr><td>Dólar</td><td>$57.50= $0.00</td><td>$60.50= $0.00</td></tr>
</table>`

func TestHTTPFetcher_Fetch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/ok":
			assert.Equal(t, "ratebot-test", r.Header.Get("User-Agent"))
			_, _ = w.Write([]byte(ratePage))
		case "/slow":
			time.Sleep(1500 * time.Millisecond)
			_, _ = w.Write([]byte(ratePage))
		default:
			http.Error(w, "gone", http.StatusNotFound)
		}
	}))
	defer srv.Close()

	f := NewHTTPFetcher(1, "ratebot-test")

	t.Run("ok", func(t *testing.T) {
		body, err := f.Fetch(context.Background(), srv.URL+"/ok")
		require.NoError(t, err)
		assert.Equal(t, ratePage, body)
	})

	t.Run("non-200", func(t *testing.T) {
		_, err := f.Fetch(context.Background(), srv.URL+"/missing")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "status 404")
	})

	t.Run("timeout", func(t *testing.T) {
		_, err := f.Fetch(context.Background(), srv.URL+"/slow")
		assert.Error(t, err)
	})
}

func TestScrapingProvider_GetRates(t *testing.T) {
	logger := zap.NewNop().Sugar()
	source := config.SourceConfig{Name: "Banco Popular", URL: "https://example.com/popular"}

	t.Run("extracts pair", func(t *testing.T) {
		f := new(MockFetcher)
		f.On("Fetch", mock.Anything, source.URL).Return(ratePage, nil)

		pair, err := NewScrapingProvider(f, logger).GetRates(context.Background(), source)
		require.NoError(t, err)
		assert.Equal(t, rates.Pair{Buy: "$57.50", Sell: "$60.50"}, pair)
		f.AssertExpectations(t)
	})

	t.Run("fetch error", func(t *testing.T) {
		f := new(MockFetcher)
		f.On("Fetch", mock.Anything, source.URL).Return("", errors.New("connection reset"))

		_, err := NewScrapingProvider(f, logger).GetRates(context.Background(), source)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "connection reset")
	})

	t.Run("page without table", func(t *testing.T) {
		f := new(MockFetcher)
		f.On("Fetch", mock.Anything, source.URL).Return("<p>sin datos</p>", nil)

		_, err := NewScrapingProvider(f, logger).GetRates(context.Background(), source)
		assert.ErrorIs(t, err, rates.ErrNotFound)
	})

	t.Run("anchored source", func(t *testing.T) {
		anchored := source
		anchored.Anchor = "Compra"
		f := new(MockFetcher)
		f.On("Fetch", mock.Anything, anchored.URL).Return(ratePage, nil)

		pair, err := NewScrapingProvider(f, logger).GetRates(context.Background(), anchored)
		require.NoError(t, err)
		assert.Equal(t, "$57.50", pair.Buy)
	})
}
