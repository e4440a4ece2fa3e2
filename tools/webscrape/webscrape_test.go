package webscrape

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/groupmesh/core"
	"github.com/hupe1980/groupmesh/logging"
	"github.com/hupe1980/groupmesh/memory"
)

const articleHTML = `<!doctype html>
<html>
<head><title>Alaska Cruise Guide</title></head>
<body>
  <p>Seven night itineraries leave from Seattle.</p>
  <p>   </p>
  <p>Book early for balcony discounts.</p>
</body>
</html>`

const promoHTML = `<!doctype html>
<html><body>
<table>
  <tr>
    <th>Group ID</th><th>Ship</th><th>Vendor</th><th>Itinerary</th>
    <th>Port</th><th>Nights</th><th>Sail Date</th><th>Amenities</th><th>Price</th>
  </tr>
  <tr>
    <td>G100</td><td>Ocean Star</td><td>SeaTravel</td><td>Western Caribbean</td>
    <td>Miami</td><td>7</td><td>2026-06-14</td><td>Drink package</td><td>$899</td>
  </tr>
  <tr>
    <td>G101</td><td>Polar Wind</td><td>SeaTravel</td><td>Inside Passage</td>
    <td>Seattle</td><td>7</td><td>2026-07-02</td><td>Wifi, tips</td><td>$1199</td>
  </tr>
</table>
</body></html>`

func newToolContext(t *testing.T, memStore core.MemoryStore) *core.ToolContext {
	t.Helper()

	turnCtx := core.NewTurnContext(
		context.Background(),
		"sess1", "chat1",
		core.ParticipantInfo{Name: "Researcher", Kind: "model"},
		core.NewSession("sess1"),
		nil, nil, memStore,
		logging.NewNoOpLogger(),
	)

	return core.NewToolContext(turnCtx, "tc_1")
}

func TestScrape(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.NotEmpty(t, r.Header.Get("User-Agent"))
		_, _ = w.Write([]byte(articleHTML))
	}))
	defer srv.Close()

	s := New()

	page, err := s.Scrape(context.Background(), srv.URL)
	require.NoError(t, err)
	assert.Equal(t, "Alaska Cruise Guide", page.Title)
	assert.Equal(t, []string{
		"Seven night itineraries leave from Seattle.",
		"Book early for balcony discounts.",
	}, page.Paragraphs)
}

func TestScrapeParagraphCap(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(articleHTML))
	}))
	defer srv.Close()

	s := New(func(o *Options) { o.MaxParagraphs = 1 })

	page, err := s.Scrape(context.Background(), srv.URL)
	require.NoError(t, err)
	assert.Len(t, page.Paragraphs, 1)
}

func TestScrapePromoTable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(promoHTML))
	}))
	defer srv.Close()

	s := New()

	listings, err := s.ScrapePromoTable(context.Background(), srv.URL)
	require.NoError(t, err)
	require.Len(t, listings, 2)

	assert.Equal(t, PromoListing{
		GroupID:   "G100",
		Ship:      "Ocean Star",
		Vendor:    "SeaTravel",
		Itinerary: "Western Caribbean",
		Port:      "Miami",
		Nights:    "7",
		SailDate:  "2026-06-14",
		Amenities: "Drink package",
		Price:     "$899",
	}, listings[0])
	assert.Equal(t, "G101", listings[1].GroupID)
}

func TestScrapePromoTableIgnoresUnrelatedTables(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`<html><body><table><tr><th>Name</th></tr><tr><td>x</td></tr></table></body></html>`))
	}))
	defer srv.Close()

	s := New()

	listings, err := s.ScrapePromoTable(context.Background(), srv.URL)
	require.NoError(t, err)
	assert.Empty(t, listings)
}

func TestScrapeToolStoresResearchNote(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(articleHTML))
	}))
	defer srv.Close()

	memStore := memory.NewInMemoryStore()
	s := New()

	result, err := s.ScrapeTool().Call(newToolContext(t, memStore), map[string]any{"url": srv.URL})
	require.NoError(t, err)

	page, ok := result.(Page)
	require.True(t, ok)
	assert.Equal(t, "Alaska Cruise Guide", page.Title)

	hits, err := memStore.Search("sess1", "balcony", 5)
	require.NoError(t, err)
	require.NotEmpty(t, hits)
}

func TestScrapeToolSwallowsFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	s := New()

	result, err := s.ScrapeTool().Call(newToolContext(t, nil), map[string]any{"url": srv.URL})
	require.NoError(t, err)
	assert.Equal(t, Page{}, result)
}
