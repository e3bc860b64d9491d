package httphandler

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/niksmo/producthub/internal/core/browse"
	"github.com/niksmo/producthub/internal/core/domain"
	"github.com/niksmo/producthub/internal/core/port"
)

type memKV struct {
	mu   sync.Mutex
	data map[string][]byte
}

func (kv *memKV) Get(_ context.Context, key string) ([]byte, error) {
	kv.mu.Lock()
	defer kv.mu.Unlock()
	v, ok := kv.data[key]
	if !ok {
		return nil, port.ErrKeyNotFound
	}
	return v, nil
}

func (kv *memKV) Set(_ context.Context, key string, value []byte) error {
	kv.mu.Lock()
	defer kv.mu.Unlock()
	kv.data[key] = value
	return nil
}

type fakeCatalog struct {
	catalog domain.Catalog
	err     error
}

func (c *fakeCatalog) LoadCatalog(context.Context) (domain.Catalog, error) {
	return c.catalog, c.err
}

func (c *fakeCatalog) Product(_ context.Context, id int) (domain.Product, error) {
	if c.err != nil {
		return domain.Product{}, c.err
	}
	for _, p := range c.catalog.Products {
		if p.ID == id {
			return p, nil
		}
	}
	return domain.Product{}, fmt.Errorf("fake: %w", port.ErrProductNotFound)
}

type recTracker struct {
	mu   sync.Mutex
	evts []domain.ClientEvent
}

func (t *recTracker) Track(_ context.Context, evt domain.ClientEvent) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.evts = append(t.evts, evt)
}

func (t *recTracker) kinds() []domain.ClientEventKind {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]domain.ClientEventKind, 0, len(t.evts))
	for _, e := range t.evts {
		out = append(out, e.Kind)
	}
	return out
}

func at(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 10, 0, 0, 0, time.UTC)
}

func fixtureCatalog() domain.Catalog {
	return domain.Catalog{
		Categories: []string{"beauty", "mens-shirts"},
		Products: []domain.Product{
			{
				ID: 1, Title: "Essence Mascara", Category: "beauty", Brand: "Essence",
				Price: 100, DiscountPercentage: 20, Rating: 4.9, Stock: 5,
				Thumbnail: "https://cdn.example/1/t.png",
				Images:    []string{"https://cdn.example/1/a.png", "https://cdn.example/1/b.png"},
				DateAdded: at(2024, time.January, 10),
			},
			{
				ID: 2, Title: "Eyeshadow Palette", Category: "beauty",
				Price: 19.99, Thumbnail: "https://cdn.example/2/t.png",
				DateAdded: at(2024, time.February, 3),
			},
			{
				ID: 3, Title: "Blue Shirt", Category: "mens-shirts",
				Price: 25, Thumbnail: "https://cdn.example/3/t.png",
				DateAdded: at(2024, time.January, 20),
			},
		},
	}
}

type env struct {
	handler http.Handler
	catalog *fakeCatalog
	kv      *memKV
	tracker *recTracker
	cookie  *http.Cookie
}

func newEnv(t *testing.T, c domain.Catalog) *env {
	t.Helper()
	views, err := NewViews()
	require.NoError(t, err)

	e := &env{
		catalog: &fakeCatalog{catalog: c},
		kv:      &memKV{data: make(map[string][]byte)},
		tracker: new(recTracker),
	}
	h := NewHandler(Deps{
		Catalog:  e.catalog,
		Products: e.catalog,
		Tracker:  e.tracker,
		KV:       e.kv,
		Views:    views,
		List: browse.ListConfig{
			PageSize:       2,
			SearchDebounce: 250 * time.Millisecond,
			Location:       time.UTC,
		},
	})
	e.handler = NewRouter(h, RouterConfig{})
	return e
}

// do sends req with the client cookie, keeping the one issued on the
// first response.
func (e *env) do(t *testing.T, req *http.Request) *http.Response {
	t.Helper()
	if e.cookie != nil {
		req.AddCookie(e.cookie)
	}
	rec := httptest.NewRecorder()
	e.handler.ServeHTTP(rec, req)
	resp := rec.Result()
	t.Cleanup(func() { _ = resp.Body.Close() })
	for _, c := range resp.Cookies() {
		if c.Name == ClientCookieName {
			e.cookie = c
		}
	}
	return resp
}

func (e *env) get(t *testing.T, target string) (*http.Response, *goquery.Document) {
	t.Helper()
	resp := e.do(t, httptest.NewRequest(http.MethodGet, target, nil))
	doc, err := goquery.NewDocumentFromReader(resp.Body)
	require.NoError(t, err)
	return resp, doc
}

func (e *env) postForm(t *testing.T, target string, form url.Values) *http.Response {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, target, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return e.do(t, req)
}

func cardIDs(doc *goquery.Document) []string {
	var ids []string
	doc.Find("article.card[data-product-id]").Each(func(_ int, s *goquery.Selection) {
		id, _ := s.Attr("data-product-id")
		ids = append(ids, id)
	})
	return ids
}

func TestListPage(t *testing.T) {
	t.Run("Default", func(t *testing.T) {
		e := newEnv(t, fixtureCatalog())
		resp, doc := e.get(t, "/")

		require.Equal(t, http.StatusOK, resp.StatusCode)
		require.NotNil(t, e.cookie, "client cookie issued")
		assert.True(t, e.cookie.HttpOnly)

		assert.Equal(t, "light", doc.Find("html").AttrOr("class", ""))
		assert.Equal(t, []string{"1", "2"}, cardIDs(doc))
		assert.Zero(t, doc.Find("[data-testid=favorites-badge]").Length())
		assert.Zero(t, doc.Find(".results-bar").Length())
		assert.Equal(t, "Mens Shirts", doc.Find("select[name=category] option[value=mens-shirts]").Text())
		assert.Equal(t, "250", doc.Find("form.filters").AttrOr("data-debounce", ""))

		card := doc.Find("article.card[data-product-id='1']")
		assert.Equal(t, "$100.00", card.Find(".price").Text())
		assert.Equal(t, "$125.00", card.Find(".price-original").Text())
		assert.Equal(t, "Added Jan 10, 2024", card.Find(".card-date").Text())

		assert.Equal(t, 1, doc.Find("template#skeleton-grid").Length())
	})

	t.Run("Filters", func(t *testing.T) {
		e := newEnv(t, fixtureCatalog())
		_, doc := e.get(t, "/?category=beauty&from=2024-01-01&to=2024-01-31")

		assert.Equal(t, []string{"1"}, cardIDs(doc))
		assert.Equal(t, "1 products found", doc.Find(".results-count").Text())
		assert.Equal(t, "/", doc.Find("a.clear-filters").AttrOr("href", ""))
		assert.Equal(t, "2024-01-01", doc.Find("input[name=from]").AttrOr("value", ""))
		_, selected := doc.Find("option[value=beauty]").Attr("selected")
		assert.True(t, selected)
	})

	t.Run("SearchIsTracked", func(t *testing.T) {
		e := newEnv(t, fixtureCatalog())
		_, doc := e.get(t, "/?q=SHIRT")

		assert.Equal(t, []string{"3"}, cardIDs(doc))
		assert.Equal(t, "SHIRT", doc.Find("input[name=q]").AttrOr("value", ""))
		assert.Equal(t, []domain.ClientEventKind{domain.EventSearch}, e.tracker.kinds())
	})

	t.Run("Pagination", func(t *testing.T) {
		e := newEnv(t, fixtureCatalog())
		_, doc := e.get(t, "/?page=2")

		assert.Equal(t, []string{"3"}, cardIDs(doc))
		assert.Equal(t, "2", doc.Find(".page-current").Text())
		assert.Equal(t, "/", doc.Find("a.page-prev").AttrOr("href", ""))
		assert.Equal(t, 1, doc.Find("span.page-next.disabled").Length())

		_, doc = e.get(t, "/?page=99")
		assert.Equal(t, "2", doc.Find(".page-current").Text(), "clamped to last page")
	})

	t.Run("Empty", func(t *testing.T) {
		e := newEnv(t, fixtureCatalog())
		_, doc := e.get(t, "/?q=nothing-matches")
		assert.Empty(t, cardIDs(doc))
		assert.Equal(t, "No products found", doc.Find(".empty").Text())
		assert.Zero(t, doc.Find(".pagination").Length())
	})

	t.Run("LoadFailure", func(t *testing.T) {
		e := newEnv(t, fixtureCatalog())
		e.catalog.err = errors.New("upstream down")
		resp, doc := e.get(t, "/")

		assert.Equal(t, http.StatusBadGateway, resp.StatusCode)
		assert.Equal(t, browse.ListErrorMessage, strings.TrimSpace(doc.Find(".error p").Text()))
		assert.Equal(t, 1, doc.Find("a.retry").Length())
		assert.Empty(t, cardIDs(doc))
	})

	t.Run("InvalidQuery", func(t *testing.T) {
		e := newEnv(t, fixtureCatalog())
		for _, target := range []string{"/?from=01-02-2024", "/?page=abc", "/?category=a/b"} {
			resp := e.do(t, httptest.NewRequest(http.MethodGet, target, nil))
			assert.Equal(t, http.StatusBadRequest, resp.StatusCode, target)
		}
	})
}

func TestFavoritesAndTheme(t *testing.T) {
	e := newEnv(t, fixtureCatalog())
	e.get(t, "/")

	resp := e.postForm(t, "/favorites/1/toggle", url.Values{"return": {"/?page=1"}})
	require.Equal(t, http.StatusSeeOther, resp.StatusCode)
	assert.Equal(t, "/?page=1", resp.Header.Get("Location"))

	_, doc := e.get(t, "/")
	assert.Equal(t, "1", doc.Find("[data-testid=favorites-badge]").Text())
	assert.Equal(t, 1, doc.Find("article.card[data-product-id='1'] button.is-favorite").Length())
	assert.Zero(t, doc.Find("article.card[data-product-id='2'] button.is-favorite").Length())

	resp = e.postForm(t, "/theme/toggle", url.Values{"return": {"https://evil.example/"}})
	require.Equal(t, http.StatusSeeOther, resp.StatusCode)
	assert.Equal(t, "/", resp.Header.Get("Location"))

	_, doc = e.get(t, "/products/1")
	assert.Equal(t, "dark", doc.Find("html").AttrOr("class", ""))
	assert.Equal(t, "1", doc.Find("[data-testid=favorites-badge]").Text())
	assert.Contains(t, doc.Find(".detail .favorite-toggle button").Text(), "Remove from favorites")

	id := e.cookie.Value
	assert.JSONEq(t,
		`{"state":{"favorites":[1]},"version":0}`,
		string(e.kv.data["favorites-storage:"+id]),
	)
	assert.JSONEq(t,
		`{"state":{"theme":"dark"},"version":0}`,
		string(e.kv.data["theme-storage:"+id]),
	)

	assert.Equal(t, []domain.ClientEventKind{
		domain.EventFavoriteToggle, domain.EventThemeChange, domain.EventProductView,
	}, e.tracker.kinds())

	t.Run("OtherClientIsolated", func(t *testing.T) {
		first := e.cookie
		e.cookie = nil
		t.Cleanup(func() { e.cookie = first })

		_, doc := e.get(t, "/")
		require.NotNil(t, e.cookie)
		assert.NotEqual(t, first.Value, e.cookie.Value)
		assert.Equal(t, "light", doc.Find("html").AttrOr("class", ""))
		assert.Zero(t, doc.Find("[data-testid=favorites-badge]").Length())
	})

	t.Run("InvalidID", func(t *testing.T) {
		resp := e.postForm(t, "/favorites/abc/toggle", nil)
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})
}

func TestDetailPage(t *testing.T) {
	t.Run("Gallery", func(t *testing.T) {
		e := newEnv(t, fixtureCatalog())
		resp, doc := e.get(t, "/products/1?image=1")

		require.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Equal(t, "Essence Mascara", doc.Find(".detail h1").Text())
		assert.Equal(t, "https://cdn.example/1/b.png", doc.Find("img.gallery-main").AttrOr("src", ""))
		assert.Equal(t, "/products/1?image=1", doc.Find(".gallery-thumbs a.active").AttrOr("href", ""))
		assert.Equal(t, "$125.00", doc.Find(".detail .price-original").Text())
		assert.Equal(t, "-20%", doc.Find(".discount").Text())
		assert.Contains(t, doc.Find("title").Text(), "Essence Mascara")
	})

	t.Run("ThumbnailFallback", func(t *testing.T) {
		e := newEnv(t, fixtureCatalog())
		_, doc := e.get(t, "/products/2?image=5")
		assert.Equal(t, "https://cdn.example/2/t.png", doc.Find("img.gallery-main").AttrOr("src", ""))
		assert.Zero(t, doc.Find(".gallery-thumbs").Length())
		assert.Zero(t, doc.Find(".detail .price-original").Length())
	})

	t.Run("NotFound", func(t *testing.T) {
		e := newEnv(t, fixtureCatalog())
		resp, doc := e.get(t, "/products/404")
		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
		assert.Equal(t, browse.DetailErrorMessage, strings.TrimSpace(doc.Find(".error p").Text()))
		assert.Empty(t, e.tracker.kinds())
	})

	t.Run("UpstreamFailure", func(t *testing.T) {
		e := newEnv(t, fixtureCatalog())
		e.catalog.err = errors.New("timeout")
		resp, doc := e.get(t, "/products/1")
		assert.Equal(t, http.StatusBadGateway, resp.StatusCode)
		assert.Equal(t, browse.DetailErrorMessage, strings.TrimSpace(doc.Find(".error p").Text()))
	})
}

func TestInfraRoutes(t *testing.T) {
	e := newEnv(t, fixtureCatalog())

	resp := e.do(t, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Nil(t, e.cookie, "health checks do not get a client id")
	assert.Equal(t, "DENY", resp.Header.Get("X-Frame-Options"))
	assert.Equal(t, "nosniff", resp.Header.Get("X-Content-Type-Options"))

	resp = e.do(t, httptest.NewRequest(http.MethodGet, "/static/js/app.js", nil))
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp = e.do(t, httptest.NewRequest(http.MethodGet, "/static/missing.js", nil))
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestClientIDCookieReused(t *testing.T) {
	e := newEnv(t, fixtureCatalog())
	e.get(t, "/")
	first := e.cookie.Value

	e.cookie = &http.Cookie{Name: ClientCookieName, Value: first}
	resp := e.do(t, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Empty(t, resp.Cookies(), "valid cookie is not reissued")

	e.cookie = &http.Cookie{Name: ClientCookieName, Value: "not-a-uuid"}
	resp = e.do(t, httptest.NewRequest(http.MethodGet, "/", nil))
	require.Len(t, resp.Cookies(), 1)
	assert.NotEqual(t, "not-a-uuid", resp.Cookies()[0].Value)
}

func TestSafeReturn(t *testing.T) {
	tests := map[string]string{
		"":                  "/",
		"/":                 "/",
		"/products/1":       "/products/1",
		"/?q=phone&page=2":  "/?q=phone&page=2",
		"//evil.example":    "/",
		"/\\evil.example":   "/",
		"https://evil.test": "/",
		"products":          "/",
	}
	for in, want := range tests {
		assert.Equal(t, want, safeReturn(in), in)
	}
}

func TestCategoryLabel(t *testing.T) {
	assert.Equal(t, "Beauty", CategoryLabel("beauty"))
	assert.Equal(t, "Mens Shirts", CategoryLabel("mens-shirts"))
	assert.Equal(t, "All categories", CategoryLabel(domain.CategoryAll))
}

func TestListURL(t *testing.T) {
	assert.Equal(t, "/", listURL(domain.Filters{Category: domain.CategoryAll}, 1))
	assert.Equal(t,
		"/?category=beauty&from=2024-01-01&page=3&q=red",
		listURL(domain.Filters{
			Query:    "red",
			Category: "beauty",
			Dates:    domain.DateRange{From: at(2024, time.January, 1)},
		}, 3),
	)
}
