package httphandler

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/niksmo/producthub/internal/core/browse"
	"github.com/niksmo/producthub/internal/core/domain"
	"github.com/niksmo/producthub/internal/core/port"
	"github.com/niksmo/producthub/internal/core/store"
)

type Deps struct {
	Catalog  port.CatalogLoader
	Products port.ProductLoader
	Tracker  port.EventTracker
	KV       port.KV
	Views    *Views
	List     browse.ListConfig
}

// Handler serves the HTML pages and the JSON API. Every request builds its
// own views over the shared catalog loader and loads the stores of the
// requesting client.
type Handler struct {
	catalog  port.CatalogLoader
	products port.ProductLoader
	tracker  port.EventTracker
	kv       port.KV
	views    *Views
	listCfg  browse.ListConfig
	validate *validator.Validate
}

func NewHandler(d Deps) *Handler {
	return &Handler{
		catalog:  d.Catalog,
		products: d.Products,
		tracker:  d.Tracker,
		kv:       d.KV,
		views:    d.Views,
		listCfg:  d.List,
		validate: validator.New(validator.WithRequiredStructEnabled()),
	}
}

type clientStores struct {
	clientID  string
	favorites *store.Favorites
	theme     *store.Theme
}

func (h *Handler) stores(ctx context.Context) clientStores {
	id := ClientIDFrom(ctx)
	return clientStores{
		clientID:  id,
		favorites: store.LoadFavorites(ctx, h.kv, store.Key(store.FavoritesKey, id)),
		theme:     store.LoadTheme(ctx, h.kv, store.Key(store.ThemeKey, id)),
	}
}

func (h *Handler) newListView() *browse.ListView {
	return browse.NewListView(h.catalog, h.listCfg)
}

func (h *Handler) track(ctx context.Context, evt domain.ClientEvent) {
	if h.tracker == nil {
		return
	}
	evt.ClientID = ClientIDFrom(ctx)
	h.tracker.Track(ctx, evt)
}

func (h *Handler) render(
	w http.ResponseWriter, r *http.Request, status int, name string, p Page,
) {
	const op = "Handler.render"

	if err := h.views.Render(w, status, name, p); err != nil {
		slog.Error("failed to render page",
			"op", op, "page", name, "path", r.URL.Path, "err", err,
		)
		http.Error(w, http.StatusText(http.StatusInternalServerError),
			http.StatusInternalServerError)
	}
}

func (h *Handler) page(r *http.Request, cs clientStores, title string, data any) Page {
	return Page{
		Title:          title,
		Theme:          cs.theme.Theme(),
		FavoritesCount: cs.favorites.Len(),
		ReturnTo:       r.URL.RequestURI(),
		Data:           data,
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	const op = "writeJSON"

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("failed to write response body", "op", op, "err", err)
	}
}

// safeReturn keeps redirects on this site: only absolute paths are
// accepted, anything else goes to the list page.
func safeReturn(target string) string {
	if target == "" || !strings.HasPrefix(target, "/") ||
		strings.HasPrefix(target, "//") || strings.HasPrefix(target, "/\\") {
		return "/"
	}
	return target
}

func redirectBack(w http.ResponseWriter, r *http.Request) {
	http.Redirect(w, r, safeReturn(r.FormValue("return")), http.StatusSeeOther)
}

func favoriteValue(fav bool) string {
	if fav {
		return "added"
	}
	return "removed"
}
