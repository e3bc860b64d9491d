package httphandler

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/niksmo/producthub/internal/core/browse"
	"github.com/niksmo/producthub/internal/core/domain"
	"github.com/niksmo/producthub/internal/core/port"
)

// ListPage renders GET /.
func (h *Handler) ListPage(w http.ResponseWriter, r *http.Request) {
	const op = "Handler.ListPage"
	log := slog.With("op", op)

	ctx := r.Context()
	f, page, err := parseListQuery(h.validate, r.URL.Query(), h.listCfg.Location)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	cs := h.stores(ctx)
	v := h.newListView()
	v.Apply(f)

	status := http.StatusOK
	if err := v.Load(ctx); err != nil {
		log.Warn("failed to load catalog", "err", err)
		status = http.StatusBadGateway
	}
	v.SetPage(page)

	if f.Query != "" {
		h.track(ctx, domain.ClientEvent{
			Kind: domain.EventSearch, Query: f.Query, Category: f.Category,
		})
	}

	returnTo := r.URL.RequestURI()
	data := newListPage(v.Snapshot(), cs.favorites, returnTo)
	h.render(w, r, status, "list", h.page(r, cs, "", data))
}

// DetailPage renders GET /products/{id}. The image query parameter selects
// the gallery image.
func (h *Handler) DetailPage(w http.ResponseWriter, r *http.Request) {
	const op = "Handler.DetailPage"
	log := slog.With("op", op)

	ctx := r.Context()
	id, _ := strconv.Atoi(chi.URLParam(r, "id"))

	cs := h.stores(ctx)
	v := browse.NewDetailView(h.products, cs.favorites)

	status := http.StatusOK
	if err := v.Load(ctx, id); err != nil {
		status = http.StatusBadGateway
		if errors.Is(err, port.ErrProductNotFound) {
			status = http.StatusNotFound
		}
		log.Warn("failed to load product", "id", id, "err", err)
	} else {
		h.track(ctx, domain.ClientEvent{Kind: domain.EventProductView, ProductID: id})
	}

	if img, err := strconv.Atoi(r.URL.Query().Get("image")); err == nil {
		v.SelectImage(img)
	}

	title := v.Product().Title
	h.render(w, r, status, "detail", h.page(r, cs, title, newDetailPage(v)))
}

// ToggleFavorite handles POST /favorites/{id}/toggle from the HTML forms.
func (h *Handler) ToggleFavorite(w http.ResponseWriter, r *http.Request) {
	const op = "Handler.ToggleFavorite"
	log := slog.With("op", op)

	id, err := productID(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	ctx := r.Context()
	cs := h.stores(ctx)
	fav, err := cs.favorites.Toggle(ctx, id)
	if err != nil {
		log.Error("failed to persist favorites", "err", err)
	}
	h.track(ctx, domain.ClientEvent{
		Kind: domain.EventFavoriteToggle, ProductID: id, Value: favoriteValue(fav),
	})

	redirectBack(w, r)
}

// ToggleTheme handles POST /theme/toggle from the header.
func (h *Handler) ToggleTheme(w http.ResponseWriter, r *http.Request) {
	const op = "Handler.ToggleTheme"
	log := slog.With("op", op)

	ctx := r.Context()
	cs := h.stores(ctx)
	t, err := cs.theme.ToggleTheme(ctx)
	if err != nil {
		log.Error("failed to persist theme", "err", err)
	}
	h.track(ctx, domain.ClientEvent{Kind: domain.EventThemeChange, Value: string(t)})

	redirectBack(w, r)
}

func (h *Handler) Healthz(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte("ok"))
}
