package httphandler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/niksmo/producthub/internal/core/browse"
	"github.com/niksmo/producthub/internal/core/domain"
	"github.com/niksmo/producthub/internal/core/port"
	"github.com/niksmo/producthub/internal/core/store"
)

// GET /api/v1/products
func (h *Handler) APIProducts(w http.ResponseWriter, r *http.Request) {
	const op = "Handler.APIProducts"
	log := slog.With("op", op)

	ctx := r.Context()
	f, page, err := parseListQuery(h.validate, r.URL.Query(), h.listCfg.Location)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	v := h.newListView()
	v.Apply(f)
	if err := v.Load(ctx); err != nil {
		log.Warn("failed to load catalog", "err", err)
		http.Error(w, browse.ListErrorMessage, http.StatusBadGateway)
		return
	}
	v.SetPage(page)

	if f.Query != "" {
		h.track(ctx, domain.ClientEvent{
			Kind: domain.EventSearch, Query: f.Query, Category: f.Category,
		})
	}

	cs := h.stores(ctx)
	writeJSON(w, http.StatusOK, toProductsResponse(v.Snapshot(), cs.favorites))
}

// GET /api/v1/products/{id}
func (h *Handler) APIProduct(w http.ResponseWriter, r *http.Request) {
	const op = "Handler.APIProduct"
	log := slog.With("op", op)

	id, err := productID(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	ctx := r.Context()
	cs := h.stores(ctx)
	v := browse.NewDetailView(h.products, cs.favorites)
	if err := v.Load(ctx, id); err != nil {
		if errors.Is(err, port.ErrProductNotFound) {
			http.Error(w, browse.DetailErrorMessage, http.StatusNotFound)
			return
		}
		log.Warn("failed to load product", "id", id, "err", err)
		http.Error(w, browse.DetailErrorMessage, http.StatusBadGateway)
		return
	}
	h.track(ctx, domain.ClientEvent{Kind: domain.EventProductView, ProductID: id})

	writeJSON(w, http.StatusOK, toProductResponse(v.Product(), v.IsFavorite()))
}

// GET /api/v1/categories
func (h *Handler) APICategories(w http.ResponseWriter, r *http.Request) {
	const op = "Handler.APICategories"
	log := slog.With("op", op)

	c, err := h.catalog.LoadCatalog(r.Context())
	if err != nil {
		log.Warn("failed to load catalog", "err", err)
		http.Error(w, browse.ListErrorMessage, http.StatusBadGateway)
		return
	}

	out := make([]categoryResponse, 0, len(c.Categories))
	for _, s := range c.Categories {
		out = append(out, categoryResponse{Slug: s, Label: CategoryLabel(s)})
	}
	writeJSON(w, http.StatusOK, out)
}

// GET /api/v1/favorites
func (h *Handler) APIFavorites(w http.ResponseWriter, r *http.Request) {
	cs := h.stores(r.Context())
	writeJSON(w, http.StatusOK, newFavoritesResponse(cs.favorites.IDs()))
}

// POST /api/v1/favorites/{id}
func (h *Handler) APIAddFavorite(w http.ResponseWriter, r *http.Request) {
	h.mutateFavorites(w, r, "Handler.APIAddFavorite", func(cs clientStores, id int) (bool, error) {
		return true, cs.favorites.Add(r.Context(), id)
	})
}

// DELETE /api/v1/favorites/{id}
func (h *Handler) APIRemoveFavorite(w http.ResponseWriter, r *http.Request) {
	h.mutateFavorites(w, r, "Handler.APIRemoveFavorite", func(cs clientStores, id int) (bool, error) {
		return false, cs.favorites.Remove(r.Context(), id)
	})
}

// POST /api/v1/favorites/{id}/toggle
func (h *Handler) APIToggleFavorite(w http.ResponseWriter, r *http.Request) {
	const op = "Handler.APIToggleFavorite"

	id, err := productID(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	ctx := r.Context()
	cs := h.stores(ctx)
	fav, err := cs.favorites.Toggle(ctx, id)
	if err != nil {
		slog.Error("failed to persist favorites", "op", op, "err", err)
		http.Error(w, "failed to save favorites", http.StatusInternalServerError)
		return
	}
	h.track(ctx, domain.ClientEvent{
		Kind: domain.EventFavoriteToggle, ProductID: id, Value: favoriteValue(fav),
	})

	writeJSON(w, http.StatusOK, favoriteToggleResponse{ID: id, Favorite: fav})
}

func (h *Handler) mutateFavorites(
	w http.ResponseWriter, r *http.Request, op string,
	mutate func(clientStores, int) (bool, error),
) {
	id, err := productID(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	ctx := r.Context()
	cs := h.stores(ctx)
	wasFav := cs.favorites.Contains(id)
	fav, err := mutate(cs, id)
	if err != nil {
		slog.Error("failed to persist favorites", "op", op, "err", err)
		http.Error(w, "failed to save favorites", http.StatusInternalServerError)
		return
	}
	if wasFav != fav {
		h.track(ctx, domain.ClientEvent{
			Kind: domain.EventFavoriteToggle, ProductID: id, Value: favoriteValue(fav),
		})
	}

	writeJSON(w, http.StatusOK, newFavoritesResponse(cs.favorites.IDs()))
}

// GET /api/v1/theme
func (h *Handler) APITheme(w http.ResponseWriter, r *http.Request) {
	cs := h.stores(r.Context())
	writeJSON(w, http.StatusOK, themeResponse{Theme: cs.theme.Theme()})
}

// PUT /api/v1/theme
func (h *Handler) APISetTheme(w http.ResponseWriter, r *http.Request) {
	const op = "Handler.APISetTheme"
	log := slog.With("op", op)

	var req themeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid JSON data", http.StatusBadRequest)
		log.Warn("failed to parse JSON", "err", err)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		http.Error(w, store.ErrInvalidTheme.Error(), http.StatusBadRequest)
		return
	}

	ctx := r.Context()
	cs := h.stores(ctx)
	before := cs.theme.Theme()
	if err := cs.theme.SetTheme(ctx, domain.Theme(req.Theme)); err != nil {
		if errors.Is(err, store.ErrInvalidTheme) {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		log.Error("failed to persist theme", "err", err)
		http.Error(w, "failed to save theme", http.StatusInternalServerError)
		return
	}
	if before != cs.theme.Theme() {
		h.track(ctx, domain.ClientEvent{Kind: domain.EventThemeChange, Value: req.Theme})
	}

	writeJSON(w, http.StatusOK, themeResponse{Theme: cs.theme.Theme()})
}

// POST /api/v1/theme/toggle
func (h *Handler) APIToggleTheme(w http.ResponseWriter, r *http.Request) {
	const op = "Handler.APIToggleTheme"

	ctx := r.Context()
	cs := h.stores(ctx)
	t, err := cs.theme.ToggleTheme(ctx)
	if err != nil {
		slog.Error("failed to persist theme", "op", op, "err", err)
		http.Error(w, "failed to save theme", http.StatusInternalServerError)
		return
	}
	h.track(ctx, domain.ClientEvent{Kind: domain.EventThemeChange, Value: string(t)})

	writeJSON(w, http.StatusOK, themeResponse{Theme: t})
}

var errInvalidProductID = errors.New("invalid product id")

func productID(r *http.Request) (int, error) {
	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil || id <= 0 {
		return 0, errInvalidProductID
	}
	return id, nil
}
