package catalog

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/orderbench/orderbench/internal/platform/httpx"
)

// Handler serves the product picker endpoints.
type Handler struct {
	logger  *slog.Logger
	service *Service
}

// NewHandler constructs an HTTP handler for catalog endpoints.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service}
}

// MountRoutes attaches catalog routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/products", h.searchProducts)
}

func (h *Handler) searchProducts(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("search")
	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	perPage, _ := strconv.Atoi(r.URL.Query().Get("per_page"))

	res, err := h.service.Search(r.Context(), query, page, perPage, r.Header.Get("Authorization"))
	if err != nil {
		h.logger.Error("catalog search", slog.String("query", query), slog.Any("error", err))
		httpx.Problem(w, http.StatusBadGateway, "Upstream Unavailable", "product catalog is unreachable")
		return
	}
	httpx.JSON(w, http.StatusOK, res)
}
