package handlers

import (
	"log/slog"
	"net/http"

	"github.com/linemk/qris-shop/internal/service"
)

type CatalogResponse struct {
	Products   []service.CatalogItem `json:"products"`
	CancelCode string                `json:"cancel_code"`
}

// CatalogHandler обрабатывает GET /api/catalog
func CatalogHandler(log *slog.Logger, orderService service.OrderServiceInterface) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		logger := log.With(slog.String("op", "handlers.CatalogHandler"))

		writeJSON(w, logger, http.StatusOK, CatalogResponse{
			Products:   orderService.Catalog(),
			CancelCode: service.CancelCode,
		})
	}
}
