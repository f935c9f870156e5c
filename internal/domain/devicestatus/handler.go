package devicestatus

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"medibot-schedule/internal/middleware"
)

func RegisterRoutes(r chi.Router, svc *Service) {
	r.Get("/device/status", getStatusHandler(svc))
}

type statusResponse struct {
	Dispenser string  `json:"dispenser"`
	Battery   *string `json:"battery"` // null = sin dato (UI muestra N/A)
}

func getStatusHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := middleware.GetClaims(r.Context())
		if !ok || strings.TrimSpace(claims.UserID) == "" {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		st, err := svc.Current(r.Context())
		if err != nil {
			http.Error(w, "device feed unavailable", http.StatusBadGateway)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_ = json.NewEncoder(w).Encode(statusResponse{
			Dispenser: string(st.Dispenser),
			Battery:   st.Battery,
		})
	}
}
