package medicines

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"medibot-schedule/internal/domain/alarms"
	"medibot-schedule/internal/middleware"
	"medibot-schedule/internal/timecodec"
)

func RegisterRoutes(r chi.Router, svc *Service, planner *alarms.Planner) {
	r.Route("/medicines", func(mr chi.Router) {
		mr.Post("/", upsertMedicineHandler(svc, planner))
		mr.Get("/", listMedicinesHandler(svc))
		mr.Get("/stream", streamScheduleHandler(svc))

		mr.Patch("/{name}", updateTimeHandler(svc, planner))
		mr.Delete("/{name}", deleteMedicineHandler(svc, planner))
	})
}

type upsertMedicineRequest struct {
	Name string `json:"name"`
	Time string `json:"time"` // "h:mm a", se normaliza (ej. "07:05 pm" -> "7:05 PM")
}

type updateTimeRequest struct {
	Time string `json:"time"`
}

type medicineResponse struct {
	Name string `json:"name"`
	Time string `json:"time"`

	// La registración del recordatorio es un canal independiente de la
	// escritura: si el host la rechaza, la mutación igual queda y acá
	// viaja el motivo.
	AlarmError string `json:"alarm_error,omitempty"`
}

type snapshotResponse struct {
	ID        string             `json:"id"`
	At        string             `json:"at"`
	Medicines []medicineResponse `json:"medicines"`
}

func upsertMedicineHandler(svc *Service, planner *alarms.Planner) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := middleware.GetClaims(r.Context())
		if !ok || strings.TrimSpace(claims.UserID) == "" {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		var req upsertMedicineRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid json", http.StatusBadRequest)
			return
		}

		med, err := svc.Upsert(r.Context(), claims.UserID, req.Name, req.Time)
		if err != nil {
			writeServiceError(w, err)
			return
		}

		resp := medicineResponse{Name: med.Name, Time: med.Time}
		resp.AlarmError = rescheduleAlarm(planner, claims.UserID, med)

		writeJSON(w, http.StatusCreated, resp)
	}
}

func listMedicinesHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := middleware.GetClaims(r.Context())
		if !ok || strings.TrimSpace(claims.UserID) == "" {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		items, err := svc.List(r.Context(), claims.UserID)
		if err != nil {
			writeServiceError(w, err)
			return
		}

		out := make([]medicineResponse, 0, len(items))
		for _, m := range items {
			out = append(out, medicineResponse{Name: m.Name, Time: m.Time})
		}
		writeJSON(w, http.StatusOK, out)
	}
}

func updateTimeHandler(svc *Service, planner *alarms.Planner) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := middleware.GetClaims(r.Context())
		if !ok || strings.TrimSpace(claims.UserID) == "" {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		name := urlName(r)

		var req updateTimeRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid json", http.StatusBadRequest)
			return
		}

		med, err := svc.UpdateTime(r.Context(), claims.UserID, name, req.Time)
		if err != nil {
			writeServiceError(w, err)
			return
		}

		resp := medicineResponse{Name: med.Name, Time: med.Time}
		resp.AlarmError = rescheduleAlarm(planner, claims.UserID, med)

		writeJSON(w, http.StatusOK, resp)
	}
}

func deleteMedicineHandler(svc *Service, planner *alarms.Planner) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := middleware.GetClaims(r.Context())
		if !ok || strings.TrimSpace(claims.UserID) == "" {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		name := urlName(r)

		if err := svc.Delete(r.Context(), claims.UserID, name); err != nil {
			writeServiceError(w, err)
			return
		}

		if planner != nil {
			// best effort; el borrado ya está confirmado
			_ = planner.Cancel(alarmID(claims.UserID, strings.TrimSpace(name)))
		}

		w.WriteHeader(http.StatusNoContent)
	}
}

// streamScheduleHandler expone Subscribe como SSE: un evento "schedule" por
// snapshot. La suscripción se libera al cortar la conexión.
func streamScheduleHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := middleware.GetClaims(r.Context())
		if !ok || strings.TrimSpace(claims.UserID) == "" {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		flusher, ok := w.(http.Flusher)
		if !ok {
			http.Error(w, "streaming unsupported", http.StatusInternalServerError)
			return
		}

		ch, cancel, err := svc.Subscribe(r.Context(), claims.UserID)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		defer cancel()

		w.Header().Set("Content-Type", "text/event-stream")
		w.Header().Set("Cache-Control", "no-cache")
		w.WriteHeader(http.StatusOK)
		flusher.Flush()

		for {
			select {
			case <-r.Context().Done():
				return
			case snap, ok := <-ch:
				if !ok {
					return
				}
				meds := make([]medicineResponse, 0, len(snap.Medicines))
				for _, m := range snap.Medicines {
					meds = append(meds, medicineResponse{Name: m.Name, Time: m.Time})
				}
				b, err := json.Marshal(snapshotResponse{
					ID:        snap.ID,
					At:        snap.At.UTC().Format(time.RFC3339Nano),
					Medicines: meds,
				})
				if err != nil {
					continue
				}
				fmt.Fprintf(w, "event: schedule\ndata: %s\n\n", b)
				flusher.Flush()
			}
		}
	}
}

// rescheduleAlarm (re)registra el recordatorio diario tras una escritura
// confirmada. Devuelve el mensaje de error para el response body, o "".
// Nunca voltea la escritura: son canales de efecto independientes.
func rescheduleAlarm(planner *alarms.Planner, userID string, med Medicine) string {
	if planner == nil {
		return ""
	}
	h, m, err := timecodec.Parse(med.Time)
	if err != nil {
		// no debería pasar: el time viene normalizado del service
		return err.Error()
	}
	if err := planner.Schedule(alarmID(userID, med.Name), h, m); err != nil {
		return err.Error()
	}
	return ""
}

// urlName devuelve el path param {name} ya decodificado. chi rutea sobre
// RawPath cuando existe (el param llega todavía escapado) y sobre Path en
// caso contrario (ya decodificado): desescapar dos veces colapsaría nombres
// distintos, ej. "a%20b" contra "a b".
func urlName(r *http.Request) string {
	name := chi.URLParam(r, "name")
	if r.URL.RawPath == "" {
		return name
	}
	if un, err := url.PathUnescape(name); err == nil {
		return un
	}
	return name
}

// alarmID deriva el identificador del trigger del nombre (nunca de la hora):
// re-agendar el mismo medicamento reemplaza en vez de duplicar.
func alarmID(userID, name string) string {
	return userID + "/" + encodeName(name)
}

func writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrInvalidInput):
		http.Error(w, "name is required", http.StatusBadRequest)
	case errors.Is(err, ErrInvalidTimeFormat):
		http.Error(w, "time must be h:mm AM|PM", http.StatusBadRequest)
	default:
		if se, ok := AsStoreError(err); ok {
			http.Error(w, "store error: "+string(se.Kind), http.StatusBadGateway)
			return
		}
		http.Error(w, "internal error", http.StatusInternalServerError)
	}
}

// writeJSON duplicado a propósito entre handlers de distintos módulos;
// extraer un helper común recién cuando haya un tercer uso.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
