package router

import (
	"database/sql"
	"net/http"
	"os"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"medibot-schedule/internal/adapters/alarmhost/cronhost"
	"medibot-schedule/internal/adapters/devicefeed/gatewayfeed"
	mem "medibot-schedule/internal/adapters/storage/memory"
	pg "medibot-schedule/internal/adapters/storage/postgres"
	"medibot-schedule/internal/domain/alarms"
	"medibot-schedule/internal/domain/devicestatus"
	"medibot-schedule/internal/domain/medicines"
	"medibot-schedule/internal/middleware"
	"medibot-schedule/internal/platform/logger"
	"medibot-schedule/internal/ports/alarmhost"
	"medibot-schedule/internal/ports/auth"
	"medibot-schedule/internal/ports/devicefeed"
)

type Options struct {
	AuthVerifier auth.AuthVerifier // puede ser nil (modo dev: X-Debug-User-ID)

	// Opcional: si viene, usa Postgres. Si no, intenta DB_DSN y cae a in-memory.
	DB *sql.DB

	// Opcionales; con nil se eligen defaults por env (ver abajo).
	Host alarmhost.Host
	Feed devicefeed.Feed
	Log  logger.Logger
}

func NewRouter(opts Options) http.Handler {
	log := opts.Log
	if log == nil {
		log = logger.NewFromEnv()
	}

	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(chimw.Recoverer)

	r.Use(middleware.AuthContext(opts.AuthVerifier))

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	// Si no te pasan DB explícita, intenta por env (para dev/handoff)
	db := opts.DB
	if db == nil {
		if dsn := os.Getenv("DB_DSN"); dsn != "" {
			opened, err := pg.Open(dsn)
			if err == nil {
				db = opened
			} else {
				log.Warn("postgres unavailable, falling back to in-memory", map[string]any{"error": err.Error()})
			}
		}
	}

	var medRepo medicines.Repository
	if db != nil {
		medRepo = pg.NewMedicinesRepo(db)
	} else {
		medRepo = mem.NewMedicineRepo()
	}

	feed := opts.Feed
	if feed == nil {
		feed = defaultFeed(db, log)
	}

	host := opts.Host
	if host == nil {
		// la entrega de la notificación queda fuera de alcance: al disparar
		// solo dejamos constancia en el log
		host = cronhost.NewFromEnv(func(id string) {
			log.Info("reminder due", map[string]any{"alarm": id})
		})
	}

	planner := alarms.NewPlanner(host, log)
	medSvc := medicines.NewService(medRepo, log)
	devSvc := devicestatus.NewService(feed)

	medicines.RegisterRoutes(r, medSvc, planner)
	devicestatus.RegisterRoutes(r, devSvc)

	return r
}

// defaultFeed elige el origen del estado del dispensador:
// gateway HTTP del vendor si DEVICE_FEED_URL está seteado, si no el espejo
// en Postgres, y en última instancia el feed in-memory (sin dispositivo).
func defaultFeed(db *sql.DB, log logger.Logger) devicefeed.Feed {
	if baseURL := os.Getenv("DEVICE_FEED_URL"); baseURL != "" {
		client, err := gatewayfeed.NewClient(gatewayfeed.Config{
			BaseURL: baseURL,
			APIKey:  os.Getenv("DEVICE_FEED_API_KEY"),
		})
		if err == nil {
			return client
		}
		log.Warn("invalid DEVICE_FEED_URL, ignoring gateway feed", map[string]any{"error": err.Error()})
	}

	if db != nil {
		return pg.NewDeviceStatusRepo(db)
	}
	return mem.NewDeviceFeed()
}
