package app

import (
	"errors"
	"io"
	"log/slog"
	"net/http"

	"vueblade/internal/slots"
	"vueblade/pkg/fastjson"
	"vueblade/pkg/logger"
	"vueblade/pkg/metrics"
	vbmiddleware "vueblade/pkg/middleware"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const maxBodyBytes = 1 << 20

// BuildRouter builds the preview server router.
func BuildRouter(app *AppContext) (*chi.Mux, error) {
	r := chi.NewRouter()
	r.Use(logger.Middleware)
	r.Use(metrics.Middleware)
	r.Use(middleware.Recoverer)
	r.Use(vbmiddleware.SecurityHeaders(app.Config.Production()))
	if app.Config.Compress {
		r.Use(vbmiddleware.Brotli)
	}

	if app.Config.RateLimit > 0 {
		r.Use(httprate.LimitByIP(app.Config.RateLimit, app.Config.RateWindow))
	} else {
		slog.Info("⚠️  Rate Limiting Disabled (RATE_LIMIT_REQUESTS not set)")
	}

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
	}))

	r.Get("/health", func(w http.ResponseWriter, req *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})

	r.Handle("/metrics", promhttp.Handler())

	r.Get("/views", func(w http.ResponseWriter, req *http.Request) {
		names, err := app.Views.Names()
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		fastjson.NewEncoder(w).Encode(names)
	})

	r.Get("/views/{name}", func(w http.ResponseWriter, req *http.Request) {
		name := chi.URLParam(req, "name")
		data, err := app.ViewData(name)
		if err != nil {
			writeRenderError(w, err)
			return
		}
		renderView(w, req, app, name, data)
	})

	r.Post("/views/{name}", func(w http.ResponseWriter, req *http.Request) {
		body, err := io.ReadAll(io.LimitReader(req.Body, maxBodyBytes))
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}

		data := map[string]interface{}{}
		if len(body) > 0 {
			if err := fastjson.Unmarshal(body, &data); err != nil {
				http.Error(w, "invalid JSON body: "+err.Error(), http.StatusBadRequest)
				return
			}
		}
		renderView(w, req, app, chi.URLParam(req, "name"), data)
	})

	return r, nil
}

func renderView(w http.ResponseWriter, req *http.Request, app *AppContext, name string, data map[string]interface{}) {
	out, err := app.RenderView(req.Context(), name, data)
	if err != nil {
		writeRenderError(w, err)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	io.WriteString(w, out)
}

func writeRenderError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	if errors.Is(err, slots.ErrViewNotFound) {
		status = http.StatusNotFound
	}
	slog.Warn("view render failed", "status", status, "error", err)
	http.Error(w, err.Error(), status)
}
