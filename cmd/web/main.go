// cmd/web/main.go
//
// Flint – HTTP entry point.
//
// Request life-cycle
// ------------------
//
//  1. Load env vars (conf/.env via the config loader).
//
//  2. Start daily rotating logger (tees to console when running in a TTY).
//
//  3. Load config: listen address, debug flag, session secret.
//
//  4. Build the App: routes, hooks, error handlers, session store.
//
//  5. Expose Prometheus /metrics endpoint.
//
//  6. Wrap the App with the security-header middleware and serve.
//
// Every request entering the App gets its own RequestContext, pushed
// onto the goroutine-local stack for the duration of the call, so the
// demo handlers below can use the ambient helpers (Flash, URLFor, the
// CurrentSession proxy) instead of threading state by hand.
//
// Large comment blocks are framed by blank “//” lines; inline comments
// use a single “//”.
package main

import (
	"log"
	"net/http"
	"os"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/yanizio/flint/internal/config"
	"github.com/yanizio/flint/internal/logger"
	"github.com/yanizio/flint/internal/middleware"
	"github.com/yanizio/flint/internal/requestinfo"
	"github.com/yanizio/flint/internal/routing"
	"github.com/yanizio/flint/internal/server"
	"github.com/yanizio/flint/internal/session"
	"github.com/yanizio/flint/internal/view"
	"github.com/yanizio/flint/internal/web"
)

// runningInTTY returns true when stdout is a character device.
func runningInTTY() bool {
	fi, err := os.Stdout.Stat()
	if err != nil {
		return false
	}
	return fi.Mode()&os.ModeCharDevice != 0
}

func main() {
	rootDir, _ := os.Getwd()
	logOut, err := logger.New(rootDir, runningInTTY())
	if err != nil {
		log.Fatalf("start logger: %v", err)
	}

	//
	// ── 1.  Config ─────────────────────────────────────────────────────
	//
	cfg, err := config.Load()
	if err != nil {
		logOut.Fatalf("load config: %v", err)
	}

	// GeoIP enrichment is optional; missing DB just disables it.
	if cfg.App.GeoDB != "" {
		if err := requestinfo.InitGeo(cfg.App.GeoDB); err != nil {
			logOut.Warnw("geoip disabled", "err", err)
		}
	}

	//
	// ── 2.  Application ────────────────────────────────────────────────
	//
	app := web.New("flint-demo", routing.New())
	app.Debug = cfg.App.Debug
	app.ContentType = cfg.App.ContentType
	if cfg.App.SecretKey != "" {
		app.Sessions = session.NewCookieStore(
			[]byte(cfg.App.SecretKey), cfg.App.SessionCookie)
	} else {
		logOut.Warn("no secret key configured; sessions disabled")
	}

	views := view.New(cfg.Paths.Templates)
	registerRoutes(app, views)

	//
	// ── 3.  Metrics endpoint ───────────────────────────────────────────
	//
	http.Handle("/metrics", promhttp.Handler())

	//
	// ── 4.  Serve ──────────────────────────────────────────────────────
	//
	http.Handle("/", middleware.Security(app))

	logOut.Infow("listening", "addr", cfg.HTTP.ListenAddr, "debug", app.Debug)
	srv := server.New(cfg.HTTP.ListenAddr, http.DefaultServeMux)
	if err := srv.ListenAndServe(); err != nil {
		logOut.Fatalf("http server: %v", err)
	}
}

// registerRoutes wires the demo surface: a template-rendered home page,
// a parameterised greeting, a flash round-trip, and a custom 404.
func registerRoutes(app *web.App, views *view.Engine) {
	app.Get("/", "home", func(rc *web.RequestContext, _ map[string]string) (any, error) {
		out, err := views.Render("home.html", map[string]any{
			"Request": rc.Request,
			"Info":    rc.Request.Info,
		})
		if err != nil {
			// No template shipped: fall back to a plain greeting.
			zap.S().Debugw("home template missing", "err", err)
			return "Flint is running.", nil
		}
		return out, nil
	})

	app.Get("/hello/{name}", "hello", func(rc *web.RequestContext, params map[string]string) (any, error) {
		return "Hello, " + params["name"] + "!", nil
	})

	app.Post("/remember", "remember", func(rc *web.RequestContext, _ map[string]string) (any, error) {
		if rc.Session == nil {
			return []any{"sessions disabled", http.StatusServiceUnavailable}, nil
		}
		rc.Session.Set("seen", true)
		_ = web.Flash("you will be remembered")
		url, _ := web.URLFor("home", nil)
		return []any{"", http.StatusSeeOther, map[string]string{"Location": url}}, nil
	})

	app.HandleError(http.StatusNotFound, func(rc *web.RequestContext, err error) (any, error) {
		return []any{"nothing lives at " + rc.Request.URL.Path, http.StatusNotFound}, nil
	})
}
