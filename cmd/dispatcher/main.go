// Command dispatcher runs the durable event dispatch core: the supervised
// dispatch loop plus its administrative HTTP surface. Event producers and
// handler implementations are out of this core's scope; this binary only
// boots the infrastructure that claims, matches, locks, and acks/nacks
// events that something else publishes and registers triggers for.
package main

import (
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/fx"

	"github.com/cuemby/reflex-dispatch/internal/config"
)

const dbPingTimeout = 5 * time.Second

func main() {
	app := fx.New(
		Module,
		fx.NopLogger,
	)
	app.Run()
}

func durationSeconds(seconds int) time.Duration {
	return time.Duration(seconds) * time.Second
}

func newHTTPServer(cfg *config.Config, router chi.Router) *http.Server {
	return &http.Server{
		Addr:         addr(cfg.AdminPort),
		Handler:      router,
		ReadTimeout:  cfg.HTTPReadTimeout,
		WriteTimeout: cfg.HTTPWriteTimeout,
	}
}

func addr(port int) string {
	return fmt.Sprintf(":%d", port)
}
