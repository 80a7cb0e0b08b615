// Command api serves the query, submission, and streaming HTTP surface
// over the engine layer: position/inventory/limit lookups, locate
// submission, short-sell validation, and the position-delta feed.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/globalprime/inventory-platform/applications/httpapi"
	"github.com/globalprime/inventory-platform/engine/inventory"
	"github.com/globalprime/inventory-platform/engine/limitengine"
	"github.com/globalprime/inventory-platform/engine/positionengine"
	"github.com/globalprime/inventory-platform/engine/shortsell"
	"github.com/globalprime/inventory-platform/infrastructure/config"
	"github.com/globalprime/inventory-platform/infrastructure/hotlog"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	log := hotlog.New("api", os.Stdout)

	inv := inventory.New()
	limits := limitengine.New()
	hub := httpapi.NewDeltaHub(log)
	positions := positionengine.New(time.Now().UTC(), hub.Publish)

	market := config.GetEnv("DEFAULT_MARKET", "US")
	validator := shortsell.New(limits, bookToAU, market)

	locates := httpapi.NewMemoryLocateRepository()

	handler := httpapi.NewHandler(positions, inv, limits, locates, validator, hub, log)
	router := httpapi.NewRouter(handler)

	addr := config.GetEnv("API_LISTEN_ADDR", fmt.Sprintf(":%d", config.GetPort("api", 8080)))
	srv := &http.Server{
		Addr:              addr,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		log.Info().Msg("api listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.InvariantViolation("api.listen", err)
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = srv.Shutdown(shutdownCtx)
	log.Info().Msg("api shut down")
}

// bookToAU derives an aggregation-unit ID by joining the book and market
// with ".". It always reports the mapping as found: no reference-store
// book-to-AU mapping is consulted, so no book is rejected as unmapped here.
func bookToAU(book, market string) (string, bool) {
	return book + "." + market, true
}
