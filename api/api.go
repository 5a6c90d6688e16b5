// Package api exposes the protocol operations over HTTP, standing in for the
// hosting ledger's dispatch machinery.
package api

import (
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/infimum-dao/infimum-node/engine"
	"github.com/infimum-dao/infimum-node/log"
)

// APIConfig type represents the configuration for the API HTTP server.
type APIConfig struct {
	Host   string
	Port   int
	Engine *engine.Engine
}

// API type represents the API HTTP server.
type API struct {
	router *chi.Mux
	engine *engine.Engine
}

// New creates a new API instance with the given configuration and starts the
// HTTP server.
func New(conf *APIConfig) (*API, error) {
	if conf == nil {
		return nil, fmt.Errorf("missing API configuration")
	}
	if conf.Engine == nil {
		return nil, fmt.Errorf("missing engine instance")
	}
	a := &API{
		engine: conf.Engine,
	}

	// Initialize router
	a.initRouter()
	go func() {
		log.Infow("Starting API server", "host", conf.Host, "port", conf.Port)
		if err := http.ListenAndServe(fmt.Sprintf("%s:%d", conf.Host, conf.Port), a.router); err != nil {
			log.Fatalf("failed to start the API server: %v", err)
		}
	}()
	return a, nil
}

// NewRouter creates an API instance without starting a server, for testing.
func NewRouter(e *engine.Engine) *API {
	a := &API{engine: e}
	a.initRouter()
	return a
}

// Router returns the chi router for testing purposes
func (a *API) Router() *chi.Mux {
	return a.router
}

// registerHandlers registers all the API handlers.
func (a *API) registerHandlers() {
	log.Infow("register handler", "endpoint", PingEndpoint, "method", "GET")
	a.router.Get(PingEndpoint, func(w http.ResponseWriter, r *http.Request) {
		httpWriteOK(w)
	})
	log.Infow("register handler", "endpoint", CoordinatorsEndpoint, "method", "POST")
	a.router.Post(CoordinatorsEndpoint, a.registerCoordinator)
	log.Infow("register handler", "endpoint", CoordinatorEndpoint, "method", "GET")
	a.router.Get(CoordinatorEndpoint, a.coordinator)
	log.Infow("register handler", "endpoint", CoordinatorKeysEndpoint, "method", "POST")
	a.router.Post(CoordinatorKeysEndpoint, a.rotateKeys)
	log.Infow("register handler", "endpoint", PollsEndpoint, "method", "POST")
	a.router.Post(PollsEndpoint, a.createPoll)
	log.Infow("register handler", "endpoint", PollsEndpoint, "method", "GET")
	a.router.Get(PollsEndpoint, a.listPolls)
	log.Infow("register handler", "endpoint", PollEndpoint, "method", "GET")
	a.router.Get(PollEndpoint, a.poll)
	log.Infow("register handler", "endpoint", PollRegistrationsEndpoint, "method", "POST")
	a.router.Post(PollRegistrationsEndpoint, a.registerParticipant)
	log.Infow("register handler", "endpoint", PollInteractionsEndpoint, "method", "POST")
	a.router.Post(PollInteractionsEndpoint, a.interactWithPoll)
	log.Infow("register handler", "endpoint", PollMergeEndpoint, "method", "POST")
	a.router.Post(PollMergeEndpoint, a.mergePollState)
	log.Infow("register handler", "endpoint", PollNullifyEndpoint, "method", "POST")
	a.router.Post(PollNullifyEndpoint, a.nullifyPoll)
	log.Infow("register handler", "endpoint", PollOutcomeEndpoint, "method", "POST")
	a.router.Post(PollOutcomeEndpoint, a.commitOutcome)
}

// initRouter creates the router with all the routes and middleware.
func (a *API) initRouter() {
	// Create the router with a basic middleware stack
	a.router = chi.NewRouter()
	a.router.Use(cors.New(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-CSRF-Token"},
		AllowCredentials: true,
		MaxAge:           300, // Maximum value not ignored by any of major browsers
	}).Handler)
	a.router.Use(middleware.Logger)
	a.router.Use(middleware.Recoverer)
	a.router.Use(middleware.Throttle(100))
	a.router.Use(middleware.ThrottleBacklog(5000, 40000, 60*time.Second))
	a.router.Use(middleware.Timeout(45 * time.Second))

	// Register the API handlers
	a.registerHandlers()
}
