// Package gqlapi serves the GraphQL endpoint: schema, resolvers, identity
// middleware and the HTTP plumbing around them.
package gqlapi

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/graphql-go/graphql"

	"analyzeit.org/internal/auth"
	"analyzeit.org/internal/obs"
	"analyzeit.org/internal/predict"
	"analyzeit.org/internal/stats"
)

// Predictor proxies forecast queries to the external prediction service.
type Predictor interface {
	Predict(ctx context.Context, country, virus, dateStart, dateEnd string) (*predict.Document, error)
}

// Options carries the collaborators and limits the API serves with.
type Options struct {
	Auth      *auth.Service
	Repos     stats.Repositories
	Predictor Predictor

	// ReadyProbe reports backend readiness for /readyz. Nil means always
	// ready.
	ReadyProbe func(ctx context.Context) error

	Version string

	RatePerSec   float64
	RateBurst    int
	MaxBodyBytes int64
}

// API is the HTTP surface of the service.
type API struct {
	mux        *http.ServeMux
	schema     graphql.Schema
	auth       *auth.Service
	repos      stats.Repositories
	predictor  Predictor
	readyProbe func(ctx context.Context) error
	version    string
	limiter    *ipLimiter
	maxBody    int64
}

// New builds the schema and routes.
func New(opts Options) (*API, error) {
	if opts.Auth == nil {
		return nil, fmt.Errorf("gqlapi: auth service is required")
	}
	if opts.Predictor == nil {
		return nil, fmt.Errorf("gqlapi: predictor is required")
	}
	a := &API{
		mux:        http.NewServeMux(),
		auth:       opts.Auth,
		repos:      opts.Repos,
		predictor:  opts.Predictor,
		readyProbe: opts.ReadyProbe,
		version:    opts.Version,
		maxBody:    opts.MaxBodyBytes,
	}
	if opts.RatePerSec > 0 {
		burst := opts.RateBurst
		if burst <= 0 {
			burst = int(opts.RatePerSec)
		}
		a.limiter = newIPLimiter(opts.RatePerSec, burst)
	}

	schema, err := a.buildSchema()
	if err != nil {
		return nil, fmt.Errorf("gqlapi: build schema: %w", err)
	}
	a.schema = schema

	a.mux.HandleFunc("/graphql", a.handleGraphQL)
	a.mux.HandleFunc("/healthz", a.handleHealthz)
	a.mux.HandleFunc("/readyz", a.handleReadyz)
	a.mux.Handle("/metrics", obs.Handler())
	return a, nil
}

// Handler returns the full middleware chain around the routes.
func (a *API) Handler() http.Handler {
	var h http.Handler = a.mux
	h = a.withIdentity(h)
	if a.limiter != nil {
		h = withRateLimit(a.limiter, h)
	}
	h = withMaxBody(a.maxBody, h)
	h = withCORS(h)
	h = withSecurityHeaders(h)
	h = withLogging(h)
	h = withRequestID(h)
	return obs.Instrument(h)
}

// graphqlRequest is the standard POST envelope.
type graphqlRequest struct {
	Query         string                 `json:"query"`
	OperationName string                 `json:"operationName"`
	Variables     map[string]interface{} `json:"variables"`
}

// handleGraphQL executes one GraphQL document. Execution failures land in
// the errors array of a 200 response; only an unreadable envelope is an
// HTTP-level error.
func (a *API) handleGraphQL(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", http.MethodPost)
		writeJSON(w, http.StatusMethodNotAllowed, map[string]any{"error": "POST only"})
		return
	}

	var req graphqlRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]any{"error": "malformed request body"})
		return
	}
	if req.Query == "" {
		writeJSON(w, http.StatusBadRequest, map[string]any{"error": "query is required"})
		return
	}

	ctx := contextWithLoaders(r.Context(), newLoaders(a.repos))
	result := graphql.Do(graphql.Params{
		Schema:         a.schema,
		RequestString:  req.Query,
		OperationName:  req.OperationName,
		VariableValues: req.Variables,
		Context:        ctx,
	})
	writeJSON(w, http.StatusOK, result)
}

func (a *API) handleHealthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":  "ok",
		"version": a.version,
	})
}

func (a *API) handleReadyz(w http.ResponseWriter, r *http.Request) {
	if a.readyProbe != nil {
		if err := a.readyProbe(r.Context()); err != nil {
			obs.Warn("readiness probe failed", map[string]any{"cause": err.Error()})
			writeJSON(w, http.StatusServiceUnavailable, map[string]any{"status": "unavailable"})
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]any{"status": "ready"})
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		obs.Error("write response", map[string]any{"cause": err.Error()})
	}
}
