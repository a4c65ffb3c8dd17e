// Package api provides the HTTP API server: recipe costing, price browsing,
// and price maintenance over the costing engine and price store.
package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"recipe-cost/costing/pricing"
	"recipe-cost/costing/standardize"
)

// PriceCatalog is the store surface the server reads prices from.
type PriceCatalog interface {
	pricing.PriceStore
	ListByCountry(ctx context.Context, countryCode string) ([]pricing.PriceRecord, error)
}

// PriceUpserter accepts new price records; nil disables the update endpoint.
type PriceUpserter interface {
	UpsertPrice(ctx context.Context, rec pricing.PriceRecord) error
}

// Pinger reports backing-store health for the readiness probe.
type Pinger interface {
	Ping(ctx context.Context) error
}

// ReportArchiver records computed reports; nil disables archiving.
type ReportArchiver interface {
	SaveReport(ctx context.Context, recipeName string, report *pricing.CostReport) error
}

// countryCurrencies maps ISO 3166-1 alpha-3 codes to their default currency.
var countryCurrencies = map[string]string{
	"USA": "USD",
	"GBR": "GBP",
	"CAN": "CAD",
	"AUS": "AUD",
	"EUR": "EUR",
	"JPN": "JPY",
	"MEX": "MXN",
	"BRA": "BRL",
	"IND": "INR",
	"CHN": "CNY",
}

// CurrencyFor returns the default currency for a country code, USD when
// unknown.
func CurrencyFor(countryCode string) string {
	if c, ok := countryCurrencies[strings.ToUpper(countryCode)]; ok {
		return c
	}
	return "USD"
}

// Config holds server configuration
type Config struct {
	Port           int
	ReadTimeout    time.Duration
	WriteTimeout   time.Duration
	MaxRequestSize int64
	CORSOrigins    []string
}

// DefaultConfig returns default server configuration
func DefaultConfig() *Config {
	return &Config{
		Port:           8080,
		ReadTimeout:    30 * time.Second,
		WriteTimeout:   60 * time.Second,
		MaxRequestSize: 1 * 1024 * 1024, // 1MB; recipes are small
		CORSOrigins:    []string{"*"},
	}
}

// Server is the HTTP API server
type Server struct {
	httpServer *http.Server
	store      PriceCatalog
	upserter   PriceUpserter
	pinger     Pinger
	archive    ReportArchiver
	engine     *pricing.Engine
	std        *standardize.Standardizer
	dir        standardize.Directory
	log        *zap.Logger
	config     *Config
}

// NewServer creates a new API server over a price catalog and ingredient
// directory.
func NewServer(store PriceCatalog, dir standardize.Directory, engine *pricing.Engine, log *zap.Logger, config *Config) *Server {
	if config == nil {
		config = DefaultConfig()
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Server{
		store:  store,
		dir:    dir,
		engine: engine,
		std:    standardize.New(),
		log:    log,
		config: config,
	}
}

// WithUpserter enables the price update endpoint.
func (s *Server) WithUpserter(u PriceUpserter) *Server {
	s.upserter = u
	return s
}

// WithPinger wires a backing store into the readiness probe.
func (s *Server) WithPinger(p Pinger) *Server {
	s.pinger = p
	return s
}

// WithArchive enables cost-report archiving.
func (s *Server) WithArchive(a ReportArchiver) *Server {
	s.archive = a
	return s
}

// Handler builds the route table wrapped in the middleware stack.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("/health", s.handleHealth)
	mux.HandleFunc("/ready", s.handleReady)
	mux.HandleFunc("/api/v1/cost", s.handleCost)
	mux.HandleFunc("/api/v1/prices", s.handleListCountries)
	mux.HandleFunc("/api/v1/prices/", s.handlePrices)

	return s.corsMiddleware(s.loggingMiddleware(mux))
}

// Start starts the HTTP server
func (s *Server) Start() error {
	s.httpServer = &http.Server{
		Addr:         fmt.Sprintf(":%d", s.config.Port),
		Handler:      s.Handler(),
		ReadTimeout:  s.config.ReadTimeout,
		WriteTimeout: s.config.WriteTimeout,
	}

	s.log.Info("api server starting", zap.Int("port", s.config.Port))
	return s.httpServer.ListenAndServe()
}

// StartWithGracefulShutdown starts server with graceful shutdown handling
func (s *Server) StartWithGracefulShutdown() error {
	errChan := make(chan error, 1)
	go func() {
		if err := s.Start(); err != http.ErrServerClosed {
			errChan <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errChan:
		return err
	case <-quit:
		s.log.Info("shutting down server")
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		return s.httpServer.Shutdown(ctx)
	}
}

// =============================================================================
// MIDDLEWARE
// =============================================================================

func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		s.log.Info("request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.String("remote", r.RemoteAddr),
			zap.Duration("duration", time.Since(start)),
		)
	})
}

func (s *Server) corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")
		if origin == "" {
			origin = "*"
		}

		allowed := false
		for _, o := range s.config.CORSOrigins {
			if o == "*" || o == origin {
				allowed = true
				break
			}
		}

		if allowed {
			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
			w.Header().Set("Access-Control-Max-Age", "86400")
		}

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusNoContent)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// =============================================================================
// HEALTH ENDPOINTS
// =============================================================================

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.jsonResponse(w, http.StatusOK, map[string]string{
		"status":    "healthy",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
		"version":   "1.0.0",
	})
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	if s.pinger != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()
		if err := s.pinger.Ping(ctx); err != nil {
			s.jsonError(w, http.StatusServiceUnavailable, "database not ready")
			return
		}
	}
	s.jsonResponse(w, http.StatusOK, map[string]string{
		"status": "ready",
	})
}

// =============================================================================
// COST ENDPOINT
// =============================================================================

// CostRequest is the API request for recipe costing
type CostRequest struct {
	RecipeName  string   `json:"recipe_name,omitempty"`
	Lines       []string `json:"lines"`
	CountryCode string   `json:"country_code,omitempty"`
	Servings    int      `json:"servings,omitempty"`
}

func (s *Server) handleCost(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		s.jsonError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, s.config.MaxRequestSize)

	var req CostRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.jsonError(w, http.StatusBadRequest, fmt.Sprintf("invalid request: %v", err))
		return
	}
	if len(req.Lines) == 0 {
		s.jsonError(w, http.StatusBadRequest, "recipe has no lines")
		return
	}
	if req.Servings == 0 {
		req.Servings = pricing.DefaultServings
	}

	ctx := r.Context()

	lines, err := pricing.BuildLines(req.Lines, s.std, s.dir)
	if err != nil {
		s.jsonError(w, http.StatusInternalServerError, fmt.Sprintf("failed to resolve ingredients: %v", err))
		return
	}

	report, err := s.engine.ComputeCost(ctx, lines, req.CountryCode, req.Servings)
	if err != nil {
		s.jsonError(w, http.StatusBadRequest, fmt.Sprintf("costing failed: %v", err))
		return
	}

	if s.archive != nil {
		// Archiving is best-effort; a history outage never fails a request.
		if err := s.archive.SaveReport(ctx, req.RecipeName, report); err != nil {
			s.log.Warn("failed to archive report", zap.Error(err), zap.String("report_id", report.ID.String()))
		}
	}

	s.jsonResponse(w, http.StatusOK, report)
}

// =============================================================================
// PRICE ENDPOINTS
// =============================================================================

// PriceEntry is one price row of a country listing
type PriceEntry struct {
	IngredientID string `json:"ingredient_id"`
	Price        string `json:"price"`
	Unit         string `json:"unit"`
	Quantity     string `json:"quantity"`
	Currency     string `json:"currency"`
	LastUpdated  string `json:"last_updated"`
}

// CountryPricesResponse lists the prices stored for one country
type CountryPricesResponse struct {
	CountryCode string       `json:"country_code"`
	Currency    string       `json:"currency"`
	TotalPrices int          `json:"total_prices"`
	Prices      []PriceEntry `json:"prices"`
}

// handlePrices routes /api/v1/prices/{ISO3} and
// /api/v1/prices/{ISO3}/{ingredient}.
func (s *Server) handlePrices(w http.ResponseWriter, r *http.Request) {
	rest := strings.Trim(strings.TrimPrefix(r.URL.Path, "/api/v1/prices/"), "/")
	if rest == "" {
		s.handleListCountries(w, r)
		return
	}

	parts := strings.SplitN(rest, "/", 2)
	countryCode := strings.ToUpper(parts[0])
	if len(countryCode) != 3 {
		s.jsonError(w, http.StatusBadRequest, "invalid country code format, use ISO 3166-1 alpha-3 (e.g. USA)")
		return
	}

	if len(parts) == 2 {
		s.handleUpdatePrice(w, r, countryCode, parts[1])
		return
	}

	if r.Method != http.MethodGet {
		s.jsonError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	records, err := s.store.ListByCountry(r.Context(), countryCode)
	if err != nil {
		s.jsonError(w, http.StatusInternalServerError, fmt.Sprintf("failed to list prices: %v", err))
		return
	}

	resp := CountryPricesResponse{
		CountryCode: countryCode,
		Currency:    CurrencyFor(countryCode),
		TotalPrices: len(records),
		Prices:      make([]PriceEntry, len(records)),
	}
	for i, rec := range records {
		resp.Prices[i] = PriceEntry{
			IngredientID: rec.IngredientID,
			Price:        rec.Price.StringFixed(2),
			Unit:         rec.Unit,
			Quantity:     rec.BasisQuantity.String(),
			Currency:     rec.Currency,
			LastUpdated:  rec.LastUpdated.Format(time.RFC3339),
		}
	}
	if len(records) > 0 {
		resp.Currency = records[0].Currency
	}

	s.jsonResponse(w, http.StatusOK, resp)
}

func (s *Server) handleListCountries(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.jsonError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	type CountryEntry struct {
		CountryCode string `json:"country_code"`
		Currency    string `json:"currency"`
		APIURL      string `json:"api_url"`
	}

	countries := make([]CountryEntry, 0, len(countryCurrencies))
	for code, currency := range countryCurrencies {
		countries = append(countries, CountryEntry{
			CountryCode: code,
			Currency:    currency,
			APIURL:      "/api/v1/prices/" + code,
		})
	}

	s.jsonResponse(w, http.StatusOK, map[string]any{
		"total_countries": len(countries),
		"countries":       countries,
	})
}

// PriceUpdateRequest sets the price of one ingredient in one country
type PriceUpdateRequest struct {
	Price    string `json:"price"`
	Unit     string `json:"unit"`
	Quantity string `json:"quantity,omitempty"`
	Currency string `json:"currency,omitempty"`
}

func (s *Server) handleUpdatePrice(w http.ResponseWriter, r *http.Request, countryCode, ingredientName string) {
	if r.Method != http.MethodPut {
		s.jsonError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	if s.upserter == nil {
		s.jsonError(w, http.StatusNotImplemented, "price updates are not enabled")
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, s.config.MaxRequestSize)
	var req PriceUpdateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.jsonError(w, http.StatusBadRequest, fmt.Sprintf("invalid request: %v", err))
		return
	}
	if req.Unit == "" {
		s.jsonError(w, http.StatusBadRequest, "unit is required")
		return
	}

	price, err := decimal.NewFromString(req.Price)
	if err != nil || price.IsNegative() {
		s.jsonError(w, http.StatusBadRequest, "price must be a non-negative decimal")
		return
	}
	quantity := decimal.NewFromInt(1)
	if req.Quantity != "" {
		if quantity, err = decimal.NewFromString(req.Quantity); err != nil || !quantity.IsPositive() {
			s.jsonError(w, http.StatusBadRequest, "quantity must be a positive decimal")
			return
		}
	}
	currency := req.Currency
	if currency == "" {
		currency = CurrencyFor(countryCode)
	}

	ing, err := s.dir.ResolveOrCreate(s.std.Standardize(ingredientName))
	if err != nil {
		s.jsonError(w, http.StatusInternalServerError, fmt.Sprintf("failed to resolve ingredient: %v", err))
		return
	}

	rec := pricing.PriceRecord{
		IngredientID:  ing.ID,
		Price:         price,
		Unit:          req.Unit,
		BasisQuantity: quantity,
		CountryCode:   countryCode,
		Currency:      currency,
		LastUpdated:   time.Now().UTC(),
	}
	if err := s.upserter.UpsertPrice(r.Context(), rec); err != nil {
		s.jsonError(w, http.StatusInternalServerError, fmt.Sprintf("failed to store price: %v", err))
		return
	}

	s.jsonResponse(w, http.StatusOK, map[string]string{
		"ingredient":   ing.CanonicalName,
		"country_code": countryCode,
		"price":        price.StringFixed(2),
		"currency":     currency,
	})
}

// =============================================================================
// HELPERS
// =============================================================================

func (s *Server) jsonResponse(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func (s *Server) jsonError(w http.ResponseWriter, status int, message string) {
	s.jsonResponse(w, status, map[string]string{
		"error": message,
	})
}
