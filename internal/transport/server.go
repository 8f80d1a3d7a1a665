package transport

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/roach88/shelf/internal/access"
	"github.com/roach88/shelf/internal/catalog"
	"github.com/roach88/shelf/internal/events"
	"github.com/roach88/shelf/internal/ledger"
	"github.com/roach88/shelf/internal/shop"
	"github.com/roach88/shelf/internal/store"
)

// HeaderPrincipal carries the caller identity.
const HeaderPrincipal = "X-Principal"

// Shop is the set of operations the API serves. *shop.Shop implements it.
type Shop interface {
	Gauges

	Add(ctx context.Context, caller access.Principal, p catalog.Product) (catalog.Product, error)
	Update(ctx context.Context, caller access.Principal, p catalog.Product) (catalog.Product, error)
	Remove(ctx context.Context, caller access.Principal, id uint64) (catalog.RemoveEffect, error)
	Get(id uint64) (catalog.Product, error)
	List() ([]catalog.Product, error)

	Purchase(ctx context.Context, buyer access.Principal, id, paid uint64) (shop.Receipt, error)
	Withdraw(ctx context.Context, caller access.Principal) (uint64, error)

	IsAdmin(p access.Principal) bool
	Admin() (access.Principal, error)
	TransferAdmin(ctx context.Context, caller, next access.Principal) error

	SalesHistory() ([]ledger.SaleRecord, error)
	SalesPage(offset, limit int) ([]ledger.SaleRecord, error)
	SalesByTimeRange(from, to time.Time) ([]ledger.SaleRecord, error)
	TotalSales() (int, error)
	RevenueFor(productID uint64) (uint64, error)
	Summary() (shop.Summary, error)
}

// EventLog reads committed events back. *store.Store implements it.
type EventLog interface {
	Events(ctx context.Context, afterSeq int64, limit int) ([]events.Record, error)
}

// PayoutLog reads recorded refunds and withdrawals back. *store.Store
// implements it.
type PayoutLog interface {
	Payouts(ctx context.Context) ([]store.PayoutRecord, error)
}

// Server holds the handler dependencies.
type Server struct {
	shop    Shop
	log     EventLog
	payouts PayoutLog
	metrics *Metrics
	logger  *slog.Logger
}

// Option configures a Server.
type Option func(*Server)

// WithEventLog enables GET /api/v1/events.
func WithEventLog(l EventLog) Option { return func(s *Server) { s.log = l } }

// WithPayoutLog enables GET /api/v1/payouts.
func WithPayoutLog(l PayoutLog) Option { return func(s *Server) { s.payouts = l } }

// WithMetrics serves /metrics and instruments every route.
func WithMetrics(m *Metrics) Option { return func(s *Server) { s.metrics = m } }

func WithLogger(l *slog.Logger) Option { return func(s *Server) { s.logger = l } }

// NewServer creates a Server for sh.
func NewServer(sh Shop, opts ...Option) *Server {
	s := &Server{shop: sh, logger: slog.Default()}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Handler builds the router with middleware applied.
func (s *Server) Handler() http.Handler {
	r := mux.NewRouter()
	r.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusNotFound, string(shop.KindNotFound), "no such route")
	})
	r.MethodNotAllowedHandler = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusMethodNotAllowed, CodeBadRequest, "method not allowed")
	})

	r.HandleFunc("/healthz", s.healthz).Methods(http.MethodGet)
	if s.metrics != nil {
		r.Handle("/metrics", s.metrics.Handler()).Methods(http.MethodGet)
		r.Use(s.metrics.Middleware)
	}

	api := r.PathPrefix("/api/v1").Subrouter()
	api.HandleFunc("/products", s.listProducts).Methods(http.MethodGet)
	api.HandleFunc("/products", s.addProduct).Methods(http.MethodPost)
	api.HandleFunc("/products/count", s.countProducts).Methods(http.MethodGet)
	api.HandleFunc("/products/{id:[0-9]+}", s.getProduct).Methods(http.MethodGet)
	api.HandleFunc("/products/{id:[0-9]+}", s.updateProduct).Methods(http.MethodPut)
	api.HandleFunc("/products/{id:[0-9]+}", s.removeProduct).Methods(http.MethodDelete)
	api.HandleFunc("/products/{id:[0-9]+}/purchase", s.purchase).Methods(http.MethodPost)

	api.HandleFunc("/withdraw", s.withdraw).Methods(http.MethodPost)

	api.HandleFunc("/admin", s.getAdmin).Methods(http.MethodGet)
	api.HandleFunc("/admin", s.transferAdmin).Methods(http.MethodPut)
	api.HandleFunc("/admin/{principal}", s.isAdmin).Methods(http.MethodGet)

	api.HandleFunc("/sales", s.listSales).Methods(http.MethodGet)
	api.HandleFunc("/sales/count", s.countSales).Methods(http.MethodGet)
	api.HandleFunc("/sales/revenue/{id:[0-9]+}", s.revenueFor).Methods(http.MethodGet)
	api.HandleFunc("/summary", s.summary).Methods(http.MethodGet)
	api.HandleFunc("/events", s.listEvents).Methods(http.MethodGet)
	api.HandleFunc("/payouts", s.listPayouts).Methods(http.MethodGet)

	var h http.Handler = r
	h = WithLogging(s.logger)(h)
	h = WithRequestID(h)
	return h
}

// NewHTTPServer wraps h with the timeouts used in production.
func NewHTTPServer(addr string, h http.Handler) *http.Server {
	return &http.Server{
		Addr:              addr,
		Handler:           h,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
}
