package main

import (
	"context"
	"database/sql"
	"encoding/json"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
	"github.com/robfig/cron/v3"

	"github.com/pawsuite/bookingrules/booking"
	"github.com/pawsuite/bookingrules/dispatch"
	"github.com/pawsuite/bookingrules/internal/logger"
	"github.com/pawsuite/bookingrules/rules"
)

// BookingStore is the slice of the booking persistence layer the server
// needs; tests substitute an in-memory implementation.
type BookingStore interface {
	Add(b *booking.Booking) error
	Get(id string) (*booking.Booking, error)
	ListOpen() ([]*booking.Booking, error)
}

type Server struct {
	db       *sql.DB
	engine   *rules.Engine
	bookings BookingStore
	execLog  rules.ExecutionLog
	router   *chi.Mux
}

// NewServer wires the engine, stores and collaborators over one database
// connection. The dispatcher handles notify and sendEmail directives;
// updateStatus and assignSitter directives go to the booking store.
func NewServer(db *sql.DB, engine *rules.Engine, bookings BookingStore, execLog rules.ExecutionLog) *Server {
	s := &Server{
		db:       db,
		engine:   engine,
		bookings: bookings,
		execLog:  execLog,
	}
	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))

	r.Get("/api/v1/health", s.handleHealth)

	r.Post("/api/v1/evaluate", s.handleEvaluate)

	r.Route("/api/v1/rules", func(r chi.Router) {
		r.Get("/", s.handleListRules)
		r.Post("/", s.handleCreateRule)
		r.Get("/{ruleId}", s.handleGetRule)
		r.Put("/{ruleId}", s.handleUpdateRule)
		r.Delete("/{ruleId}", s.handleDeleteRule)
	})

	r.Route("/api/v1/bookings", func(r chi.Router) {
		r.Post("/", s.handleCreateBooking)
		r.Get("/{bookingId}", s.handleGetBooking)
		r.Get("/{bookingId}/executions", s.handleListBookingExecutions)
	})

	r.Get("/api/v1/rules/{ruleId}/executions", s.handleListRuleExecutions)

	s.router = r
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if s.db != nil {
		if err := s.db.Ping(); err != nil {
			respondJSON(w, http.StatusServiceUnavailable, map[string]string{
				"status": "unhealthy",
				"error":  err.Error(),
			})
			return
		}
	}

	respondJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}

// handleEvaluate runs the full rule catalog against one booking, either
// referenced by ID or supplied inline, and persists the audit records.
func (s *Server) handleEvaluate(w http.ResponseWriter, r *http.Request) {
	var req EvaluateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body", err)
		return
	}

	var subject *booking.Booking
	switch {
	case req.BookingID != "":
		b, err := s.bookings.Get(req.BookingID)
		if err != nil {
			respondError(w, http.StatusNotFound, "booking not found", err)
			return
		}
		subject = b
	case req.Booking != nil:
		subject = req.Booking
		if subject.ID == "" {
			subject.ID = uuid.New().String()
		}
	default:
		respondError(w, http.StatusBadRequest, "bookingId or booking is required", nil)
		return
	}

	startTime := time.Now()
	execs, err := s.engine.EvaluateAll(subject)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "evaluation failed", err)
		return
	}

	if err := s.execLog.Append(execs...); err != nil {
		// The evaluation itself succeeded; an audit write failure should
		// not hide the results from the caller.
		logger.Error("failed to persist execution records", "error", err, "bookingId", subject.ID)
	}

	respondJSON(w, http.StatusOK, EvaluateResponse{
		BookingID:      subject.ID,
		Executions:     execs,
		EvaluationTime: time.Since(startTime).String(),
	})
}

func (s *Server) handleListRules(w http.ResponseWriter, r *http.Request) {
	// The store, not the cache, is the source of truth for listing:
	// inactive rules must appear too.
	catalog, err := s.engine.ListRules()
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to list rules", err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]any{"rules": catalog})
}

func (s *Server) handleCreateRule(w http.ResponseWriter, r *http.Request) {
	var req CreateRuleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body", err)
		return
	}

	if req.Name == "" {
		respondError(w, http.StatusBadRequest, "name is required", nil)
		return
	}

	rule := &rules.BusinessRule{
		ID:          uuid.New().String(),
		Name:        req.Name,
		Description: req.Description,
		Conditions:  req.Conditions,
		Actions:     req.Actions,
		Active:      req.Active,
		Priority:    req.Priority,
	}

	if err := s.engine.AddRule(rule); err != nil {
		respondError(w, http.StatusBadRequest, "failed to add rule", err)
		return
	}

	respondJSON(w, http.StatusCreated, rule)
}

func (s *Server) handleGetRule(w http.ResponseWriter, r *http.Request) {
	ruleID := chi.URLParam(r, "ruleId")

	rule, err := s.engine.GetRule(ruleID)
	if err != nil {
		respondError(w, http.StatusNotFound, "rule not found", err)
		return
	}

	respondJSON(w, http.StatusOK, rule)
}

func (s *Server) handleUpdateRule(w http.ResponseWriter, r *http.Request) {
	ruleID := chi.URLParam(r, "ruleId")

	var req CreateRuleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body", err)
		return
	}

	rule := &rules.BusinessRule{
		ID:          ruleID,
		Name:        req.Name,
		Description: req.Description,
		Conditions:  req.Conditions,
		Actions:     req.Actions,
		Active:      req.Active,
		Priority:    req.Priority,
	}

	if err := s.engine.UpdateRule(rule); err != nil {
		respondError(w, http.StatusBadRequest, "failed to update rule", err)
		return
	}

	respondJSON(w, http.StatusOK, rule)
}

func (s *Server) handleDeleteRule(w http.ResponseWriter, r *http.Request) {
	ruleID := chi.URLParam(r, "ruleId")

	if err := s.engine.DeleteRule(ruleID); err != nil {
		respondError(w, http.StatusNotFound, "rule not found", err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleCreateBooking(w http.ResponseWriter, r *http.Request) {
	var b booking.Booking
	if err := json.NewDecoder(r.Body).Decode(&b); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body", err)
		return
	}

	if b.ClientID == "" || b.ServiceType == "" {
		respondError(w, http.StatusBadRequest, "clientId and serviceType are required", nil)
		return
	}
	if b.ID == "" {
		b.ID = uuid.New().String()
	}
	if b.Status == "" {
		b.Status = booking.StatusPending
	}

	if err := s.bookings.Add(&b); err != nil {
		respondError(w, http.StatusInternalServerError, "failed to create booking", err)
		return
	}

	respondJSON(w, http.StatusCreated, &b)
}

func (s *Server) handleGetBooking(w http.ResponseWriter, r *http.Request) {
	bookingID := chi.URLParam(r, "bookingId")

	b, err := s.bookings.Get(bookingID)
	if err != nil {
		respondError(w, http.StatusNotFound, "booking not found", err)
		return
	}

	respondJSON(w, http.StatusOK, b)
}

func (s *Server) handleListBookingExecutions(w http.ResponseWriter, r *http.Request) {
	bookingID := chi.URLParam(r, "bookingId")

	execs, err := s.execLog.ListByEntity(bookingID)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to list executions", err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]any{"executions": execs})
}

func (s *Server) handleListRuleExecutions(w http.ResponseWriter, r *http.Request) {
	ruleID := chi.URLParam(r, "ruleId")

	execs, err := s.execLog.ListByRule(ruleID)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to list executions", err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]any{"executions": execs})
}

// sweep re-evaluates every open booking against the catalog and appends the
// audit records. One catalog snapshot covers the whole pass.
func (s *Server) sweep() {
	open, err := s.bookings.ListOpen()
	if err != nil {
		logger.Error("sweep: failed to list open bookings", "error", err)
		return
	}

	entities := make([]rules.Entity, len(open))
	for i, b := range open {
		entities[i] = b
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	execs, err := s.engine.EvaluateBatch(ctx, entities)
	if err != nil {
		logger.Error("sweep: batch evaluation interrupted", "error", err)
	}
	if len(execs) == 0 {
		return
	}

	if err := s.execLog.Append(execs...); err != nil {
		logger.Error("sweep: failed to persist execution records", "error", err)
		return
	}

	logger.Info("sweep complete", "bookings", len(open), "executions", len(execs))
}

func respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func respondError(w http.ResponseWriter, status int, message string, err error) {
	response := map[string]string{"error": message}
	if err != nil {
		response["details"] = err.Error()
	}
	respondJSON(w, status, response)
}

func main() {
	// .env is optional; real deployments set the environment directly.
	_ = godotenv.Load()

	databaseURL := os.Getenv("DATABASE_URL")
	if databaseURL == "" {
		logger.Fatal("DATABASE_URL environment variable is required")
	}

	db, err := sql.Open("postgres", databaseURL)
	if err != nil {
		logger.Fatal("failed to open database", "error", err)
	}
	defer db.Close()

	if err := db.Ping(); err != nil {
		logger.Fatal("failed to ping database", "error", err)
	}

	bookings := booking.NewStore(db)
	ruleStore := rules.NewPostgresRuleStore(db)
	execLog := rules.NewPostgresExecutionLog(db)

	// notify/sendEmail go to NATS when configured, otherwise to the log.
	var notifier rules.Notifier
	var mailer rules.Mailer
	if natsURL := os.Getenv("NATS_URL"); natsURL != "" {
		nd, err := dispatch.Connect(natsURL)
		if err != nil {
			logger.Fatal("failed to connect to NATS", "url", natsURL, "error", err)
		}
		defer nd.Close()
		notifier, mailer = nd, nd
		logger.Info("dispatching directives via NATS", "url", natsURL)
	} else {
		ld := dispatch.NewLogDispatcher()
		notifier, mailer = ld, ld
		logger.Info("NATS_URL not set, dispatching directives to log")
	}

	executor := &rules.Executor{
		Notifier: notifier,
		Statuses: bookings,
		Sitters:  bookings,
		Mailer:   mailer,
	}

	engine, err := rules.NewEngine(ruleStore, executor)
	if err != nil {
		logger.Fatal("failed to create rule engine", "error", err)
	}

	server := NewServer(db, engine, bookings, execLog)

	// Scheduled sweep over open bookings.
	schedule := os.Getenv("SWEEP_SCHEDULE")
	if schedule == "" {
		schedule = "@every 5m"
	}
	c := cron.New()
	if _, err := c.AddFunc(schedule, server.sweep); err != nil {
		logger.Fatal("invalid SWEEP_SCHEDULE", "schedule", schedule, "error", err)
	}
	c.Start()
	defer c.Stop()

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	httpServer := &http.Server{
		Addr:         ":" + port,
		Handler:      server,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("server starting", "port", port, "sweepSchedule", schedule)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("server failed to start", "error", err)
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	logger.Info("shutting down server")
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(ctx); err != nil {
		logger.Error("server shutdown error", "error", err)
	}

	logger.Info("server stopped")
}
