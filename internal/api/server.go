package api

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"

	"investpulse/internal/catalog"
	"investpulse/internal/ledger"
	"investpulse/internal/models"
	"investpulse/internal/realtime"
	"investpulse/internal/triggers"
)

const basePath = "/api/investment"

type Catalog interface {
	List() []models.Security
	FindByTicker(ticker string) (models.Security, bool)
	UpdatePrice(ctx context.Context, id int64, price decimal.Decimal) (models.Security, error)
}

type Ledger interface {
	ListWithDetails() []models.EnrichedOperation
	Calculate(d models.OperationDraft) (models.Calculation, error)
	Add(ctx context.Context, d models.OperationDraft) (models.AddResult, error)
}

type TriggerQueries interface {
	Activated() []models.TriggerAlert
	Pending() []models.TriggerAlert
}

type Server struct {
	catalog  Catalog
	ledger   Ledger
	triggers TriggerQueries
	hub      *realtime.Hub
	router   *mux.Router
	upgrader websocket.Upgrader
}

func NewServer(c Catalog, l Ledger, t TriggerQueries, hub *realtime.Hub) *Server {
	server := &Server{
		catalog:  c,
		ledger:   l,
		triggers: t,
		hub:      hub,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}

	r := mux.NewRouter()
	r.Use(requestLogger)
	r.Use(corsMiddleware)

	r.HandleFunc("/api/health", server.handleHealth).Methods(http.MethodGet)

	inv := r.PathPrefix(basePath).Subrouter()
	inv.HandleFunc("/securities", server.handleListSecurities).Methods(http.MethodGet)
	inv.HandleFunc("/securities/{ref}/price", server.handleUpdatePrice).Methods(http.MethodPut)
	inv.HandleFunc("/operations", server.handleListOperations).Methods(http.MethodGet)
	inv.HandleFunc("/calculate", server.handleCalculate).Methods(http.MethodPost)
	inv.HandleFunc("/operation", server.handleAddOperation).Methods(http.MethodPost)
	inv.HandleFunc("/check-triggers", server.handleActivatedTriggers).Methods(http.MethodGet)
	// "active" here means still waiting, i.e. pending.
	inv.HandleFunc("/active-triggers", server.handlePendingTriggers).Methods(http.MethodGet)
	inv.HandleFunc("/pending-triggers", server.handlePendingTriggers).Methods(http.MethodGet)

	r.HandleFunc("/ws", server.handleWebSocket).Methods(http.MethodGet)

	server.router = r
	return server
}

func (s *Server) Handler() http.Handler {
	return s.router
}

// OnPriceUpdated pushes the current activated set to websocket clients. It
// is subscribed to catalog.PriceUpdatedTopic.
func (s *Server) OnPriceUpdated(update models.PriceUpdate) {
	activated := s.triggers.Activated()
	log.WithFields(log.Fields{
		"security_id": update.SecurityID,
		"ticker":      update.Ticker,
		"activated":   len(activated),
	}).Debug("broadcasting trigger state")
	s.hub.Broadcast(realtime.EventTriggersActivated, activated)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleListSecurities(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.catalog.List())
}

func (s *Server) handleUpdatePrice(w http.ResponseWriter, r *http.Request) {
	id, err := s.resolveSecurity(mux.Vars(r)["ref"])
	if errors.Is(err, catalog.ErrNotFound) {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "security not found"})
		return
	}
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	var req struct {
		CurrentPrice decimal.Decimal `json:"currentPrice"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	sec, err := s.catalog.UpdatePrice(r.Context(), id, req.CurrentPrice)
	switch {
	case errors.Is(err, catalog.ErrNotFound):
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "security not found"})
		return
	case errors.Is(err, catalog.ErrInvalidPrice):
		writeError(w, http.StatusBadRequest, err)
		return
	case err != nil:
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, sec)
}

func (s *Server) handleListOperations(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.ledger.ListWithDetails())
}

func (s *Server) handleCalculate(w http.ResponseWriter, r *http.Request) {
	draft, ok := decodeDraft(w, r)
	if !ok {
		return
	}
	result, err := s.ledger.Calculate(draft)
	if err != nil {
		writeLedgerError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleAddOperation(w http.ResponseWriter, r *http.Request) {
	draft, ok := decodeDraft(w, r)
	if !ok {
		return
	}
	result, err := s.ledger.Add(r.Context(), draft)
	if err != nil {
		writeLedgerError(w, err)
		return
	}
	w.Header().Set("Location", basePath+"/operations")
	writeJSON(w, http.StatusCreated, result)
}

func (s *Server) handleActivatedTriggers(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.triggers.Activated())
}

func (s *Server) handlePendingTriggers(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.triggers.Pending())
}

func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	s.hub.AddClient(conn)

	_ = s.hub.Send(conn, realtime.EventTriggersActivated, s.triggers.Activated())

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			s.hub.RemoveClient(conn)
			return
		}
	}
}

func decodeDraft(w http.ResponseWriter, r *http.Request) (models.OperationDraft, bool) {
	var draft models.OperationDraft
	if err := json.NewDecoder(r.Body).Decode(&draft); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return models.OperationDraft{}, false
	}
	return draft, true
}

func writeLedgerError(w http.ResponseWriter, err error) {
	var verr *ledger.ValidationError
	if errors.As(err, &verr) {
		writeJSON(w, http.StatusBadRequest, map[string]string{
			"error":  verr.Error(),
			"field":  verr.Field,
			"reason": verr.Reason,
		})
		return
	}
	writeError(w, http.StatusInternalServerError, err)
}

// resolveSecurity accepts either a numeric security id or a ticker.
func (s *Server) resolveSecurity(ref string) (int64, error) {
	if _, err := strconv.ParseInt(ref, 10, 64); err == nil {
		return parseID(ref)
	}
	sec, ok := s.catalog.FindByTicker(ref)
	if !ok {
		return 0, catalog.ErrNotFound
	}
	return sec.ID, nil
}

func parseID(raw string) (int64, error) {
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, errors.New("invalid id")
	}
	return id, nil
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, map[string]string{"error": err.Error()})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		w.Header().Set("Access-Control-Allow-Methods", "GET,POST,PUT,OPTIONS")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

// Hijack lets the websocket upgrader take over the connection.
func (r *statusRecorder) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	h, ok := r.ResponseWriter.(http.Hijacker)
	if !ok {
		return nil, nil, errors.New("response writer does not support hijacking")
	}
	return h.Hijack()
}

func (r *statusRecorder) Unwrap() http.ResponseWriter {
	return r.ResponseWriter
}

func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := r.Header.Get("X-Request-ID")
		if requestID == "" {
			requestID = uuid.NewString()
		}
		w.Header().Set("X-Request-ID", requestID)

		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)

		log.WithFields(log.Fields{
			"request_id": requestID,
			"method":     r.Method,
			"path":       r.URL.Path,
			"status":     rec.status,
			"duration":   time.Since(start).String(),
		}).Info("http request")
	})
}

var (
	_ Catalog        = (*catalog.Catalog)(nil)
	_ Ledger         = (*ledger.Ledger)(nil)
	_ TriggerQueries = (*triggers.Service)(nil)
)
