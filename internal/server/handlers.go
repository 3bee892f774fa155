package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/officebites/gatetrack/internal/engine"
	"github.com/officebites/gatetrack/internal/model"
	"github.com/officebites/gatetrack/internal/ownership"
	"github.com/officebites/gatetrack/internal/repository"
	"github.com/officebites/gatetrack/internal/store"
)

type createOrderRequest struct {
	OrderRef          string    `json:"order_ref"`
	EmployeeName      string    `json:"employee_name"`
	PhoneNumber       string    `json:"phone_number"`
	EstimatedDelivery time.Time `json:"estimated_delivery"`
	Platform          string    `json:"platform"`
	Notes             string    `json:"notes"`
}

type updateStatusRequest struct {
	Status string `json:"status"`
}

type urgencyResponse struct {
	Kind    string `json:"kind"`
	Minutes int    `json:"minutes"`
}

type orderResponse struct {
	ID                string          `json:"id"`
	OrderRef          string          `json:"order_ref"`
	EmployeeName      string          `json:"employee_name"`
	PhoneNumber       string          `json:"phone_number"`
	EstimatedDelivery time.Time       `json:"estimated_delivery"`
	Status            string          `json:"status"`
	CreatedAt         time.Time       `json:"created_at"`
	Platform          string          `json:"platform,omitempty"`
	Notes             string          `json:"notes,omitempty"`
	Urgency           urgencyResponse `json:"urgency"`
}

type listResponse struct {
	Orders  []orderResponse `json:"orders"`
	Loading bool            `json:"loading"`
	Error   string          `json:"error,omitempty"`
}

// mineResponse splits the caller's orders by placement date, today's first.
type mineResponse struct {
	Today []orderResponse `json:"today"`
	Past  []orderResponse `json:"past"`
}

type historyStats struct {
	Total     int `json:"total"`
	Ordered   int `json:"ordered"`
	Collected int `json:"collected"`
	Arrived   int `json:"arrived"`
}

type historyResponse struct {
	From   time.Time       `json:"from"`
	To     time.Time       `json:"to"`
	Orders []orderResponse `json:"orders"`
	Stats  historyStats    `json:"stats"`
}

func (s *Server) handleCreateOrder(w http.ResponseWriter, r *http.Request) {
	var req createOrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json")
		return
	}
	if req.OrderRef == "" || req.EmployeeName == "" || req.EstimatedDelivery.IsZero() {
		writeError(w, http.StatusBadRequest, "order_ref, employee_name and estimated_delivery are required")
		return
	}

	if !s.window.Open(s.now()) {
		writeError(w, http.StatusForbidden, "ordering window is closed")
		return
	}

	row, err := s.storage.Insert(r.Context(), store.NewOrder{
		OrderRef:          req.OrderRef,
		EmployeeName:      req.EmployeeName,
		PhoneNumber:       req.PhoneNumber,
		EstimatedDelivery: req.EstimatedDelivery,
		Platform:          req.Platform,
		Notes:             req.Notes,
	})
	if err != nil {
		s.logger.Error("failed to create order", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to create order")
		return
	}

	s.book.Record(row.OrderRef, row.EmployeeName)

	writeJSON(w, http.StatusCreated, s.toResponse(row))
}

func (s *Server) handleMyOrders(w http.ResponseWriter, r *http.Request) {
	employee := r.URL.Query().Get("employee")
	if employee == "" {
		writeError(w, http.StatusBadRequest, "employee query parameter is required")
		return
	}

	refs := s.book.OwnedRefs(employee)
	if len(refs) == 0 {
		writeJSON(w, http.StatusOK, mineResponse{Today: []orderResponse{}, Past: []orderResponse{}})
		return
	}

	rows, err := s.storage.ListByRefs(r.Context(), refs, 50)
	if err != nil {
		s.logger.Error("failed to list my orders", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to list orders")
		return
	}

	// Newest record per reference wins when a ref was re-recorded.
	placed := make(map[string]ownership.Record)
	for _, rec := range s.book.Records() {
		if rec.EmployeeName != employee {
			continue
		}
		if _, seen := placed[rec.OrderRef]; !seen {
			placed[rec.OrderRef] = rec
		}
	}

	resp := mineResponse{Today: []orderResponse{}, Past: []orderResponse{}}
	now := s.now()
	for _, row := range rows {
		out := s.orderToResponse(model.FromRow(row), now)
		if rec, ok := placed[row.OrderRef]; ok && s.book.OwnedToday(rec) {
			resp.Today = append(resp.Today, out)
		} else {
			resp.Past = append(resp.Past, out)
		}
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleGetOrder(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	row, err := s.storage.GetByID(r.Context(), id)
	if errors.Is(err, repository.ErrOrderNotFound) {
		writeError(w, http.StatusNotFound, "order not found")
		return
	}
	if err != nil {
		s.logger.Error("failed to fetch order", zap.String("id", id), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to fetch order")
		return
	}

	writeJSON(w, http.StatusOK, s.toResponse(row))
}

// handleOrderHistory browses past orders by local-time period (day, week or
// month around an anchor date) with per-period status counts.
func (s *Server) handleOrderHistory(w http.ResponseWriter, r *http.Request) {
	anchor := s.now()
	if v := r.URL.Query().Get("date"); v != "" {
		parsed, err := time.ParseInLocation("2006-01-02", v, time.Local)
		if err != nil {
			writeError(w, http.StatusBadRequest, "date must be YYYY-MM-DD")
			return
		}
		anchor = parsed
	}

	from, to, ok := historyRange(anchor, r.URL.Query().Get("period"))
	if !ok {
		writeError(w, http.StatusBadRequest, "period must be day, week or month")
		return
	}

	rows, err := s.storage.ListByCreatedRange(r.Context(), from, to, 500)
	if err != nil {
		s.logger.Error("failed to list order history", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to list orders")
		return
	}

	resp := historyResponse{
		From:   from,
		To:     to,
		Orders: s.toResponses(rows),
	}
	for _, row := range rows {
		resp.Stats.Total++
		switch model.Status(row.Status) {
		case model.StatusOrdered:
			resp.Stats.Ordered++
		case model.StatusCollected:
			resp.Stats.Collected++
		case model.StatusArrived:
			resp.Stats.Arrived++
		}
	}
	writeJSON(w, http.StatusOK, resp)
}

// historyRange resolves a period name to the local calendar span holding the
// anchor; weeks start on Monday.
func historyRange(anchor time.Time, period string) (time.Time, time.Time, bool) {
	y, m, d := anchor.Local().Date()
	day := time.Date(y, m, d, 0, 0, 0, 0, time.Local)

	switch period {
	case "", "day":
		return day, day.AddDate(0, 0, 1), true
	case "week":
		offset := (int(day.Weekday()) + 6) % 7
		start := day.AddDate(0, 0, -offset)
		return start, start.AddDate(0, 0, 7), true
	case "month":
		start := time.Date(y, m, 1, 0, 0, 0, 0, time.Local)
		return start, start.AddDate(0, 1, 0), true
	}
	return time.Time{}, time.Time{}, false
}

// handleTodayOrders serves the tracking board from the live materialized
// view, with the caller's status filter and secondary sort applied on top.
func (s *Server) handleTodayOrders(w http.ResponseWriter, r *http.Request) {
	state := s.tracking.State()

	var filter model.Status
	if v := r.URL.Query().Get("status"); v != "" {
		filter = model.Status(v)
		if !filter.Valid() {
			writeError(w, http.StatusBadRequest, "unknown status filter")
			return
		}
	}

	key := engine.SortByEstimatedDelivery
	switch r.URL.Query().Get("sort") {
	case "", string(engine.SortByEstimatedDelivery):
	case string(engine.SortByCreatedAt):
		key = engine.SortByCreatedAt
	case string(engine.SortByStatus):
		key = engine.SortByStatus
	default:
		writeError(w, http.StatusBadRequest, "unknown sort key")
		return
	}

	arranged := engine.Arrange(state.Orders, filter, key)

	resp := listResponse{
		Orders:  make([]orderResponse, 0, len(arranged)),
		Loading: state.Loading,
		Error:   state.Err,
	}
	now := s.now()
	for _, o := range arranged {
		resp.Orders = append(resp.Orders, s.orderToResponse(o, now))
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleUpdateStatus(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	var req updateStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json")
		return
	}
	next := model.Status(req.Status)
	if !next.Valid() {
		writeError(w, http.StatusBadRequest, "unknown status")
		return
	}

	err := s.storage.UpdateStatus(r.Context(), id, next)
	switch {
	case errors.Is(err, repository.ErrOrderNotFound):
		writeError(w, http.StatusNotFound, "order not found")
	case errors.Is(err, store.ErrInvalidTransition):
		writeError(w, http.StatusConflict, err.Error())
	case err != nil:
		s.logger.Error("failed to update status", zap.String("id", id), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to update status")
	default:
		w.WriteHeader(http.StatusNoContent)
	}
}

func (s *Server) handleDeleteOrder(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	row, err := s.storage.GetByID(r.Context(), id)
	if errors.Is(err, repository.ErrOrderNotFound) {
		writeError(w, http.StatusNotFound, "order not found")
		return
	}
	if err != nil {
		s.logger.Error("failed to fetch order", zap.String("id", id), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to delete order")
		return
	}

	if err := s.storage.Delete(r.Context(), id); err != nil {
		s.logger.Error("failed to delete order", zap.String("id", id), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to delete order")
		return
	}

	s.book.Remove(row.OrderRef)
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) toResponse(row *repository.Order) orderResponse {
	return s.orderToResponse(model.FromRow(row), s.now())
}

func (s *Server) toResponses(rows []*repository.Order) []orderResponse {
	out := make([]orderResponse, 0, len(rows))
	now := s.now()
	for _, row := range rows {
		out = append(out, s.orderToResponse(model.FromRow(row), now))
	}
	return out
}

func (s *Server) orderToResponse(o model.Order, now time.Time) orderResponse {
	u := engine.UrgencyOf(o.Status, o.EstimatedDelivery, now)
	return orderResponse{
		ID:                o.ID,
		OrderRef:          o.OrderRef,
		EmployeeName:      o.EmployeeName,
		PhoneNumber:       o.PhoneNumber,
		EstimatedDelivery: o.EstimatedDelivery,
		Status:            string(o.Status),
		CreatedAt:         o.CreatedAt,
		Platform:          o.Platform,
		Notes:             o.Notes,
		Urgency:           urgencyResponse{Kind: u.Kind.String(), Minutes: u.Minutes},
	}
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
