package server

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
	"go.uber.org/zap"

	"github.com/officebites/gatetrack/internal/engine"
	mock_engine "github.com/officebites/gatetrack/internal/engine/mocks"
	"github.com/officebites/gatetrack/internal/localstate"
	"github.com/officebites/gatetrack/internal/model"
	"github.com/officebites/gatetrack/internal/ownership"
	"github.com/officebites/gatetrack/internal/repository"
	mock_server "github.com/officebites/gatetrack/internal/server/mocks"
	"github.com/officebites/gatetrack/internal/store"
	"github.com/officebites/gatetrack/internal/timewindow"
)

type testServer struct {
	server  *Server
	storage *mock_server.MockStorage
	coll    *mock_engine.MockCollection
	state   *localstate.Store
	book    *ownership.Book
	router  http.Handler
}

// lunchtime is a Monday inside the default ordering window.
var lunchtime = time.Date(2025, 6, 2, 12, 0, 0, 0, time.Local)

func newTestServer(t *testing.T, ctrl *gomock.Controller) *testServer {
	t.Helper()

	storage := mock_server.NewMockStorage(ctrl)
	coll := mock_engine.NewMockCollection(ctrl)
	state := localstate.New(filepath.Join(t.TempDir(), "state.json"), zap.NewNop())
	book := ownership.NewBook(state, zap.NewNop())
	tracking := engine.NewTrackingView(coll, zap.NewNop())

	s := New(storage, book, tracking, timewindow.Lunch(), zap.NewNop())
	s.now = func() time.Time { return lunchtime }

	return &testServer{
		server:  s,
		storage: storage,
		coll:    coll,
		state:   state,
		book:    book,
		router:  s.setupRoutes(),
	}
}

func (ts *testServer) do(method, target string, body interface{}) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, target, &buf)
	rec := httptest.NewRecorder()
	ts.router.ServeHTTP(rec, req)
	return rec
}

// loadTracking primes the tracking view with the given rows through its
// collection, the way the reconciler would.
func (ts *testServer) loadTracking(t *testing.T, rows []*repository.Order) {
	t.Helper()
	ts.coll.EXPECT().
		ListByCreatedRange(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Eq(100)).
		Return(rows, nil)
	ts.server.tracking.Activate()
	ts.server.tracking.Load(context.Background())
}

func trackedRow(id, ref, status string, eta time.Time) *repository.Order {
	return &repository.Order{
		ID:                id,
		OrderRef:          ref,
		EmployeeName:      "Alice",
		EstimatedDelivery: eta,
		Status:            status,
		CreatedAt:         lunchtime.Add(-time.Hour).UTC(),
	}
}

func TestHandleCreateOrder(t *testing.T) {
	validBody := map[string]interface{}{
		"order_ref":          "WOLT-42",
		"employee_name":      "Alice",
		"phone_number":       "+48123456789",
		"estimated_delivery": lunchtime.Add(30 * time.Minute).Format(time.RFC3339),
		"platform":           "Wolt",
	}

	t.Run("creates order and records ownership", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()
		ts := newTestServer(t, ctrl)

		ts.storage.EXPECT().
			Insert(gomock.Any(), gomock.Any()).
			DoAndReturn(func(_ context.Context, in store.NewOrder) (*repository.Order, error) {
				assert.Equal(t, "WOLT-42", in.OrderRef)
				assert.Equal(t, "Alice", in.EmployeeName)
				return &repository.Order{
					ID:                "order-1",
					OrderRef:          in.OrderRef,
					EmployeeName:      in.EmployeeName,
					PhoneNumber:       in.PhoneNumber,
					EstimatedDelivery: in.EstimatedDelivery,
					Status:            "ordered",
					CreatedAt:         lunchtime.UTC(),
					Platform:          in.Platform,
				}, nil
			})

		rec := ts.do(http.MethodPost, "/orders", validBody)
		require.Equal(t, http.StatusCreated, rec.Code)

		var resp orderResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.Equal(t, "order-1", resp.ID)
		assert.Equal(t, "ordered", resp.Status)
		assert.Equal(t, "scheduled", resp.Urgency.Kind)

		assert.Equal(t, []string{"WOLT-42"}, ts.book.OwnedRefs("Alice"))
	})

	t.Run("missing fields", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()
		ts := newTestServer(t, ctrl)

		rec := ts.do(http.MethodPost, "/orders", map[string]interface{}{"order_ref": "WOLT-42"})
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("invalid json", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()
		ts := newTestServer(t, ctrl)

		req := httptest.NewRequest(http.MethodPost, "/orders", bytes.NewBufferString("{"))
		rec := httptest.NewRecorder()
		ts.router.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("outside ordering window", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()
		ts := newTestServer(t, ctrl)
		ts.server.now = func() time.Time {
			return time.Date(2025, 6, 2, 19, 0, 0, 0, time.Local)
		}

		rec := ts.do(http.MethodPost, "/orders", validBody)
		assert.Equal(t, http.StatusForbidden, rec.Code)
		assert.Empty(t, ts.book.OwnedRefs("Alice"), "no ownership recorded on rejection")
	})

	t.Run("storage failure leaves no ownership", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()
		ts := newTestServer(t, ctrl)

		ts.storage.EXPECT().
			Insert(gomock.Any(), gomock.Any()).
			Return(nil, assert.AnError)

		rec := ts.do(http.MethodPost, "/orders", validBody)
		assert.Equal(t, http.StatusInternalServerError, rec.Code)
		assert.Empty(t, ts.book.OwnedRefs("Alice"))
	})
}

func TestHandleMyOrders(t *testing.T) {
	t.Run("splits owned orders into today and past", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()
		ts := newTestServer(t, ctrl)

		// One reference placed yesterday, two placed just now.
		yesterday, _ := json.Marshal([]ownership.Record{
			{OrderRef: "BOLT-9", PlacedAt: time.Now().AddDate(0, 0, -1), EmployeeName: "Alice"},
		})
		ts.state.Set(localstate.KeyOwnershipRecords, string(yesterday))
		ts.book.Record("WOLT-42", "Alice")
		ts.book.Record("GLOVO-7", "Alice")

		ts.storage.EXPECT().
			ListByRefs(gomock.Any(), gomock.Eq([]string{"GLOVO-7", "WOLT-42", "BOLT-9"}), gomock.Eq(50)).
			Return([]*repository.Order{
				trackedRow("order-2", "GLOVO-7", "collected", lunchtime.Add(10*time.Minute)),
				trackedRow("order-1", "WOLT-42", "ordered", lunchtime.Add(30*time.Minute)),
				trackedRow("order-3", "BOLT-9", "arrived", lunchtime.Add(-time.Hour)),
			}, nil)

		rec := ts.do(http.MethodGet, "/orders/mine?employee=Alice", nil)
		require.Equal(t, http.StatusOK, rec.Code)

		var resp mineResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		require.Len(t, resp.Today, 2)
		assert.Equal(t, "GLOVO-7", resp.Today[0].OrderRef)
		assert.Equal(t, "WOLT-42", resp.Today[1].OrderRef)
		require.Len(t, resp.Past, 1)
		assert.Equal(t, "BOLT-9", resp.Past[0].OrderRef)
	})

	t.Run("no owned refs means no query", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()
		ts := newTestServer(t, ctrl)

		rec := ts.do(http.MethodGet, "/orders/mine?employee=Alice", nil)
		require.Equal(t, http.StatusOK, rec.Code)

		var resp mineResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.Empty(t, resp.Today)
		assert.Empty(t, resp.Past)
	})

	t.Run("missing employee parameter", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()
		ts := newTestServer(t, ctrl)

		rec := ts.do(http.MethodGet, "/orders/mine", nil)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestHandleTodayOrders(t *testing.T) {
	rows := []*repository.Order{
		trackedRow("order-1", "WOLT-42", "arrived", lunchtime.Add(-20*time.Minute)),
		trackedRow("order-2", "GLOVO-7", "ordered", lunchtime.Add(5*time.Minute)),
		trackedRow("order-3", "BOLT-9", "collected", lunchtime.Add(40*time.Minute)),
	}

	t.Run("default sort pushes arrived to the bottom", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()
		ts := newTestServer(t, ctrl)
		ts.loadTracking(t, rows)

		rec := ts.do(http.MethodGet, "/orders/today", nil)
		require.Equal(t, http.StatusOK, rec.Code)

		var resp listResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		require.Len(t, resp.Orders, 3)
		assert.Equal(t, "GLOVO-7", resp.Orders[0].OrderRef)
		assert.Equal(t, "BOLT-9", resp.Orders[1].OrderRef)
		assert.Equal(t, "WOLT-42", resp.Orders[2].OrderRef)
		assert.Equal(t, "imminent", resp.Orders[0].Urgency.Kind)
		assert.False(t, resp.Loading)
	})

	t.Run("status filter", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()
		ts := newTestServer(t, ctrl)
		ts.loadTracking(t, rows)

		rec := ts.do(http.MethodGet, "/orders/today?status=collected", nil)
		require.Equal(t, http.StatusOK, rec.Code)

		var resp listResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		require.Len(t, resp.Orders, 1)
		assert.Equal(t, "BOLT-9", resp.Orders[0].OrderRef)
	})

	t.Run("unknown status filter", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()
		ts := newTestServer(t, ctrl)

		rec := ts.do(http.MethodGet, "/orders/today?status=lost", nil)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("unknown sort key", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()
		ts := newTestServer(t, ctrl)

		rec := ts.do(http.MethodGet, "/orders/today?sort=price", nil)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("inactive view serves empty board", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()
		ts := newTestServer(t, ctrl)

		rec := ts.do(http.MethodGet, "/orders/today", nil)
		require.Equal(t, http.StatusOK, rec.Code)

		var resp listResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.Empty(t, resp.Orders)
	})
}

func TestHandleGetOrder(t *testing.T) {
	t.Run("returns the order with urgency", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()
		ts := newTestServer(t, ctrl)

		ts.storage.EXPECT().
			GetByID(gomock.Any(), gomock.Eq("order-1")).
			Return(trackedRow("order-1", "WOLT-42", "ordered", lunchtime.Add(5*time.Minute)), nil)

		rec := ts.do(http.MethodGet, "/orders/order-1", nil)
		require.Equal(t, http.StatusOK, rec.Code)

		var resp orderResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.Equal(t, "WOLT-42", resp.OrderRef)
		assert.Equal(t, "imminent", resp.Urgency.Kind)
	})

	t.Run("order not found", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()
		ts := newTestServer(t, ctrl)

		ts.storage.EXPECT().
			GetByID(gomock.Any(), gomock.Eq("missing")).
			Return(nil, repository.ErrOrderNotFound)

		rec := ts.do(http.MethodGet, "/orders/missing", nil)
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("fixed paths are not captured as ids", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()
		ts := newTestServer(t, ctrl)

		// /orders/mine without its required parameter must hit the mine
		// handler's validation, not the id lookup.
		rec := ts.do(http.MethodGet, "/orders/mine", nil)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestHandleOrderHistory(t *testing.T) {
	t.Run("day period with stats", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()
		ts := newTestServer(t, ctrl)

		dayStart := time.Date(2025, 6, 2, 0, 0, 0, 0, time.Local)
		ts.storage.EXPECT().
			ListByCreatedRange(gomock.Any(), gomock.Eq(dayStart), gomock.Eq(dayStart.AddDate(0, 0, 1)), gomock.Eq(500)).
			Return([]*repository.Order{
				trackedRow("order-1", "WOLT-42", "arrived", lunchtime),
				trackedRow("order-2", "GLOVO-7", "arrived", lunchtime),
				trackedRow("order-3", "BOLT-9", "ordered", lunchtime),
			}, nil)

		rec := ts.do(http.MethodGet, "/orders/history?period=day&date=2025-06-02", nil)
		require.Equal(t, http.StatusOK, rec.Code)

		var resp historyResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		require.Len(t, resp.Orders, 3)
		assert.Equal(t, 3, resp.Stats.Total)
		assert.Equal(t, 2, resp.Stats.Arrived)
		assert.Equal(t, 1, resp.Stats.Ordered)
		assert.Equal(t, 0, resp.Stats.Collected)
	})

	t.Run("week period starts on monday", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()
		ts := newTestServer(t, ctrl)

		// 2025-06-04 is a Wednesday; its week runs Mon 06-02 .. Mon 06-09.
		weekStart := time.Date(2025, 6, 2, 0, 0, 0, 0, time.Local)
		ts.storage.EXPECT().
			ListByCreatedRange(gomock.Any(), gomock.Eq(weekStart), gomock.Eq(weekStart.AddDate(0, 0, 7)), gomock.Eq(500)).
			Return(nil, nil)

		rec := ts.do(http.MethodGet, "/orders/history?period=week&date=2025-06-04", nil)
		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("month period covers the calendar month", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()
		ts := newTestServer(t, ctrl)

		monthStart := time.Date(2025, 6, 1, 0, 0, 0, 0, time.Local)
		ts.storage.EXPECT().
			ListByCreatedRange(gomock.Any(), gomock.Eq(monthStart), gomock.Eq(monthStart.AddDate(0, 1, 0)), gomock.Eq(500)).
			Return(nil, nil)

		rec := ts.do(http.MethodGet, "/orders/history?period=month&date=2025-06-15", nil)
		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("defaults to the current day", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()
		ts := newTestServer(t, ctrl)

		dayStart := time.Date(2025, 6, 2, 0, 0, 0, 0, time.Local)
		ts.storage.EXPECT().
			ListByCreatedRange(gomock.Any(), gomock.Eq(dayStart), gomock.Eq(dayStart.AddDate(0, 0, 1)), gomock.Eq(500)).
			Return(nil, nil)

		rec := ts.do(http.MethodGet, "/orders/history", nil)
		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("unknown period", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()
		ts := newTestServer(t, ctrl)

		rec := ts.do(http.MethodGet, "/orders/history?period=year", nil)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("malformed date", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()
		ts := newTestServer(t, ctrl)

		rec := ts.do(http.MethodGet, "/orders/history?date=yesterday", nil)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestHandleUpdateStatus(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()
		ts := newTestServer(t, ctrl)

		ts.storage.EXPECT().
			UpdateStatus(gomock.Any(), gomock.Eq("order-1"), gomock.Eq(model.StatusCollected)).
			Return(nil)

		rec := ts.do(http.MethodPut, "/orders/order-1/status", map[string]string{"status": "collected"})
		assert.Equal(t, http.StatusNoContent, rec.Code)
	})

	t.Run("unknown status value", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()
		ts := newTestServer(t, ctrl)

		rec := ts.do(http.MethodPut, "/orders/order-1/status", map[string]string{"status": "lost"})
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("order not found", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()
		ts := newTestServer(t, ctrl)

		ts.storage.EXPECT().
			UpdateStatus(gomock.Any(), gomock.Eq("missing"), gomock.Any()).
			Return(repository.ErrOrderNotFound)

		rec := ts.do(http.MethodPut, "/orders/missing/status", map[string]string{"status": "collected"})
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("invalid transition maps to conflict", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()
		ts := newTestServer(t, ctrl)

		ts.storage.EXPECT().
			UpdateStatus(gomock.Any(), gomock.Eq("order-1"), gomock.Any()).
			Return(store.ErrInvalidTransition)

		rec := ts.do(http.MethodPut, "/orders/order-1/status", map[string]string{"status": "ordered"})
		assert.Equal(t, http.StatusConflict, rec.Code)
	})
}

func TestHandleDeleteOrder(t *testing.T) {
	t.Run("deletes and forgets ownership", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()
		ts := newTestServer(t, ctrl)

		ts.book.Record("WOLT-42", "Alice")

		ts.storage.EXPECT().
			GetByID(gomock.Any(), gomock.Eq("order-1")).
			Return(&repository.Order{ID: "order-1", OrderRef: "WOLT-42"}, nil)
		ts.storage.EXPECT().
			Delete(gomock.Any(), gomock.Eq("order-1")).
			Return(nil)

		rec := ts.do(http.MethodDelete, "/orders/order-1", nil)
		assert.Equal(t, http.StatusNoContent, rec.Code)
		assert.Empty(t, ts.book.OwnedRefs("Alice"))
	})

	t.Run("order not found", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()
		ts := newTestServer(t, ctrl)

		ts.storage.EXPECT().
			GetByID(gomock.Any(), gomock.Eq("missing")).
			Return(nil, repository.ErrOrderNotFound)

		rec := ts.do(http.MethodDelete, "/orders/missing", nil)
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("delete failure keeps ownership", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()
		ts := newTestServer(t, ctrl)

		ts.book.Record("WOLT-42", "Alice")

		ts.storage.EXPECT().
			GetByID(gomock.Any(), gomock.Eq("order-1")).
			Return(&repository.Order{ID: "order-1", OrderRef: "WOLT-42"}, nil)
		ts.storage.EXPECT().
			Delete(gomock.Any(), gomock.Eq("order-1")).
			Return(assert.AnError)

		rec := ts.do(http.MethodDelete, "/orders/order-1", nil)
		assert.Equal(t, http.StatusInternalServerError, rec.Code)
		assert.Equal(t, []string{"WOLT-42"}, ts.book.OwnedRefs("Alice"))
	})
}
