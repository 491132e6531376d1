package registrations

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/nexus-society/backend/internal/middleware"
	"github.com/nexus-society/backend/internal/models"
	"github.com/nexus-society/backend/pkg/response"
)

func newTestRouter(store *memStore, userID uuid.UUID) *gin.Engine {
	gin.SetMode(gin.TestMode)
	engine := NewEngine(store, nil, nil)
	h := NewHandler(engine, nil, nil)

	r := gin.New()
	authed := func(c *gin.Context) {
		c.Set(middleware.ContextUserID, userID)
		c.Next()
	}
	r.POST("/events/:id/register", authed, h.Register)
	r.DELETE("/events/:id/register", authed, h.Withdraw)
	r.GET("/events/:id/registrations", authed, h.ListByEvent)
	r.GET("/users/me/registrations", authed, h.ListMine)
	r.PUT("/registrations/:id/approve", authed, h.Approve)
	r.PUT("/registrations/:id/reject", authed, h.Reject)
	return r
}

func doRequest(t *testing.T, r *gin.Engine, method, path, body string) (*httptest.ResponseRecorder, response.Body) {
	t.Helper()
	var reader *strings.Reader
	if body == "" {
		reader = strings.NewReader("")
	} else {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	var parsed response.Body
	if err := json.Unmarshal(w.Body.Bytes(), &parsed); err != nil {
		t.Fatalf("unmarshal response %q: %v", w.Body.String(), err)
	}
	return w, parsed
}

func TestRegisterEndpoint(t *testing.T) {
	store := newMemStore()
	ev := store.addEvent(1, models.EventUpcoming)
	user := uuid.New()
	r := newTestRouter(store, user)

	w, body := doRequest(t, r, http.MethodPost, "/events/"+ev.ID.String()+"/register", "")
	if w.Code != http.StatusOK || !body.Success {
		t.Fatalf("status = %d, body = %+v", w.Code, body)
	}

	// Same pair again maps to 400 conflict.
	w, body = doRequest(t, r, http.MethodPost, "/events/"+ev.ID.String()+"/register", "")
	if w.Code != http.StatusBadRequest || body.Code != "conflict" {
		t.Errorf("duplicate: status = %d, code = %q", w.Code, body.Code)
	}
}

func TestRegisterEndpointErrors(t *testing.T) {
	store := newMemStore()
	closed := store.addEvent(5, models.EventCompleted)
	user := uuid.New()
	r := newTestRouter(store, user)

	tests := []struct {
		name       string
		path       string
		wantStatus int
		wantCode   string
	}{
		{"malformed id", "/events/not-a-uuid/register", http.StatusBadRequest, ""},
		{"unknown event", "/events/" + uuid.NewString() + "/register", http.StatusNotFound, "not_found"},
		{"event not open", "/events/" + closed.ID.String() + "/register", http.StatusBadRequest, "event_not_open"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w, body := doRequest(t, r, http.MethodPost, tt.path, "")
			if w.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", w.Code, tt.wantStatus)
			}
			if body.Code != tt.wantCode {
				t.Errorf("code = %q, want %q", body.Code, tt.wantCode)
			}
		})
	}
}

func TestApproveEndpointFullEvent(t *testing.T) {
	store := newMemStore()
	ev := store.addEvent(1, models.EventUpcoming)
	admin := uuid.New()
	r := newTestRouter(store, admin)

	engine := NewEngine(store, nil, nil)
	regA, err := engine.Request(context.Background(), uuid.New(), ev.ID)
	if err != nil {
		t.Fatalf("Request A: %v", err)
	}
	regB, err := engine.Request(context.Background(), uuid.New(), ev.ID)
	if err != nil {
		t.Fatalf("Request B: %v", err)
	}

	w, body := doRequest(t, r, http.MethodPut, "/registrations/"+regA.ID.String()+"/approve", `{"notes":"ok"}`)
	if w.Code != http.StatusOK || !body.Success {
		t.Fatalf("approve A: status = %d, body = %+v", w.Code, body)
	}

	w, body = doRequest(t, r, http.MethodPut, "/registrations/"+regB.ID.String()+"/approve", "")
	if w.Code != http.StatusBadRequest || body.Code != "event_full" {
		t.Errorf("approve B: status = %d, code = %q", w.Code, body.Code)
	}

	// Terminal state maps to invalid_transition.
	w, body = doRequest(t, r, http.MethodPut, "/registrations/"+regA.ID.String()+"/reject", "")
	if w.Code != http.StatusBadRequest || body.Code != "invalid_transition" {
		t.Errorf("reject approved: status = %d, code = %q", w.Code, body.Code)
	}
}

func TestReviewNotesTooLong(t *testing.T) {
	store := newMemStore()
	ev := store.addEvent(5, models.EventUpcoming)
	admin := uuid.New()
	r := newTestRouter(store, admin)

	engine := NewEngine(store, nil, nil)
	reg, err := engine.Request(context.Background(), uuid.New(), ev.ID)
	if err != nil {
		t.Fatalf("Request: %v", err)
	}

	long := strings.Repeat("x", 501)
	w, _ := doRequest(t, r, http.MethodPut, "/registrations/"+reg.ID.String()+"/approve", `{"notes":"`+long+`"}`)
	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", w.Code)
	}
}

func TestWithdrawEndpoint(t *testing.T) {
	store := newMemStore()
	ev := store.addEvent(5, models.EventUpcoming)
	user := uuid.New()
	r := newTestRouter(store, user)

	w, body := doRequest(t, r, http.MethodDelete, "/events/"+ev.ID.String()+"/register", "")
	if w.Code != http.StatusNotFound || body.Code != "not_found" {
		t.Errorf("withdraw without registration: status = %d, code = %q", w.Code, body.Code)
	}

	if _, err := NewEngine(store, nil, nil).Request(context.Background(), user, ev.ID); err != nil {
		t.Fatalf("Request: %v", err)
	}
	w, body = doRequest(t, r, http.MethodDelete, "/events/"+ev.ID.String()+"/register", "")
	if w.Code != http.StatusOK || !body.Success {
		t.Errorf("withdraw: status = %d, body = %+v", w.Code, body)
	}
}

func TestListEndpoints(t *testing.T) {
	store := newMemStore()
	ev := store.addEvent(5, models.EventUpcoming)
	user := uuid.New()
	r := newTestRouter(store, user)

	if _, err := NewEngine(store, nil, nil).Request(context.Background(), user, ev.ID); err != nil {
		t.Fatalf("Request: %v", err)
	}

	w, body := doRequest(t, r, http.MethodGet, "/events/"+ev.ID.String()+"/registrations", "")
	if w.Code != http.StatusOK || !body.Success {
		t.Errorf("list by event: status = %d, body = %+v", w.Code, body)
	}

	w, body = doRequest(t, r, http.MethodGet, "/events/"+uuid.NewString()+"/registrations", "")
	if w.Code != http.StatusNotFound || body.Code != "not_found" {
		t.Errorf("list unknown event: status = %d, code = %q", w.Code, body.Code)
	}

	w, body = doRequest(t, r, http.MethodGet, "/users/me/registrations", "")
	if w.Code != http.StatusOK || !body.Success {
		t.Errorf("list mine: status = %d, body = %+v", w.Code, body)
	}
}
