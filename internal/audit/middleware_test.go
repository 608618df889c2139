package audit

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"

	"go_netinv/internal/model"
)

type memWriter struct {
	entries []*model.AuditLog
	err     error
}

func (m *memWriter) CreateAuditLog(_ context.Context, e *model.AuditLog) error {
	if m.err != nil {
		return m.err
	}
	m.entries = append(m.entries, e)
	return nil
}

func newRouter(w Writer, status int) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.POST("/devices/create",
		func(c *gin.Context) {
			c.Set("uid", 7)
			c.Set("username", "alice")
			c.Set("request_id", "req-1")
			c.Next()
		},
		Middleware(w, model.AuditActionCreate),
		func(c *gin.Context) {
			SetObject(c, "Device: core-sw-01")
			SetChanges(c, map[string]string{"name": "core-sw-01"})
			c.JSON(status, gin.H{})
		},
	)
	return r
}

func TestMiddleware_WritesOnSuccess(t *testing.T) {
	w := &memWriter{}
	r := newRouter(w, http.StatusOK)

	req := httptest.NewRequest(http.MethodPost, "/devices/create", nil)
	req.Header.Set("X-Forwarded-For", "203.0.113.9, 10.0.0.1")
	req.Header.Set("User-Agent", "netinv-test")
	r.ServeHTTP(httptest.NewRecorder(), req)

	if len(w.entries) != 1 {
		t.Fatalf("Expected 1 audit entry, got %d", len(w.entries))
	}
	e := w.entries[0]
	if e.Action != model.AuditActionCreate || e.Username != "alice" || e.UserID == nil || *e.UserID != 7 {
		t.Errorf("Unexpected actor/action: %+v", e)
	}
	if e.ObjectRepr != "Device: core-sw-01" {
		t.Errorf("Unexpected object repr %q", e.ObjectRepr)
	}
	if e.IPAddress != "203.0.113.9" || e.UserAgent != "netinv-test" {
		t.Errorf("Unexpected client info %q / %q", e.IPAddress, e.UserAgent)
	}

	var extra map[string]interface{}
	if err := json.Unmarshal(e.AdditionalData, &extra); err != nil {
		t.Fatalf("Failed to decode additional data: %v", err)
	}
	if extra["method"] != "POST" || extra["request_id"] != "req-1" || extra["status_code"] != float64(200) {
		t.Errorf("Unexpected additional data: %v", extra)
	}
}

func TestMiddleware_SkipsFailures(t *testing.T) {
	w := &memWriter{}
	r := newRouter(w, http.StatusConflict)

	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodPost, "/devices/create", nil))

	if len(w.entries) != 0 {
		t.Errorf("Expected no audit entry for a failed request, got %d", len(w.entries))
	}
}

func TestMiddleware_WriteErrorDoesNotBreakResponse(t *testing.T) {
	r := newRouter(&memWriter{err: errors.New("disk full")}, http.StatusOK)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/devices/create", nil))

	if rec.Code != http.StatusOK {
		t.Errorf("Expected 200, got %d", rec.Code)
	}
}

func TestClientIP(t *testing.T) {
	tests := []struct {
		name   string
		xff    string
		remote string
		want   string
	}{
		{"forwarded", "198.51.100.4", "10.0.0.1:5555", "198.51.100.4"},
		{"first hop wins", " 198.51.100.4 , 10.1.1.1", "10.0.0.1:5555", "198.51.100.4"},
		{"remote addr", "", "192.0.2.10:40000", "192.0.2.10"},
		{"remote without port", "", "192.0.2.11", "192.0.2.11"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.RemoteAddr = tt.remote
			if tt.xff != "" {
				req.Header.Set("X-Forwarded-For", tt.xff)
			}
			if got := ClientIP(req); got != tt.want {
				t.Errorf("ClientIP() = %q, want %q", got, tt.want)
			}
		})
	}
}
