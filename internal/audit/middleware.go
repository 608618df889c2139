// Package audit records successful user actions as AuditLog rows.
package audit

import (
	"context"
	"encoding/json"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/datatypes"

	"go_netinv/internal/model"
	"go_netinv/internal/util"
)

// gin context keys handlers use to describe the audited object
const (
	keyObject  = "audit_object"
	keyChanges = "audit_changes"
)

// Writer persists audit entries. *store.Store implements it.
type Writer interface {
	CreateAuditLog(ctx context.Context, entry *model.AuditLog) error
}

// SetObject names the object the request acted on
func SetObject(c *gin.Context, repr string) {
	c.Set(keyObject, repr)
}

// SetChanges attaches the changed fields, serialized as JSON
func SetChanges(c *gin.Context, changes interface{}) {
	c.Set(keyChanges, changes)
}

// Middleware writes one entry of kind action after the handler answered
// with a status below 400. Failing to write is logged and never affects
// the response.
func Middleware(w Writer, action model.AuditAction) gin.HandlerFunc {
	logger := util.WithComponent("audit")

	return func(c *gin.Context) {
		c.Next()

		status := c.Writer.Status()
		if status >= http.StatusBadRequest {
			return
		}

		entry := Entry(c, action)
		if err := w.CreateAuditLog(context.WithoutCancel(c.Request.Context()), entry); err != nil {
			logger.WithField("action", action).
				WithField("path", c.FullPath()).
				WithError(err).
				Error("failed to write audit log")
		}
	}
}

// Entry builds the audit row for the current request
func Entry(c *gin.Context, action model.AuditAction) *model.AuditLog {
	entry := &model.AuditLog{
		Username:   c.GetString("username"),
		Action:     action,
		ObjectRepr: truncate(c.GetString(keyObject), 255),
		IPAddress:  ClientIP(c.Request),
		UserAgent:  c.Request.UserAgent(),
		Timestamp:  time.Now(),
	}
	if uid := c.GetInt("uid"); uid > 0 {
		entry.UserID = model.IntPtr(uid)
	}

	if v, ok := c.Get(keyChanges); ok && v != nil {
		if b, err := json.Marshal(v); err == nil {
			entry.Changes = datatypes.JSON(b)
		}
	}

	extra, _ := json.Marshal(map[string]interface{}{
		"endpoint":    c.Request.URL.Path,
		"method":      c.Request.Method,
		"status_code": c.Writer.Status(),
		"request_id":  c.GetString("request_id"),
	})
	entry.AdditionalData = datatypes.JSON(extra)
	return entry
}

// ClientIP returns the first X-Forwarded-For hop, else the remote address host
func ClientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		first, _, _ := strings.Cut(xff, ",")
		if ip := strings.TrimSpace(first); ip != "" {
			return ip
		}
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
