package audit

import (
	"github.com/gin-gonic/gin"

	"go_netinv/api/v1/middleware"
	"go_netinv/internal/httpx"
	"go_netinv/internal/store"
)

// ListRequest represents list audit logs request
type ListRequest struct {
	Page     int    `form:"page"`
	PageSize int    `form:"pageSize"`
	Action   string `form:"action"`
	UserID   *int   `form:"user_id"`
}

// Handler handles audit log API
type Handler struct {
	store *store.Store
}

// NewHandler creates a new audit log handler
func NewHandler(st *store.Store) *Handler {
	return &Handler{store: st}
}

// List handles GET /api/v1/audit/logs. Non-admins only see their own entries.
func (h *Handler) List(c *gin.Context) {
	var req ListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		httpx.FailErr(c, httpx.ErrParamInvalid(err.Error()))
		return
	}
	if req.Page < 1 {
		req.Page = 1
	}
	if req.PageSize < 1 || req.PageSize > 200 {
		req.PageSize = 20
	}

	filter := store.AuditFilter{
		Action: req.Action,
		UserID: req.UserID,
		Page:   store.Page{Page: req.Page, PageSize: req.PageSize},
	}
	if actor := middleware.CurrentActor(c); !actor.IsAdmin() {
		uid := actor.UID
		filter.UserID = &uid
	}

	logs, total, err := h.store.ListAuditLogs(c.Request.Context(), filter)
	if err != nil {
		httpx.FailErr(c, httpx.ErrDatabaseError("failed to fetch audit logs", err))
		return
	}
	httpx.OKItems(c, logs, total, req.Page, req.PageSize)
}
