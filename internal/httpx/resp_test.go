package httpx

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
)

func setupTestRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	return gin.New()
}

func serve(r *gin.Engine, path string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", path, nil)
	r.ServeHTTP(w, req)
	return w
}

func TestOK(t *testing.T) {
	r := setupTestRouter()
	r.GET("/test", func(c *gin.Context) {
		OK(c, gin.H{"status": "online"})
	})

	w := serve(r, "/test")
	if w.Code != http.StatusOK {
		t.Errorf("Expected status %d, got %d", http.StatusOK, w.Code)
	}

	var resp Response
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("Failed to unmarshal response: %v", err)
	}
	if resp.Code != CodeSuccess {
		t.Errorf("Expected code %d, got %d", CodeSuccess, resp.Code)
	}
	if resp.Message != "success" {
		t.Errorf("Expected message 'success', got '%s'", resp.Message)
	}
	if resp.Data == nil {
		t.Error("Expected data to be non-nil")
	}
}

func TestOKMsg(t *testing.T) {
	r := setupTestRouter()
	r.GET("/test", func(c *gin.Context) {
		OKMsg(c, "Device statuses updated successfully", nil)
	})

	var resp Response
	json.Unmarshal(serve(r, "/test").Body.Bytes(), &resp)

	if resp.Message != "Device statuses updated successfully" {
		t.Errorf("Unexpected message '%s'", resp.Message)
	}
}

func TestFail(t *testing.T) {
	r := setupTestRouter()
	r.GET("/test", func(c *gin.Context) {
		Fail(c, http.StatusBadRequest, CodeParamMissing, "command is required")
	})

	w := serve(r, "/test")
	if w.Code != http.StatusBadRequest {
		t.Errorf("Expected status %d, got %d", http.StatusBadRequest, w.Code)
	}

	var resp Response
	json.Unmarshal(w.Body.Bytes(), &resp)
	if resp.Code != CodeParamMissing {
		t.Errorf("Expected code %d, got %d", CodeParamMissing, resp.Code)
	}
	if resp.Data != nil {
		t.Errorf("Expected nil data, got %v", resp.Data)
	}
}

func TestFailErr_HidesInternalError(t *testing.T) {
	r := setupTestRouter()
	r.GET("/test", func(c *gin.Context) {
		FailErr(c, ErrDatabaseError("failed to query devices", errors.New("dial tcp 10.0.0.5:3306: refused")))
	})

	w := serve(r, "/test")
	if w.Code != http.StatusInternalServerError {
		t.Errorf("Expected status %d, got %d", http.StatusInternalServerError, w.Code)
	}

	body := w.Body.String()
	var resp Response
	json.Unmarshal(w.Body.Bytes(), &resp)
	if resp.Code != CodeDatabaseError {
		t.Errorf("Expected code %d, got %d", CodeDatabaseError, resp.Code)
	}
	if resp.Message != "failed to query devices" {
		t.Errorf("Unexpected message '%s'", resp.Message)
	}
	if strings.Contains(body, "10.0.0.5") {
		t.Errorf("Internal error leaked to client: %s", body)
	}
}

func TestOKItems(t *testing.T) {
	r := setupTestRouter()
	r.GET("/test", func(c *gin.Context) {
		OKItems(c, []string{"core-sw-01", "edge-rtr-01"}, 2, 1, 20)
	})

	var resp struct {
		Code int `json:"code"`
		Data struct {
			Items    []string `json:"items"`
			Total    int64    `json:"total"`
			Page     int      `json:"page"`
			PageSize int      `json:"page_size"`
		} `json:"data"`
	}
	if err := json.Unmarshal(serve(r, "/test").Body.Bytes(), &resp); err != nil {
		t.Fatalf("Failed to unmarshal response: %v", err)
	}

	if len(resp.Data.Items) != 2 {
		t.Errorf("Expected 2 items, got %d", len(resp.Data.Items))
	}
	if resp.Data.Total != 2 || resp.Data.Page != 1 || resp.Data.PageSize != 20 {
		t.Errorf("Unexpected pagination: %+v", resp.Data)
	}
}
