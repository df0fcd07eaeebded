package middleware

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/yigit/schoolhub/internal/app/auth"
	"github.com/yigit/schoolhub/internal/app/models"
	"github.com/yigit/schoolhub/internal/app/models/dto"
	"github.com/yigit/schoolhub/internal/pkg/apperrors"
	"github.com/yigit/schoolhub/internal/pkg/ratelimit"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) dto.ErrorResponse {
	t.Helper()
	var body dto.ErrorResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode %q: %v", rec.Body.String(), err)
	}
	return body
}

func TestErrorStatus(t *testing.T) {
	cases := []struct {
		err    error
		status int
		msg    string
	}{
		{apperrors.NewValidationError("Name is required"), http.StatusBadRequest, "Name is required"},
		{apperrors.NewConflictError("Email already registered"), http.StatusBadRequest, "Email already registered"},
		{apperrors.NewInvalidReferenceError("Course does not exist"), http.StatusBadRequest, "Course does not exist"},
		{apperrors.ErrInvalidCredentials, http.StatusBadRequest, "Invalid email or password"},
		{apperrors.NewResourceNotFoundError("User not found"), http.StatusNotFound, "User not found"},
		{apperrors.NewUnauthenticatedError("Authentication required"), http.StatusUnauthorized, "Authentication required"},
		{apperrors.NewForbiddenError("Access denied"), http.StatusForbidden, "Access denied"},
		{fmt.Errorf("wrapped: %w", apperrors.NewConflictError("x")), http.StatusBadRequest, "x"},
		{errors.New("boom"), http.StatusInternalServerError, "Internal server error"},
	}
	for _, tc := range cases {
		status, detail := ErrorStatus(tc.err)
		if status != tc.status || detail.Message != tc.msg {
			t.Errorf("ErrorStatus(%v) = %d %q, want %d %q", tc.err, status, detail.Message, tc.status, tc.msg)
		}
	}
}

func TestRoleRequired(t *testing.T) {
	m := &AuthMiddleware{}
	newRouter := func(identity *auth.Identity) *gin.Engine {
		r := gin.New()
		r.GET("/t", func(c *gin.Context) {
			if identity != nil {
				c.Set(identityKey, identity)
			}
			c.Next()
		}, m.RoleRequired(models.RoleTeacher), func(c *gin.Context) {
			c.Status(http.StatusNoContent)
		})
		return r
	}

	rec := httptest.NewRecorder()
	newRouter(&auth.Identity{UserID: "t", Role: models.RoleTeacher}).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/t", nil))
	if rec.Code != http.StatusNoContent {
		t.Fatalf("teacher: got %d", rec.Code)
	}

	rec = httptest.NewRecorder()
	newRouter(&auth.Identity{UserID: "s", Role: models.RoleStudent}).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/t", nil))
	if rec.Code != http.StatusForbidden {
		t.Fatalf("student: got %d", rec.Code)
	}
	if body := decodeError(t, rec); body.Success || body.Error.Code != dto.ErrorCodeForbidden {
		t.Fatalf("unexpected body %+v", body)
	}
}

func TestBindJSON(t *testing.T) {
	r := gin.New()
	r.POST("/login", func(c *gin.Context) {
		var req dto.LoginRequest
		if !BindJSON(c, &req) {
			return
		}
		c.Status(http.StatusNoContent)
	})

	post := func(body string) *httptest.ResponseRecorder {
		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/login", strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		r.ServeHTTP(rec, req)
		return rec
	}

	if rec := post(`{"email":"a@x.test","password":"p"}`); rec.Code != http.StatusNoContent {
		t.Fatalf("valid body: got %d", rec.Code)
	}

	rec := post(`{"email":"a@x.test"}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("missing password: got %d", rec.Code)
	}
	if body := decodeError(t, rec); body.Error.Message != "Password is required" {
		t.Fatalf("unexpected message %q", body.Error.Message)
	}

	rec = post("")
	if rec.Code != http.StatusBadRequest || decodeError(t, rec).Error.Message != "Email is required" {
		t.Fatalf("empty body: got %d %s", rec.Code, rec.Body.String())
	}

	rec = post("{not json")
	if rec.Code != http.StatusBadRequest || decodeError(t, rec).Error.Message != "Invalid request format" {
		t.Fatalf("bad json: got %d %s", rec.Code, rec.Body.String())
	}
}

func TestRateLimit(t *testing.T) {
	limiter := ratelimit.NewLimiter(2, time.Hour)
	defer limiter.Stop()

	r := gin.New()
	r.Use(RateLimit(limiter))
	r.GET("/ping", func(c *gin.Context) { c.Status(http.StatusOK) })

	for i := 0; i < 2; i++ {
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/ping", nil))
		if rec.Code != http.StatusOK {
			t.Fatalf("request %d: got %d", i+1, rec.Code)
		}
	}

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/ping", nil))
	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 429, got %d", rec.Code)
	}
	if body := decodeError(t, rec); body.Error.Message != MsgTooManyRequests {
		t.Fatalf("unexpected message %q", body.Error.Message)
	}
}

func TestRecovery(t *testing.T) {
	r := gin.New()
	r.Use(Recovery())
	r.GET("/panic", func(c *gin.Context) { panic("boom") })

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/panic", nil))
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", rec.Code)
	}
	if body := decodeError(t, rec); body.Error.Code != dto.ErrorCodeInternalServer {
		t.Fatalf("unexpected body %+v", body)
	}
}
