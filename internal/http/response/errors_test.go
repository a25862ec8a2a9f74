package response

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"

	domainagg "github.com/yungbote/project-radar/internal/domain/aggregates"
)

func TestStatusOf(t *testing.T) {
	cases := map[domainagg.ErrorCode]int{
		domainagg.CodeValidation:          http.StatusBadRequest,
		domainagg.CodeNotFound:            http.StatusNotFound,
		domainagg.CodeUnknownProject:      http.StatusNotFound,
		domainagg.CodeInvalidCutoff:       http.StatusConflict,
		domainagg.CodeSequenceUnavailable: http.StatusServiceUnavailable,
		domainagg.CodeAdvanceConflict:     http.StatusConflict,
		domainagg.CodeConflict:            http.StatusConflict,
		domainagg.CodeInvariantViolation:  http.StatusConflict,
		domainagg.CodeRetryable:           http.StatusServiceUnavailable,
		domainagg.CodeInternal:            http.StatusInternalServerError,
		"":                                http.StatusInternalServerError,
	}
	for code, want := range cases {
		if got := StatusOf(code); got != want {
			t.Fatalf("StatusOf(%q): want=%d got=%d", code, want, got)
		}
	}
}

func TestErrorWritesEnvelope(t *testing.T) {
	gin.SetMode(gin.TestMode)

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	Error(c, domainagg.NewError(domainagg.CodeInvalidCutoff, "Radar.Advance", "cutoff before live cutoff", nil))
	if rec.Code != http.StatusConflict {
		t.Fatalf("status: want=%d got=%d", http.StatusConflict, rec.Code)
	}
	var env ErrorEnvelope
	if err := json.Unmarshal(rec.Body.Bytes(), &env); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if env.Error.Code != "invalid_cutoff" || env.Error.Message != "cutoff before live cutoff" {
		t.Fatalf("envelope: got=%+v", env.Error)
	}

	rec = httptest.NewRecorder()
	c, _ = gin.CreateTestContext(rec)
	Error(c, errors.New("pq: connection refused to 10.0.0.3"))
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("plain error status: want=500 got=%d", rec.Code)
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &env); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if env.Error.Message != http.StatusText(http.StatusInternalServerError) {
		t.Fatalf("internal message leaked: %q", env.Error.Message)
	}

	rec = httptest.NewRecorder()
	c, _ = gin.CreateTestContext(rec)
	Error(c, domainagg.NewError(domainagg.CodeSequenceUnavailable, "Radar.Sequence.Next", "contended", nil))
	if rec.Header().Get("Retry-After") == "" {
		t.Fatalf("transient error should set Retry-After")
	}
}
