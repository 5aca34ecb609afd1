package errors

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/ikkim/venue-backend/internal/app/service"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func TestParseError(t *testing.T) {
	tests := []struct {
		name          string
		err           error
		context       string
		wantStatus    int
		wantCode      string
		wantRetryable bool
	}{
		{"load failure", &service.LoadError{Source: "file:x", Cause: errors.New("boom")}, "", http.StatusServiceUnavailable, DatasetLoadFailed, true},
		{"loading", service.ErrDatasetLoading, "", http.StatusServiceUnavailable, DatasetLoading, true},
		{"not loaded", service.ErrDatasetNotLoaded, "", http.StatusServiceUnavailable, DatasetLoading, true},
		{"superseded", service.ErrLoadSuperseded, "", http.StatusConflict, DatasetSuperseded, false},
		{"selection full", fmt.Errorf("toggle: %w", service.ErrSelectionFull), "", http.StatusConflict, ComparisonSelectionFull, false},
		{"venue not found", service.ErrVenueNotFound, "", http.StatusNotFound, VenueNotFound, false},
		{"invalid facet", fmt.Errorf("%w: feature %q", service.ErrInvalidFacet, "x"), "", http.StatusBadRequest, ValidationInvalidFacet, false},
		{"gorm not found", gorm.ErrRecordNotFound, "venue", http.StatusNotFound, ResourceNotFound, false},
		{"network", errors.New("dial tcp: connection refused"), "", http.StatusBadGateway, InternalExternalAPI, true},
		{"unknown", errors.New("something else"), "", http.StatusInternalServerError, InternalServerError, false},
		{"nil", nil, "", http.StatusInternalServerError, InternalServerError, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			info := ParseError(tt.err, tt.context)
			assert.Equal(t, tt.wantStatus, info.Status)
			assert.Equal(t, tt.wantCode, info.Code)
			assert.Equal(t, tt.wantRetryable, info.Retryable)
			assert.NotEmpty(t, info.Message)
		})
	}
}

func TestParseError_HidesInternalDetails(t *testing.T) {
	info := ParseError(&service.LoadError{Source: "s3:secret/key", Cause: errors.New("AccessDenied")}, "")
	assert.NotContains(t, info.Message, "secret")
	assert.NotContains(t, info.Message, "AccessDenied")
}

func TestParseError_ContextMessages(t *testing.T) {
	assert.Equal(t, "会場が見つかりません", ParseError(gorm.ErrRecordNotFound, "venue lookup").Message)
	assert.Contains(t, ParseError(errors.New("x"), "export matrix").Message, "出力")
	assert.Contains(t, ParseError(errors.New("x"), "toggle selection").Message, "比較")
}

func TestParseAndRespond(t *testing.T) {
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)

	ParseAndRespond(c, service.ErrDatasetLoading, "list venues")

	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	var body ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, DatasetLoading, body.Error)
	assert.True(t, body.Retryable)
}

func TestResponseHelpers(t *testing.T) {
	gin.SetMode(gin.TestMode)

	tests := []struct {
		name       string
		respond    func(c *gin.Context)
		wantStatus int
		wantCode   string
	}{
		{"bad request", func(c *gin.Context) { BadRequest(c, ValidationInvalidID, "不正なID") }, http.StatusBadRequest, ValidationInvalidID},
		{"not found", func(c *gin.Context) { NotFound(c, VenueNotFound, "会場が見つかりません") }, http.StatusNotFound, VenueNotFound},
		{"too many requests", func(c *gin.Context) { TooManyRequests(c, "") }, http.StatusTooManyRequests, RateLimitExceeded},
		{"internal", func(c *gin.Context) { InternalError(c, "") }, http.StatusInternalServerError, InternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(w)
			tt.respond(c)

			assert.Equal(t, tt.wantStatus, w.Code)
			var body ErrorResponse
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
			assert.Equal(t, tt.wantCode, body.Error)
			assert.NotEmpty(t, body.Message)
			assert.False(t, body.Retryable)
		})
	}
}
