package controller

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/ikkim/venue-backend/internal/app/model"
	"github.com/ikkim/venue-backend/internal/app/repository"
	"github.com/ikkim/venue-backend/internal/app/service"
	apperrors "github.com/ikkim/venue-backend/internal/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func intPtr(n int) *int { return &n }

func controllerVenues() []model.Venue {
	return []model.Venue{
		{ID: 1, Name: "NOCプラザ", Prefecture: "新潟県", Rooms: []model.Room{{Name: "main", CapacityTheater: intPtr(200)}}},
		{ID: 2, Name: "Hotel X", Prefecture: "東京都", Rooms: []model.Room{{Name: "main", CapacityTheater: intPtr(50)}},
			Facilities: model.Facilities{CanEatDrink: model.FlagItem(true)}},
		{ID: 3, Name: "東京会館", Prefecture: "東京都", Rooms: []model.Room{{Name: "main", CapacityTheater: intPtr(120)}}},
	}
}

func newTestCoordinator(t *testing.T, venues []model.Venue) (service.QueryCoordinator, *service.FilterEngine) {
	t.Helper()
	data, err := json.Marshal(model.VenueDataset{Venues: venues, Metadata: model.DatasetMetadata{Version: "test"}})
	require.NoError(t, err)

	engine := service.NewFilterEngine()
	repo := repository.NewVenueRepository(repository.NewBytesSource("test", data))
	return service.NewQueryCoordinator(repo, engine, service.QueryOptions{}), engine
}

func setupVenueControllerTest(t *testing.T, load bool) (*gin.Engine, service.QueryCoordinator) {
	coordinator, engine := newTestCoordinator(t, controllerVenues())
	if load {
		require.NoError(t, coordinator.Load(context.Background()))
	}
	ctrl := NewVenueController(coordinator, engine)

	gin.SetMode(gin.TestMode)
	router := gin.New()
	venues := router.Group("/api/v1/venues")
	venues.GET("", ctrl.ListVenues)
	venues.GET("/facets", ctrl.GetFacets)
	venues.GET("/status", ctrl.GetStatus)
	venues.POST("/reload", ctrl.Reload)
	venues.GET("/:id", ctrl.GetVenue)
	return router, coordinator
}

type listResponse struct {
	Venues []model.Venue `json:"venues"`
	Count  int           `json:"count"`
}

func names(venues []model.Venue) []string {
	out := make([]string, 0, len(venues))
	for _, v := range venues {
		out = append(out, v.Name)
	}
	return out
}

func TestVenueController_ListVenues(t *testing.T) {
	router, _ := setupVenueControllerTest(t, true)

	tests := []struct {
		name  string
		query string
		want  []string
	}{
		{"all venues", "", []string{"NOCプラザ", "Hotel X", "東京会館"}},
		{"text search", "?q=noc", []string{"NOCプラザ"}},
		{"capacity bucket", "?capacity=101-200", []string{"NOCプラザ", "東京会館"}},
		{"facet wins over text", "?prefecture=東京都&q=NOC", []string{"Hotel X", "東京会館"}},
		{"comma list", "?capacity=0-50,201-", []string{"Hotel X"}},
		{"repeated keys", "?prefecture=新潟県&prefecture=東京都&feature=food-allowed", []string{"Hotel X"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/v1/venues"+tt.query, nil)
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)

			require.Equal(t, http.StatusOK, w.Code, w.Body.String())
			var resp listResponse
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
			assert.Equal(t, tt.want, names(resp.Venues))
			assert.Equal(t, len(tt.want), resp.Count)
		})
	}
}

func TestVenueController_ListVenues_InvalidFacet(t *testing.T) {
	router, _ := setupVenueControllerTest(t, true)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/venues?feature=helipad", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	var body apperrors.ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, apperrors.ValidationInvalidFacet, body.Error)
}

func TestVenueController_NotLoaded(t *testing.T) {
	router, _ := setupVenueControllerTest(t, false)

	for _, path := range []string{"/api/v1/venues", "/api/v1/venues/facets", "/api/v1/venues/1"} {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusServiceUnavailable, w.Code, path)
		var body apperrors.ErrorResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
		assert.Equal(t, apperrors.DatasetLoading, body.Error)
		assert.True(t, body.Retryable)
	}
}

func TestVenueController_GetVenue(t *testing.T) {
	router, _ := setupVenueControllerTest(t, true)

	tests := []struct {
		path       string
		wantStatus int
	}{
		{"/api/v1/venues/2", http.StatusOK},
		{"/api/v1/venues/99", http.StatusNotFound},
		{"/api/v1/venues/abc", http.StatusBadRequest},
		{"/api/v1/venues/0", http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			w := httptest.NewRecorder()
			router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, tt.path, nil))
			assert.Equal(t, tt.wantStatus, w.Code)
		})
	}

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/venues/2", nil))
	var resp struct {
		Venue model.Venue `json:"venue"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "Hotel X", resp.Venue.Name)
}

func TestVenueController_GetFacets(t *testing.T) {
	router, _ := setupVenueControllerTest(t, true)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/venues/facets", nil))
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Facets service.FacetSummary `json:"facets"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Len(t, resp.Facets.Prefectures, 2)
	assert.Equal(t, service.FacetOption{Value: "新潟県", Label: "新潟県", Count: 1}, resp.Facets.Prefectures[0])
}

func TestVenueController_StatusAndReload(t *testing.T) {
	router, _ := setupVenueControllerTest(t, false)

	var status map[string]interface{}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/venues/status", nil))
	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &status))
	assert.Equal(t, "idle", status["state"])

	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/v1/venues/reload", nil))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/venues/status", nil))
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &status))
	assert.Equal(t, "loaded", status["state"])
	assert.Equal(t, float64(3), status["count"])
}

func TestVenueController_StatusAfterFailure(t *testing.T) {
	engine := service.NewFilterEngine()
	repo := repository.NewVenueRepository(repository.NewBytesSource("broken", []byte("not json")))
	coordinator := service.NewQueryCoordinator(repo, engine, service.QueryOptions{})
	ctrl := NewVenueController(coordinator, engine)

	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.GET("/status", ctrl.GetStatus)
	router.POST("/reload", ctrl.Reload)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/reload", nil))
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	var body apperrors.ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, apperrors.DatasetLoadFailed, body.Error)

	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/status", nil))
	var status map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &status))
	assert.Equal(t, "error", status["state"])
	assert.Equal(t, repository.LoadMessage, status["message"])
	assert.Contains(t, status["cause"], "会場データの形式が正しくありません")
	assert.Equal(t, true, status["retryable"])
}
