package handlers

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestJobHandler_CreateJob_Unauthorized(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	handler := &JobHandler{jobs: nil}
	r.POST("/jobs", handler.CreateJob)

	req, _ := http.NewRequest("POST", "/jobs", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestJobHandler_CreateJob_InvalidBody(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	handler := &JobHandler{jobs: nil}
	r.POST("/jobs", authAs(uuid.New()), handler.CreateJob)

	req, _ := http.NewRequest("POST", "/jobs", strings.NewReader(`{"title": 42}`))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestJobHandler_GetJob_InvalidID(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	handler := &JobHandler{jobs: nil}
	r.GET("/jobs/:id", handler.GetJob)

	req, _ := http.NewRequest("GET", "/jobs/invalid-uuid", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestJobHandler_UpdateAllocations_BadWorkerID(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	handler := &JobHandler{jobs: nil}
	r.PUT("/jobs/:id/allocations", authAs(uuid.New()), handler.UpdateAllocations)

	body := `{"allocations": {"not-a-uuid": 5000}}`
	req, _ := http.NewRequest("PUT", "/jobs/"+uuid.NewString()+"/allocations", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestJobHandler_FundPublication_Unauthorized(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	handler := &JobHandler{jobs: nil}
	r.POST("/payments/:id/fund-publication", handler.FundPublication)

	req, _ := http.NewRequest("POST", "/payments/"+uuid.NewString()+"/fund-publication", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}
