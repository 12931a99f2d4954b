package handler

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/docflow/review-service/converter"
	"github.com/docflow/review-service/middleware"
	"github.com/docflow/review-service/models"
	"github.com/docflow/review-service/repository"
	"github.com/docflow/review-service/service"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubReviewService struct {
	record *models.FileRecord
	err    error
}

func (s *stubReviewService) Transition(_ context.Context, _ *models.Actor, _ uuid.UUID, _ models.ReviewAction) (*models.FileRecord, error) {
	return s.record, s.err
}

func performTransition(t *testing.T, svc service.ReviewService, actor *models.Actor, id, body string) *httptest.ResponseRecorder {
	t.Helper()
	gin.SetMode(gin.TestMode)
	r := gin.New()
	h := NewReviewHandler(svc)
	r.POST("/api/files/:id/transition", func(c *gin.Context) {
		if actor != nil {
			middleware.SetActor(c, actor)
		}
		h.Transition(c)
	})

	req := httptest.NewRequest(http.MethodPost, "/api/files/"+id+"/transition", bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func reviewerActor() *models.Actor {
	return models.NewActor(&models.User{Role: models.RoleSuperReviewer, Active: true})
}

func TestTransitionUnauthenticated(t *testing.T) {
	w := performTransition(t, &stubReviewService{}, nil, uuid.NewString(), `{"action":"approve"}`)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestTransitionBadFileID(t *testing.T) {
	w := performTransition(t, &stubReviewService{}, reviewerActor(), "not-a-uuid", `{"action":"approve"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestTransitionMissingAction(t *testing.T) {
	w := performTransition(t, &stubReviewService{}, reviewerActor(), uuid.NewString(), `{}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestTransitionErrorMapping(t *testing.T) {
	cases := []struct {
		name string
		err  error
		code int
	}{
		{"forbidden", service.ErrForbidden, http.StatusForbidden},
		{"not found", service.ErrNotFound, http.StatusNotFound},
		{"invalid action", service.ErrInvalidAction, http.StatusBadRequest},
		{"conflict", repository.ErrConflict, http.StatusConflict},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			w := performTransition(t, &stubReviewService{err: tc.err}, reviewerActor(), uuid.NewString(), `{"action":"approve"}`)
			assert.Equal(t, tc.code, w.Code)
		})
	}
}

func TestTransitionSuccess(t *testing.T) {
	record := &models.FileRecord{Status: models.StatusApproved}
	w := performTransition(t, &stubReviewService{record: record}, reviewerActor(), uuid.NewString(), `{"action":"approve"}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"status":"approved"`)
}

func TestConversionErrorCarriesKind(t *testing.T) {
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	respondError(c, &converter.Error{Kind: converter.Timeout})

	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Contains(t, w.Body.String(), `"kind":"timeout"`)
}
