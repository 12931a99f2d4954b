package handler

import (
	"errors"
	"net/http"

	"github.com/docflow/review-service/converter"
	"github.com/docflow/review-service/models"
	"github.com/docflow/review-service/repository"
	"github.com/docflow/review-service/service"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// respondError maps service errors onto HTTP statuses. Conversion failures
// carry their kind so the client can show a specific reason and offer a
// retry; they are never folded into a generic 500.
func respondError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrForbidden):
		c.JSON(http.StatusForbidden, gin.H{"error": err.Error()})
	case errors.Is(err, service.ErrNotFound), errors.Is(err, gorm.ErrRecordNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
	case errors.Is(err, models.ErrInvalidChangeKind), errors.Is(err, service.ErrInvalidAction):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, repository.ErrConflict):
		c.JSON(http.StatusConflict, gin.H{"error": "record was modified concurrently, retry"})
	case converter.KindOf(err) != "":
		c.JSON(http.StatusUnprocessableEntity, gin.H{
			"error": err.Error(),
			"kind":  string(converter.KindOf(err)),
		})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	}
}
