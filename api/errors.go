package api

import (
	"errors"
	"net/http"

	"github.com/example/storefront/pkg/models"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// respondError maps domain errors to HTTP statuses. Anything outside the
// taxonomy is a 500 with a generic body; detail stays in the log.
func (s *Server) respondError(c *gin.Context, err error) {
	var (
		notFound   *models.NotFoundError
		validation *models.ValidationError
		stock      *models.InsufficientStockError
		state      *models.InvalidStateError
	)

	switch {
	case errors.As(err, &notFound):
		c.JSON(http.StatusNotFound, gin.H{"message": err.Error()})
	case errors.As(err, &validation), errors.As(err, &stock), errors.As(err, &state):
		c.JSON(http.StatusBadRequest, gin.H{"message": err.Error()})
	default:
		s.logger.Error("request failed",
			zap.String("path", c.Request.URL.Path),
			zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"message": "internal server error"})
	}
}
