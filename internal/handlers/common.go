package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/cyphera/authority-proxy/internal/delegation"
	"github.com/cyphera/authority-proxy/internal/metadata"
	"github.com/cyphera/authority-proxy/internal/middleware"
	"github.com/cyphera/authority-proxy/internal/mintwrapper"
	"github.com/cyphera/authority-proxy/internal/services"
	"github.com/cyphera/authority-proxy/internal/signer"
	"github.com/gagliardetto/solana-go"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

//go:generate mockgen -destination=../mocks/mock_delegation_service.go -package=mocks github.com/cyphera/authority-proxy/internal/handlers DelegationService

// DelegationService is what the HTTP layer needs from services.DelegationService.
type DelegationService interface {
	MetadataAddress(mint solana.PublicKey) (solana.PublicKey, uint8, error)
	GetMetadataStatus(ctx context.Context, mint solana.PublicKey) (*services.MetadataStatus, error)
	Plan(ctx context.Context, params services.PlanParams) (*services.Plan, error)
	BuildTransaction(ctx context.Context, params services.PlanParams) (*services.UnsignedTransaction, error)
}

// ErrorResponse represents a standard error response
type ErrorResponse struct {
	Error  string `json:"error"`
	Detail string `json:"detail,omitempty"`
}

// sendError is a helper function that combines logging and error response
// It logs the error with the given message and sends a JSON error response
func sendError(c *gin.Context, statusCode int, message string, err error) {
	log := middleware.LogWithCorrelationID(c.Request.Context())
	fields := []zap.Field{
		zap.Error(err),
		zap.String("path", c.Request.URL.Path),
		zap.String("method", c.Request.Method),
		zap.Int("status", statusCode),
	}
	if statusCode >= http.StatusInternalServerError {
		log.Error(message, fields...)
	} else {
		log.Info(message, fields...)
	}

	resp := ErrorResponse{Error: message}
	if err != nil && statusCode < http.StatusInternalServerError {
		resp.Detail = err.Error()
	}
	c.JSON(statusCode, resp)
}

// handleServiceError maps delegation failures to HTTP status codes.
// Rejections the chain would also produce are 422; anything else is a 500.
func handleServiceError(c *gin.Context, err error, message string) {
	switch {
	case errors.Is(err, services.ErrMintWrapperNotFound):
		sendError(c, http.StatusNotFound, message, err)
	case errors.Is(err, delegation.ErrUnauthorized),
		errors.Is(err, delegation.ErrDispatchRejected),
		errors.Is(err, delegation.ErrInvalidProgram),
		errors.Is(err, services.ErrMintMismatch),
		errors.Is(err, services.ErrWrapperAddressMismatch),
		errors.Is(err, signer.ErrSeedMismatch),
		errors.Is(err, mintwrapper.ErrAccountDiscriminator),
		errors.Is(err, metadata.ErrNotMetadataRecord):
		sendError(c, http.StatusUnprocessableEntity, message, err)
	default:
		sendError(c, http.StatusInternalServerError, message, err)
	}
}

// sendSuccess is a helper function that sends a success response
func sendSuccess(c *gin.Context, statusCode int, data interface{}) {
	c.JSON(statusCode, data)
}

func parsePublicKey(value string) (solana.PublicKey, error) {
	return solana.PublicKeyFromBase58(value)
}
