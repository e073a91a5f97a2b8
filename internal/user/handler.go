// File: internal/user/handler.go
package user

import (
	"context"
	"errors"

	"barbershop_backend/internal/common"
	"barbershop_backend/internal/shared"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// AddressReader loads the address attached to a user, if any.
type AddressReader interface {
	GetForUser(ctx context.Context, userID uuid.UUID) (*shared.Address, error)
}

// Handler struct holds dependencies for user handlers.
type Handler struct {
	service   Service
	addresses AddressReader
	logger    *zap.Logger
}

// NewHandler creates a new user handler.
func NewHandler(service Service, addresses AddressReader, logger *zap.Logger) *Handler {
	return &Handler{
		service:   service,
		addresses: addresses,
		logger:    logger,
	}
}

// RegisterRoutes sets up the routes for user operations.
func (h *Handler) RegisterRoutes(router *gin.RouterGroup, authMW gin.HandlerFunc) {
	userGroup := router.Group("/user")
	{
		userGroup.POST("", h.register)
		userGroup.GET("/:id", authMW, h.getUserByID)
	}
}

func (h *Handler) register(c *gin.Context) {
	var req CreateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("User registration: Invalid request body", zap.Error(err))
		var ve validator.ValidationErrors
		if errors.As(err, &ve) {
			common.RespondWithError(c, common.NewValidationAPIError(common.FormatValidationErrors(ve)))
			return
		}
		common.RespondWithError(c, common.ErrBadRequest.WithDetails(err.Error()))
		return
	}

	usr, err := h.service.Register(c.Request.Context(), req)
	if err != nil {
		common.RespondWithError(c, err)
		return
	}
	common.RespondCreated(c, "User created successfully.", gin.H{"id": usr.ID})
}

func (h *Handler) getUserByID(c *gin.Context) {
	userIDToFetch, err := common.ParseUUIDParam(c, "id")
	if err != nil {
		common.RespondWithError(c, err)
		return
	}
	requestingUserID := common.GetUserIDFromContext(c)
	if requestingUserID != userIDToFetch {
		h.logger.Warn("User attempting to fetch another user's profile",
			zap.String("requestingUserID", requestingUserID.String()),
			zap.String("targetUserID", userIDToFetch.String()))
		common.RespondWithError(c, common.ErrForbidden.WithDetails("You are not authorized to view this profile."))
		return
	}

	usr, err := h.service.GetUserByID(c.Request.Context(), userIDToFetch)
	if err != nil {
		common.RespondWithError(c, err)
		return
	}
	addr, err := h.addresses.GetForUser(c.Request.Context(), usr.ID)
	if err != nil && !errors.Is(err, common.ErrNotFound) {
		common.RespondWithError(c, err)
		return
	}
	common.RespondOK(c, "User retrieved successfully.", gin.H{
		"user":    shared.ToUserResponse(usr),
		"address": addr,
	})
}
