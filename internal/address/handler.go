package address

import (
	"errors"

	"barbershop_backend/internal/common"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
)

// Handler struct holds dependencies for address handlers.
type Handler struct {
	service Service
	logger  *zap.Logger
}

// NewHandler creates a new address handler.
func NewHandler(service Service, logger *zap.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// RegisterRoutes sets up the address routes.
func (h *Handler) RegisterRoutes(router *gin.RouterGroup, authMW gin.HandlerFunc) {
	router.POST("/user/:id", h.create)
	router.GET("/user/:id/address", authMW, h.getForUser)
	router.POST("/address/progress", h.progress)
}

func (h *Handler) create(c *gin.Context) {
	userID, err := common.ParseUUIDParam(c, "id")
	if err != nil {
		common.RespondWithError(c, err)
		return
	}

	var req CreateAddressRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("Address intake: Invalid request body", zap.Error(err))
		var ve validator.ValidationErrors
		if errors.As(err, &ve) {
			common.RespondWithError(c, common.NewValidationAPIError(common.FormatValidationErrors(ve)))
			return
		}
		common.RespondWithError(c, common.ErrBadRequest.WithDetails(err.Error()))
		return
	}

	addr, err := h.service.CreateForUser(c.Request.Context(), userID, req)
	if err != nil {
		common.RespondWithError(c, err)
		return
	}
	common.RespondOK(c, "Address created successfully.", gin.H{"address": addr})
}

func (h *Handler) getForUser(c *gin.Context) {
	userID, err := common.ParseUUIDParam(c, "id")
	if err != nil {
		common.RespondWithError(c, err)
		return
	}
	if common.GetUserIDFromContext(c) != userID {
		common.RespondWithError(c, common.ErrForbidden.WithDetails("You are not authorized to view this address."))
		return
	}

	addr, err := h.service.GetForUser(c.Request.Context(), userID)
	if err != nil {
		common.RespondWithError(c, err)
		return
	}
	common.RespondOK(c, "", gin.H{"address": addr})
}

// progress reports how complete a draft address form is. Nothing is stored.
func (h *Handler) progress(c *gin.Context) {
	var draft Draft
	if err := c.ShouldBindJSON(&draft); err != nil {
		common.RespondWithError(c, common.ErrBadRequest.WithDetails(err.Error()))
		return
	}
	report := Progress(draft)
	common.RespondOK(c, "", gin.H{
		"percentage": report.Percentage,
		"filled":     report.Filled,
		"total":      report.Total,
		"missing":    report.Missing,
	})
}
