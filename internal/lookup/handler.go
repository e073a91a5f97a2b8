package lookup

import (
	"barbershop_backend/internal/common"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Handler exposes the lookups to the address form.
type Handler struct {
	service *Service
	logger  *zap.Logger
}

// NewHandler creates a new lookup handler.
func NewHandler(service *Service, logger *zap.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// RegisterRoutes sets up the lookup routes.
func (h *Handler) RegisterRoutes(router *gin.RouterGroup) {
	router.GET("/cep/:cep", h.lookupCEP)

	localidades := router.Group("/localidades")
	{
		localidades.GET("/estados", h.listStates)
		localidades.GET("/estados/:uf/municipios", h.listMunicipalities)
	}
}

func (h *Handler) lookupCEP(c *gin.Context) {
	addr, err := h.service.LookupCEP(c.Request.Context(), c.Param("cep"))
	if err != nil {
		common.RespondWithError(c, err)
		return
	}
	common.RespondOK(c, "", gin.H{"address": addr})
}

func (h *Handler) listStates(c *gin.Context) {
	states, err := h.service.States(c.Request.Context())
	if err != nil {
		common.RespondWithError(c, err)
		return
	}
	common.RespondOK(c, "", gin.H{"estados": states})
}

func (h *Handler) listMunicipalities(c *gin.Context) {
	municipalities, err := h.service.Municipalities(c.Request.Context(), c.Param("uf"))
	if err != nil {
		common.RespondWithError(c, err)
		return
	}
	common.RespondOK(c, "", gin.H{"municipios": municipalities})
}
