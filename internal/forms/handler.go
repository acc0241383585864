package forms

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"community-registration/volunteer-forms-backend/internal/filler"
)

type Handler struct {
	service Service
	logger  *zap.Logger
}

func NewHandler(service Service, logger *zap.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// RegisterRoutes mounts the versioned form endpoints. admin guards the audit
// listing.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup, admin gin.HandlerFunc) {
	forms := rg.Group("/forms")
	{
		forms.POST("/generate", h.GeneratePDF)
		forms.POST("/volunteer", h.FillVolunteerForm)
		forms.GET("/generations", admin, h.ListGenerations)
	}
}

// RegisterLegacyRoutes mounts the unversioned path existing clients post to.
func (h *Handler) RegisterLegacyRoutes(r gin.IRoutes) {
	r.POST("/generate_pdf", h.GeneratePDF)
}

func (h *Handler) GeneratePDF(c *gin.Context) {
	var req GeneratePDFRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	result, err := h.service.GeneratePDF(c.Request.Context(), req.Arr)
	if err != nil {
		h.fail(c, err)
		return
	}

	c.FileAttachment(result.Path, result.FileName)
}

func (h *Handler) FillVolunteerForm(c *gin.Context) {
	var req filler.NamedFields
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	result, err := h.service.FillVolunteerForm(c.Request.Context(), req)
	if err != nil {
		h.fail(c, err)
		return
	}

	c.FileAttachment(result.Path, result.FileName)
}

func (h *Handler) ListGenerations(c *gin.Context) {
	var kind *Kind
	if k := c.Query("kind"); k != "" {
		v := Kind(k)
		if v != KindNamed && v != KindPositional {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid kind"})
			return
		}
		kind = &v
	}
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "100"))

	gens, err := h.service.ListGenerations(c.Request.Context(), kind, limit)
	if err != nil {
		h.fail(c, err)
		return
	}

	c.JSON(http.StatusOK, gens)
}

func (h *Handler) fail(c *gin.Context, err error) {
	status := StatusFor(err)
	if status >= http.StatusInternalServerError {
		h.logger.Error("Form request failed", zap.Error(err), zap.String("path", c.FullPath()))
	}
	c.JSON(status, gin.H{"error": err.Error()})
}

// StatusFor maps form errors to HTTP status codes.
func StatusFor(err error) int {
	switch {
	case errors.Is(err, ErrInvalidFieldCount),
		errors.Is(err, ErrInvalidOutputName),
		errors.Is(err, ErrMissingField):
		return http.StatusBadRequest
	case errors.Is(err, ErrTemplateNotFound):
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}
