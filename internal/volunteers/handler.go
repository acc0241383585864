package volunteers

import (
	"bytes"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"community-registration/volunteer-forms-backend/internal/forms"
)

const (
	xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	csvContentType  = "text/csv; charset=utf-8"
)

// maxPoliceFormSize bounds uploaded police clearance files.
const maxPoliceFormSize = 10 << 20

type Handler struct {
	service Service
	logger  *zap.Logger
}

func NewHandler(service Service, logger *zap.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup, admin gin.HandlerFunc) {
	vols := rg.Group("/volunteers")
	{
		vols.POST("", h.Register)
		vols.POST("/:id/police-form", h.UploadPoliceForm)
		vols.GET("/pending", admin, h.ListPending)
		vols.GET("/statistics", admin, h.Statistics)
		vols.GET("/export", admin, h.ExportRoster)
		vols.POST("/:id/approve", admin, h.Approve)
	}

	areas := rg.Group("/areas")
	{
		areas.GET("", h.ListAreas)
		areas.PUT("/:code", admin, h.SaveArea)
		areas.DELETE("/:code", admin, h.DeleteArea)
	}
}

func (h *Handler) Register(c *gin.Context) {
	var req RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	v, err := h.service.Register(c.Request.Context(), req)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, v)
}

func (h *Handler) UploadPoliceForm(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxPoliceFormSize)
	file, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "file is required"})
		return
	}

	f, err := file.Open()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	defer f.Close()

	v, err := h.service.AttachPoliceForm(c.Request.Context(), c.Param("id"), file.Filename, f)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, v)
}

func (h *Handler) ListPending(c *gin.Context) {
	list, err := h.service.ListPending(c.Request.Context())
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, list)
}

func (h *Handler) Approve(c *gin.Context) {
	v, err := h.service.Approve(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, v)
}

func (h *Handler) Statistics(c *gin.Context) {
	stats, err := h.service.Statistics(c.Request.Context())
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, stats)
}

// ExportRoster downloads the roster as a workbook, or as CSV with
// ?format=csv.
func (h *Handler) ExportRoster(c *gin.Context) {
	export, ext, contentType := h.service.ExportRoster, "xlsx", xlsxContentType
	switch c.DefaultQuery("format", "xlsx") {
	case "xlsx":
	case "csv":
		export, ext, contentType = h.service.ExportRosterCSV, "csv", csvContentType
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": "format must be xlsx or csv"})
		return
	}

	var buf bytes.Buffer
	if err := export(c.Request.Context(), &buf); err != nil {
		h.fail(c, err)
		return
	}

	name := fmt.Sprintf("volunteers-%s.%s", time.Now().Format("2006-01-02"), ext)
	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, name))
	c.Data(http.StatusOK, contentType, buf.Bytes())
}

func (h *Handler) ListAreas(c *gin.Context) {
	areas, err := h.service.ListAreas(c.Request.Context())
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, areas)
}

func (h *Handler) SaveArea(c *gin.Context) {
	var req AreaRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	area, err := h.service.SaveArea(c.Request.Context(), c.Param("code"), req)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, area)
}

func (h *Handler) DeleteArea(c *gin.Context) {
	if err := h.service.DeleteArea(c.Request.Context(), c.Param("code")); err != nil {
		h.fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handler) fail(c *gin.Context, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		h.logger.Error("Volunteer request failed", zap.Error(err), zap.String("path", c.FullPath()))
	}
	c.JSON(status, gin.H{"error": err.Error()})
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, ErrInvalidVolunteer), errors.Is(err, ErrInvalidPoliceForm):
		return http.StatusBadRequest
	case errors.Is(err, ErrVolunteerNotFound), errors.Is(err, ErrAreaNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrAlreadyConfirmed):
		return http.StatusConflict
	case errors.Is(err, ErrStorageDisabled):
		return http.StatusServiceUnavailable
	default:
		return forms.StatusFor(err)
	}
}
