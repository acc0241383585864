package notifications

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// PathResolver maps a client supplied form path to a file in the output
// directory.
type PathResolver interface {
	OutputPath(name string) (string, error)
}

type Handler struct {
	approver *Approver
	paths    PathResolver
	logger   *zap.Logger
}

func NewHandler(approver *Approver, paths PathResolver, logger *zap.Logger) *Handler {
	return &Handler{approver: approver, paths: paths, logger: logger}
}

// RegisterLegacyRoutes mounts the unversioned approval endpoint.
func (h *Handler) RegisterLegacyRoutes(r gin.IRoutes, admin gin.HandlerFunc) {
	r.POST("/approve_volunteer", admin, h.ApproveVolunteer)
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup, admin gin.HandlerFunc) {
	rg.GET("/notifications/deliveries", admin, h.ListDeliveries)
}

// ApproveVolunteer emails the approval message. It succeeds even when the
// email could not be delivered.
func (h *Handler) ApproveVolunteer(c *gin.Context) {
	var req ApproveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var pdfPath string
	if req.PDFPath != "" {
		var err error
		if pdfPath, err = h.paths.OutputPath(req.PDFPath); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
	}

	h.approver.SendApproval(c.Request.Context(), req.Email, req.WhatsAppLink, pdfPath)

	c.JSON(http.StatusOK, gin.H{
		"status":  "success",
		"message": "Volunteer approved and email sent",
	})
}

func (h *Handler) ListDeliveries(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))

	logs, err := h.approver.ListDeliveries(c.Request.Context(), limit)
	if err != nil {
		h.logger.Error("Failed to list deliveries", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, logs)
}
