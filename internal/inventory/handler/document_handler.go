package handler

import (
	"fmt"
	"io"

	"github.com/gin-gonic/gin"
	"github.com/vastralabs/karkhana/internal/inventory/service"
)

// DocumentHandler swatch and spec-sheet upload endpoints
type DocumentHandler struct {
	svc *service.DocumentService
}

// NewDocumentHandler creates a document handler
func NewDocumentHandler(svc *service.DocumentService) *DocumentHandler {
	return &DocumentHandler{svc: svc}
}

// Upload POST /api/v1/materials/:kind/:id/documents
func (h *DocumentHandler) Upload(c *gin.Context) {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		BadRequest(c, "file is required: "+err.Error())
		return
	}
	src, err := fileHeader.Open()
	if err != nil {
		InternalError(c, "open upload: "+err.Error())
		return
	}
	defer src.Close()

	doc, err := h.svc.Upload(
		c.Request.Context(),
		GetUserID(c),
		c.Param("kind"),
		c.Param("id"),
		src,
		fileHeader.Filename,
		fileHeader.Size,
		fileHeader.Header.Get("Content-Type"),
	)
	if err != nil {
		ServiceError(c, err)
		return
	}
	Created(c, doc)
}

// List GET /api/v1/materials/:kind/:id/documents
func (h *DocumentHandler) List(c *gin.Context) {
	docs, err := h.svc.List(c.Request.Context(), c.Param("kind"), c.Param("id"))
	if err != nil {
		ServiceError(c, err)
		return
	}
	Success(c, gin.H{"items": docs})
}

// Download GET /api/v1/documents/:id/download
func (h *DocumentHandler) Download(c *gin.Context) {
	object, doc, err := h.svc.Download(c.Request.Context(), c.Param("id"))
	if err != nil {
		ServiceError(c, err)
		return
	}
	defer object.Close()

	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, doc.FileName))
	contentType := doc.MimeType
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	c.Header("Content-Type", contentType)
	if _, err := io.Copy(c.Writer, object); err != nil {
		_ = c.Error(err)
	}
}
