package http

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"matchmaker/internal/service"
)

// margen para los headers del multipart sobre el limite del archivo
const multipartOverhead = 1 << 20

// DocumentHandler recibe CVs en PDF y los pasa al OCR.
type DocumentHandler struct {
	logger    *zap.Logger
	documents *service.DocumentService
}

func NewDocumentHandler(logger *zap.Logger, documents *service.DocumentService) *DocumentHandler {
	return &DocumentHandler{logger: logger, documents: documents}
}

// ExtractPDF maneja POST /documents/ocr.
func (h *DocumentHandler) ExtractPDF(c *gin.Context) {
	limit := h.documents.MaxBytes()
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, limit+multipartOverhead)

	header, err := c.FormFile("file")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": "file too large"})
			return
		}
		c.JSON(http.StatusBadRequest, gin.H{"error": "file is required"})
		return
	}
	if header.Size > limit {
		c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": "file too large"})
		return
	}
	f, err := header.Open()
	if err != nil {
		h.logger.Error("open upload failed", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "could not read file"})
		return
	}
	defer f.Close()
	data, err := io.ReadAll(io.LimitReader(f, limit+1))
	if err != nil {
		h.logger.Error("read upload failed", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "could not read file"})
		return
	}

	result, err := h.documents.ExtractPDF(c.Request.Context(), header.Filename, data)
	var verr *service.ValidationError
	switch {
	case err == nil:
		c.JSON(http.StatusOK, result)
	case errors.As(err, &verr):
		c.JSON(http.StatusBadRequest, gin.H{"error": verr.Error()})
	case errors.Is(err, service.ErrUpstreamFatal):
		h.logger.Warn("ocr failed", zap.Error(err))
		c.JSON(http.StatusBadGateway, gin.H{"error": "ocr service unavailable"})
	default:
		h.logger.Error("ocr request failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}
