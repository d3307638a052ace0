package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"go.uber.org/zap"

	"matchmaker/internal/domain"
)

var ErrInvalidPDF = errors.New("invalid pdf")

// OCRForwarder envia el documento al servicio de OCR.
type OCRForwarder interface {
	ExtractPDF(ctx context.Context, filename string, data []byte) (domain.OCRResult, error)
}

// DocumentService valida PDFs localmente antes de gastar una llamada al OCR.
type DocumentService struct {
	ocr      OCRForwarder
	maxBytes int64
	timeout  time.Duration
	logger   *zap.Logger
}

func NewDocumentService(logger *zap.Logger, ocr OCRForwarder, maxBytes int64, timeout time.Duration) *DocumentService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if maxBytes <= 0 {
		maxBytes = 10 << 20
	}
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return &DocumentService{ocr: ocr, maxBytes: maxBytes, timeout: timeout, logger: logger}
}

func (s *DocumentService) MaxBytes() int64 { return s.maxBytes }

func (s *DocumentService) ExtractPDF(ctx context.Context, filename string, data []byte) (domain.OCRResult, error) {
	if len(data) == 0 {
		return domain.OCRResult{}, &ValidationError{Field: "file", Reason: "empty upload"}
	}
	if int64(len(data)) > s.maxBytes {
		return domain.OCRResult{}, &ValidationError{Field: "file", Reason: fmt.Sprintf("larger than %d bytes", s.maxBytes)}
	}

	pages, err := countPDFPages(data)
	if err != nil {
		s.logger.Warn("pdf rejected", zap.String("filename", filename), zap.Error(err))
		return domain.OCRResult{}, errors.Join(&ValidationError{Field: "file", Reason: "not a valid pdf"}, ErrInvalidPDF)
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	result, err := s.ocr.ExtractPDF(ctx, filename, data)
	if err != nil {
		return domain.OCRResult{}, fatal("ocr", err)
	}
	if result.PageCount == 0 {
		result.PageCount = pages
	}
	s.logger.Info("ocr completed", zap.String("filename", filename), zap.Int("pages", result.PageCount))
	return result, nil
}

func countPDFPages(data []byte) (int, error) {
	conf := model.NewDefaultConfiguration()
	ctx, err := api.ReadValidateAndOptimize(bytes.NewReader(data), conf)
	if err != nil {
		return 0, fmt.Errorf("pdfcpu read: %w", err)
	}
	return ctx.PageCount, nil
}
