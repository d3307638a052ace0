package upstream

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"mime/multipart"

	"matchmaker/internal/domain"
)

// OCRClient reenvia documentos al servicio de OCR.
type OCRClient struct {
	base baseClient
}

func NewOCRClient(baseURL string, opts Options) *OCRClient {
	return &OCRClient{base: newBaseClient(baseURL, opts)}
}

type ocrPayload struct {
	Status    string         `mapstructure:"status"`
	Text      string         `mapstructure:"text"`
	PageCount int            `mapstructure:"page_count"`
	Rest      map[string]any `mapstructure:",remain"`
}

// ExtractPDF sube el PDF como multipart (campo "file") a /ocr/pdf.
func (c *OCRClient) ExtractPDF(ctx context.Context, filename string, data []byte) (domain.OCRResult, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	part, err := w.CreateFormFile("file", filename)
	if err != nil {
		return domain.OCRResult{}, fmt.Errorf("ocr: create form file: %w", err)
	}
	if _, err := part.Write(data); err != nil {
		return domain.OCRResult{}, fmt.Errorf("ocr: write form file: %w", err)
	}
	if err := w.Close(); err != nil {
		return domain.OCRResult{}, fmt.Errorf("ocr: close multipart: %w", err)
	}

	body, err := c.base.send(ctx, "ocr_pdf", "POST", "/ocr/pdf", &buf, w.FormDataContentType())
	if err != nil {
		return domain.OCRResult{}, err
	}

	var raw map[string]any
	if err := json.Unmarshal(body, &raw); err != nil {
		return domain.OCRResult{}, fmt.Errorf("ocr_pdf: %w: %v", ErrDecode, err)
	}
	var p ocrPayload
	if err := decodeItem(raw, &p); err != nil {
		return domain.OCRResult{}, fmt.Errorf("ocr_pdf: %w: %v", ErrDecode, err)
	}
	return domain.OCRResult{
		Status:    p.Status,
		Text:      p.Text,
		PageCount: p.PageCount,
		Fields:    p.Rest,
	}, nil
}
