package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"matchmaker/internal/domain"
)

type fakeOCR struct {
	result   domain.OCRResult
	err      error
	calls    int
	filename string
}

func (f *fakeOCR) ExtractPDF(_ context.Context, filename string, _ []byte) (domain.OCRResult, error) {
	f.calls++
	f.filename = filename
	return f.result, f.err
}

// onePagePDF arma un PDF minimo con xref valido.
func onePagePDF(text string) []byte {
	stream := "BT\n/F1 12 Tf\n72 720 Td\n(" + text + ") Tj\nET"

	var b strings.Builder
	b.WriteString("%PDF-1.4\n")
	offsets := make([]int, 6)

	offsets[1] = b.Len()
	b.WriteString("1 0 obj\n<< /Type /Catalog /Pages 2 0 R >>\nendobj\n")
	offsets[2] = b.Len()
	b.WriteString("2 0 obj\n<< /Type /Pages /Kids [3 0 R] /Count 1 >>\nendobj\n")
	offsets[3] = b.Len()
	b.WriteString("3 0 obj\n<< /Type /Page /Parent 2 0 R /MediaBox [0 0 612 792] /Contents 4 0 R /Resources << /Font << /F1 5 0 R >> >> >>\nendobj\n")
	offsets[4] = b.Len()
	fmt.Fprintf(&b, "4 0 obj\n<< /Length %d >>\nstream\n%s\nendstream\nendobj\n", len(stream), stream)
	offsets[5] = b.Len()
	b.WriteString("5 0 obj\n<< /Type /Font /Subtype /Type1 /BaseFont /Helvetica >>\nendobj\n")

	xref := b.Len()
	b.WriteString("xref\n0 6\n0000000000 65535 f \n")
	for i := 1; i <= 5; i++ {
		fmt.Fprintf(&b, "%010d 00000 n \n", offsets[i])
	}
	fmt.Fprintf(&b, "trailer\n<< /Size 6 /Root 1 0 R >>\nstartxref\n%d\n%%%%EOF\n", xref)
	return []byte(b.String())
}

func TestDocumentService_FillsPageCount(t *testing.T) {
	ocr := &fakeOCR{result: domain.OCRResult{Status: "ok", Text: "Jane Doe"}}
	svc := NewDocumentService(nil, ocr, 1<<20, 0)

	res, err := svc.ExtractPDF(context.Background(), "cv.pdf", onePagePDF("Jane Doe"))
	if err != nil {
		t.Fatalf("extract: %v", err)
	}
	if res.PageCount != 1 || res.Text != "Jane Doe" {
		t.Fatalf("unexpected result: %+v", res)
	}
	if ocr.calls != 1 || ocr.filename != "cv.pdf" {
		t.Fatalf("expected one forward with filename, got %d %q", ocr.calls, ocr.filename)
	}
}

func TestDocumentService_KeepsUpstreamPageCount(t *testing.T) {
	ocr := &fakeOCR{result: domain.OCRResult{Status: "ok", PageCount: 4}}
	svc := NewDocumentService(nil, ocr, 1<<20, 0)

	res, err := svc.ExtractPDF(context.Background(), "cv.pdf", onePagePDF("x"))
	if err != nil {
		t.Fatalf("extract: %v", err)
	}
	if res.PageCount != 4 {
		t.Fatalf("expected upstream page count, got %d", res.PageCount)
	}
}

func TestDocumentService_RejectsBeforeForwarding(t *testing.T) {
	cases := []struct {
		name string
		data []byte
		max  int64
		pdf  bool
	}{
		{name: "empty", data: nil, max: 1 << 20},
		{name: "too large", data: onePagePDF("x"), max: 16},
		{name: "not a pdf", data: []byte("hello, this is plain text"), max: 1 << 20, pdf: true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			ocr := &fakeOCR{}
			svc := NewDocumentService(nil, ocr, tc.max, 0)
			_, err := svc.ExtractPDF(context.Background(), "cv.pdf", tc.data)
			if !errors.Is(err, ErrValidation) {
				t.Fatalf("expected validation error, got %v", err)
			}
			if tc.pdf && !errors.Is(err, ErrInvalidPDF) {
				t.Fatalf("expected ErrInvalidPDF, got %v", err)
			}
			if ocr.calls != 0 {
				t.Fatalf("ocr must not be called")
			}
		})
	}
}

func TestDocumentService_UpstreamFailureIsFatal(t *testing.T) {
	ocr := &fakeOCR{err: errors.New("502")}
	svc := NewDocumentService(nil, ocr, 1<<20, 0)

	_, err := svc.ExtractPDF(context.Background(), "cv.pdf", onePagePDF("x"))
	if !errors.Is(err, ErrUpstreamFatal) {
		t.Fatalf("expected ErrUpstreamFatal, got %v", err)
	}
}
