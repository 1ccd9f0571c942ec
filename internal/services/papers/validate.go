package papers

import (
	"bytes"
	"fmt"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
)

// Validator checks uploaded bytes are a readable PDF and counts its pages.
type Validator interface {
	Validate(data []byte) (pages int, err error)
}

// PDFValidator parses the document with pdfcpu.
type PDFValidator struct{}

func (PDFValidator) Validate(data []byte) (int, error) {
	if !bytes.HasPrefix(data, []byte("%PDF-")) {
		return 0, fmt.Errorf("%w: missing %%PDF header", ErrInvalidPDF)
	}
	conf := model.NewDefaultConfiguration()
	ctx, err := api.ReadValidateAndOptimize(bytes.NewReader(data), conf)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrInvalidPDF, err)
	}
	if ctx.PageCount < 1 {
		return 0, fmt.Errorf("%w: document has no pages", ErrInvalidPDF)
	}
	return ctx.PageCount, nil
}
