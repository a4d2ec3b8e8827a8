package loader

import (
	"bytes"
	"fmt"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/types"
)

func pdfConfig() *model.Configuration {
	conf := model.NewDefaultConfiguration()
	conf.ValidationMode = model.ValidationRelaxed
	return conf
}

func validatePDF(content []byte) error {
	if err := api.Validate(bytes.NewReader(content), pdfConfig()); err != nil {
		return fmt.Errorf("invalid pdf: %w", err)
	}
	return nil
}

// PDFCrop trims header and footer bands off every page before text extraction.
// Top and Bottom are in points (1 pt = 1/72 inch).
type PDFCrop struct {
	Top    float64
	Bottom float64
}

func (c PDFCrop) Enabled() bool {
	return c.Top > 0 || c.Bottom > 0
}

func (c PDFCrop) Apply(content []byte) ([]byte, error) {
	box, err := model.ParseBox(fmt.Sprintf("%.2f 0 %.2f 0", c.Top, c.Bottom), types.POINTS)
	if err != nil {
		return nil, fmt.Errorf("failed to parse crop box: %w", err)
	}

	var out bytes.Buffer
	if err := api.Crop(bytes.NewReader(content), &out, []string{"1-"}, box, pdfConfig()); err != nil {
		return nil, fmt.Errorf("failed to crop PDF: %w", err)
	}
	return out.Bytes(), nil
}
