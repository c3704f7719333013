package document

import (
	"bytes"
	"fmt"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
)

func pdfConfig() *model.Configuration {
	cfg := model.NewDefaultConfiguration()
	cfg.ValidationMode = model.ValidationRelaxed
	return cfg
}

// PageCount returns the number of pages of an uploaded PDF.
func PageCount(data []byte) (int, error) {
	n, err := api.PageCount(bytes.NewReader(data), pdfConfig())
	if err != nil {
		return 0, fmt.Errorf("counting pdf pages: %w", err)
	}
	return n, nil
}

// FirstPage returns a PDF holding only the first page of data. Single-page input
// is returned unchanged.
func FirstPage(data []byte) ([]byte, error) {
	n, err := PageCount(data)
	if err != nil {
		return nil, err
	}
	if n <= 1 {
		return data, nil
	}
	var out bytes.Buffer
	if err := api.Trim(bytes.NewReader(data), &out, []string{"1"}, pdfConfig()); err != nil {
		return nil, fmt.Errorf("trimming pdf to first page: %w", err)
	}
	return out.Bytes(), nil
}

// Validate checks that data is a well-formed PDF.
func Validate(data []byte) error {
	if err := api.Validate(bytes.NewReader(data), pdfConfig()); err != nil {
		return fmt.Errorf("validating pdf: %w", err)
	}
	return nil
}
