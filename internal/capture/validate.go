// Package capture holds the rules of the upload flow: which files are accepted,
// when the permission-priming dialog is shown and how the camera guide is framed.
package capture

import (
	"errors"
	"fmt"
)

// MaxFileSize is the largest accepted upload, 10 MiB.
const MaxFileSize = 10 * 1024 * 1024

// AcceptedTypes lists the MIME types the OCR pipeline accepts.
var AcceptedTypes = []string{"application/pdf", "image/jpeg", "image/png"}

// Rejection reasons. Each carries the message shown to the user.
var (
	ErrEmpty           = &RejectionError{Reason: "empty", Message: "Nenhum arquivo foi enviado."}
	ErrUnsupportedType = &RejectionError{Reason: "unsupported_type", Message: "Formato não suportado. Envie um PDF, JPG ou PNG."}
	ErrTooLarge        = &RejectionError{Reason: "too_large", Message: "O arquivo excede o tamanho máximo permitido (10MB)."}
)

// RejectionError is returned by ValidateFile.
type RejectionError struct {
	Reason  string
	Message string
}

func (e *RejectionError) Error() string {
	return fmt.Sprintf("file rejected (%s): %s", e.Reason, e.Message)
}

// FileInfo describes a candidate upload.
type FileInfo struct {
	Name string
	MIME string
	Size int64
}

// ValidateFile accepts a file iff its MIME type is allowed and it fits in MaxFileSize.
// The type is checked first so an oversized file of the wrong type reports the type.
func ValidateFile(f FileInfo) error {
	if f.Size <= 0 {
		return ErrEmpty
	}
	if !IsAcceptedType(f.MIME) {
		return ErrUnsupportedType
	}
	if f.Size > MaxFileSize {
		return ErrTooLarge
	}
	return nil
}

// IsAcceptedType reports whether mime is one of AcceptedTypes.
func IsAcceptedType(mime string) bool {
	for _, t := range AcceptedTypes {
		if t == mime {
			return true
		}
	}
	return false
}

// AsRejection extracts the RejectionError from err, if any.
func AsRejection(err error) (*RejectionError, bool) {
	var r *RejectionError
	ok := errors.As(err, &r)
	return r, ok
}
