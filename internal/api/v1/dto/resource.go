package dto

import "time"

// GenerateRequestDTO is the payload of an appeal generation.
type GenerateRequestDTO struct {
	OcrData           OcrFieldsDTO `json:"ocrData"`
	UserExplanation   string       `json:"userExplanation" validate:"max=5000"`
	SelectedArguments []string     `json:"selectedArguments" validate:"max=20,dive,max=200"`
}

// GenerateResponseDTO carries the drafted letter and the id it was saved under.
type GenerateResponseDTO struct {
	GeneratedText string `json:"generatedText"`
	ResourceID    string `json:"resourceId"`
}

// ArgumentsResponseDTO lists the canned appeal arguments.
type ArgumentsResponseDTO struct {
	Arguments []string `json:"arguments"`
}

// ResourceResponseDTO is a generated appeal as the caller may see it.
type ResourceResponseDTO struct {
	ID            string    `json:"id"`
	AitNumber     *string   `json:"aitNumber"`
	Placa         *string   `json:"placa"`
	Renavam       *string   `json:"renavam"`
	Artigo        *string   `json:"artigo"`
	Local         *string   `json:"local"`
	OrgaoAutuador *string   `json:"orgaoAutuador"`
	DataInfracao  *string   `json:"dataInfracao"`
	GeneratedText string    `json:"generatedText"`
	Truncated     bool      `json:"truncated"`
	HasPdf        bool      `json:"hasPdf"`
	CreatedAt     time.Time `json:"createdAt"`
}

// PdfArchiveResponseDTO points at an archived PDF through a temporary link.
type PdfArchiveResponseDTO struct {
	PdfURL string `json:"pdfUrl"`
}
