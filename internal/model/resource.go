package model

import "time"

// Resource is a generated appeal letter. Rows are immutable apart from deletion
// and the archived PDF location.
type Resource struct {
	ID            string     `db:"id" json:"id"`
	UserID        string     `db:"user_id" json:"user_id"`
	AitNumber     *string    `db:"ait_number" json:"ait_number,omitempty"`
	Placa         *string    `db:"placa" json:"placa,omitempty"`
	Renavam       *string    `db:"renavam" json:"renavam,omitempty"`
	Artigo        *string    `db:"artigo" json:"artigo,omitempty"`
	Local         *string    `db:"local" json:"local,omitempty"`
	OrgaoAutuador *string    `db:"orgao_autuador" json:"orgao_autuador,omitempty"`
	DataInfracao  *time.Time `db:"data_infracao" json:"data_infracao,omitempty"`
	GeneratedText string     `db:"generated_text" json:"generated_text"`
	PdfURL        *string    `db:"pdf_url" json:"pdf_url,omitempty"`
	CreatedAt     time.Time  `db:"created_at" json:"created_at"`
}

// DisplayName is the identifier used in download filenames.
func (r *Resource) DisplayName() string {
	if r.AitNumber != nil && *r.AitNumber != "" {
		return *r.AitNumber
	}
	return r.ID
}
