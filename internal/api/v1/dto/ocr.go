package dto

// OcrFieldsDTO is the structured content read from a fine notice. Missing fields are null.
type OcrFieldsDTO struct {
	IsTrafficFine    bool    `json:"isTrafficFine"`
	AitNumber        *string `json:"aitNumber"`
	DataInfracao     *string `json:"dataInfracao"`
	Local            *string `json:"local"`
	Placa            *string `json:"placa"`
	Renavam          *string `json:"renavam"`
	Artigo           *string `json:"artigo"`
	OrgaoAutuador    *string `json:"orgaoAutuador"`
	NomeCondutor     *string `json:"nomeCondutor"`
	CpfCondutor      *string `json:"cpfCondutor"`
	EnderecoCondutor *string `json:"enderecoCondutor"`
}

// OcrResponseDTO is returned by a successful extraction.
type OcrResponseDTO struct {
	Success       bool         `json:"success"`
	ExtractedData OcrFieldsDTO `json:"extractedData"`
}
