// Package llm talks to the language model that reads fine notices and drafts appeals.
// Exactly one provider is active at a time; both share the prompts in this package.
package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"dirigia/internal/apperr"
)

// Document is one file handed to the vision model.
type Document struct {
	Name string
	MIME string
	Data []byte
}

// Extractor reads a fine notice and returns the model's raw JSON answer.
type Extractor interface {
	Extract(ctx context.Context, doc Document) ([]byte, error)
}

// Generator drafts an appeal letter.
type Generator interface {
	Generate(ctx context.Context, req AppealRequest) (string, error)
}

// Client is implemented by every provider.
type Client interface {
	Extractor
	Generator
	Name() string
}

// OcrFields is the structured content of a fine notice. Missing fields are nil.
type OcrFields struct {
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

// Trimmed returns the fields with surrounding space removed. Fields left blank, as a
// cleared review form sends them, become nil.
func (f OcrFields) Trimmed() OcrFields {
	for _, p := range []**string{
		&f.AitNumber, &f.DataInfracao, &f.Local, &f.Placa, &f.Renavam, &f.Artigo,
		&f.OrgaoAutuador, &f.NomeCondutor, &f.CpfCondutor, &f.EnderecoCondutor,
	} {
		*p = trimmedOrNil(*p)
	}
	return f
}

func trimmedOrNil(s *string) *string {
	if s == nil {
		return nil
	}
	t := strings.TrimSpace(*s)
	if t == "" {
		return nil
	}
	return &t
}

// AppealRequest is the input of a generation call.
type AppealRequest struct {
	Fields      OcrFields
	Explanation string
	Arguments   []string
}

// ParseOcr decodes a model answer. It is lenient about value types: numbers become
// strings, blank strings become nil and anything but a true isTrafficFine counts as false.
func ParseOcr(raw []byte) (*OcrFields, error) {
	var m map[string]any
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil, fmt.Errorf("decoding extraction: %w", err)
	}
	f := &OcrFields{
		IsTrafficFine:    truthy(m["isTrafficFine"]),
		AitNumber:        text(m["aitNumber"]),
		DataInfracao:     text(m["dataInfracao"]),
		Local:            text(m["local"]),
		Placa:            text(m["placa"]),
		Renavam:          text(m["renavam"]),
		Artigo:           text(m["artigo"]),
		OrgaoAutuador:    text(m["orgaoAutuador"]),
		NomeCondutor:     text(m["nomeCondutor"]),
		CpfCondutor:      text(m["cpfCondutor"]),
		EnderecoCondutor: text(m["enderecoCondutor"]),
	}
	return f, nil
}

func truthy(v any) bool {
	switch t := v.(type) {
	case bool:
		return t
	case string:
		return strings.EqualFold(strings.TrimSpace(t), "true")
	}
	return false
}

func text(v any) *string {
	var s string
	switch t := v.(type) {
	case string:
		s = strings.TrimSpace(t)
	case float64:
		s = strconv.FormatFloat(t, 'f', -1, 64)
	default:
		return nil
	}
	if s == "" {
		return nil
	}
	return &s
}

// Messages shown when the provider refuses the call.
const (
	RateLimitedMessage = "Limite de requisições atingido. Tente novamente em alguns instantes."
	QuotaMessage       = "Créditos insuficientes. Por favor, adicione créditos ao workspace."
	UpstreamMessage    = "Falha ao processar a solicitação no provedor de IA."
	EmptyAnswerMessage = "Falha ao gerar recurso"
)

// statusError classifies a non-2xx provider response.
func statusError(provider string, status int, body string) error {
	cause := fmt.Errorf("%s responded with status %d: %s", provider, status, body)
	switch status {
	case 429:
		return apperr.Wrap(apperr.KindUpstreamRateLimited, RateLimitedMessage, cause)
	case 402:
		return apperr.Wrap(apperr.KindUpstreamQuota, QuotaMessage, cause)
	}
	return apperr.Wrap(apperr.KindUpstream, UpstreamMessage, cause)
}
