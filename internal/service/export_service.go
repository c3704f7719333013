package service

import (
	"bytes"
	"context"
	"sort"
	"strings"

	"dirigia/internal/apperr"
	"dirigia/internal/repository"
)

const MsgInvalidTable = "Tabela inválida"

// exportTables lists the exportable tables and their columns, in output order.
var exportTables = map[string][]string{
	"profiles":  {"id", "name", "email", "plan", "resources_count", "created_at", "updated_at"},
	"resources": {"id", "user_id", "ait_number", "placa", "renavam", "artigo", "local", "orgao_autuador", "data_infracao", "generated_text", "pdf_url", "created_at"},
	"payments":  {"id", "user_id", "amount", "payment_method", "plan", "status", "billing_id", "br_code", "paid_at", "created_at", "updated_at"},
	"ocr_raw":   {"id", "user_id", "uploaded_file_url", "extracted_text", "created_at"},
}

// ExportTables returns the allowed table names, sorted.
func ExportTables() []string {
	names := make([]string, 0, len(exportTables))
	for name := range exportTables {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// ExportService renders the caller's rows of one table as CSV.
type ExportService interface {
	CSV(ctx context.Context, userID, table string) ([]byte, error)
}

type exportService struct {
	repo repository.ExportRepository
}

func NewExportService(repo repository.ExportRepository) ExportService {
	return &exportService{repo: repo}
}

func (s *exportService) CSV(ctx context.Context, userID, table string) ([]byte, error) {
	columns, ok := exportTables[table]
	if !ok {
		return nil, apperr.New(apperr.KindValidation, MsgInvalidTable)
	}
	scope := "user_id"
	if table == "profiles" {
		scope = "id"
	}

	var buf bytes.Buffer
	buf.WriteString(strings.Join(columns, ","))
	err := s.repo.Stream(ctx, repository.ExportQuery{
		Table:       table,
		Columns:     columns,
		ScopeColumn: scope,
		UserID:      userID,
	}, func(values []*string) error {
		buf.WriteByte('\n')
		writeCSVRow(&buf, values)
		return nil
	})
	if err != nil {
		return nil, persistence(err)
	}
	return buf.Bytes(), nil
}

// writeCSVRow quotes every value and leaves NULLs empty.
func writeCSVRow(buf *bytes.Buffer, values []*string) {
	for i, v := range values {
		if i > 0 {
			buf.WriteByte(',')
		}
		if v == nil {
			continue
		}
		buf.WriteByte('"')
		buf.WriteString(strings.ReplaceAll(*v, `"`, `""`))
		buf.WriteByte('"')
	}
}
