package service

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"strings"
	"time"

	"examroom/internal/config"
	"examroom/internal/domain"
	"examroom/internal/dto"
	"examroom/internal/logger"

	"go.uber.org/zap"
)

// ImportService turns a CSV payload into student accounts, one row at a
// time. The batch is best-effort: a failing row never aborts the others.
type ImportService interface {
	ImportStudents(ctx context.Context, payload io.Reader, defaultClass string) (*dto.ImportResultResponse, error)
	// TemplateCSV returns the downloadable import template with example rows.
	TemplateCSV() []byte
	// ResultsCSV renders an import report for download.
	ResultsCSV(result *dto.ImportResultResponse) ([]byte, error)
}

type importServiceImpl struct {
	accountService AccountService
	cfg            config.ImportConfig
}

// NewImportService creates a new instance of ImportService.
func NewImportService(accountService AccountService, cfg config.ImportConfig) ImportService {
	return &importServiceImpl{accountService: accountService, cfg: cfg}
}

// importColumns holds the resolved column indexes. -1 means absent.
type importColumns struct {
	name  int
	phone int
	class int
}

// resolveColumns matches headers case-insensitively by substring: anything
// containing "name" is the full-name column, "phone" the phone column, and
// "class" or "grade" the class column.
func resolveColumns(header []string) importColumns {
	cols := importColumns{name: -1, phone: -1, class: -1}
	for i, raw := range header {
		h := strings.ToLower(strings.TrimSpace(raw))
		switch {
		case cols.name == -1 && strings.Contains(h, "name"):
			cols.name = i
		case cols.phone == -1 && strings.Contains(h, "phone"):
			cols.phone = i
		case cols.class == -1 && (strings.Contains(h, "class") || strings.Contains(h, "grade")):
			cols.class = i
		}
	}
	return cols
}

// fieldAt returns the trimmed field at index i, with stray single quotes
// stripped. Spreadsheet exports wrap phone numbers in them.
func fieldAt(row []string, i int) string {
	if i < 0 || i >= len(row) {
		return ""
	}
	return strings.Trim(strings.TrimSpace(row[i]), "'")
}

// ImportStudents parses and imports the payload.
//
// Rows whose name is blank after trimming are skipped silently; they are
// blank lines, not failed import attempts. Every other row produces exactly
// one outcome, in input order.
func (s *importServiceImpl) ImportStudents(ctx context.Context, payload io.Reader, defaultClass string) (*dto.ImportResultResponse, error) {
	appLogger := logger.Get()

	if defaultClass == "" {
		defaultClass = s.cfg.DefaultClass
	}

	reader := csv.NewReader(payload)
	reader.FieldsPerRecord = -1 // tolerate ragged rows
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		return nil, domain.NewInvalidInputError("CSV payload is empty or has no header row")
	}
	cols := resolveColumns(header)
	if cols.name == -1 {
		return nil, domain.NewInvalidInputError("CSV header has no name column")
	}

	result := &dto.ImportResultResponse{Outcomes: []dto.ImportRowOutcome{}}
	rows := 0
	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, domain.NewInvalidInputError(fmt.Sprintf("malformed CSV row: %v", err))
		}
		rows++
		if s.cfg.MaxRows > 0 && rows > s.cfg.MaxRows {
			return nil, domain.NewInvalidInputError(fmt.Sprintf("import exceeds the %d row limit", s.cfg.MaxRows))
		}

		name := fieldAt(row, cols.name)
		if name == "" {
			continue
		}

		outcome := s.importRow(ctx, name, fieldAt(row, cols.phone), fieldAt(row, cols.class), defaultClass)
		if outcome.Success {
			result.Succeeded++
		} else {
			result.Failed++
		}
		result.Outcomes = append(result.Outcomes, outcome)
	}

	appLogger.Info("Bulk import finished",
		zap.Int("succeeded", result.Succeeded),
		zap.Int("failed", result.Failed),
	)
	return result, nil
}

func (s *importServiceImpl) importRow(ctx context.Context, name, phone, class, defaultClass string) dto.ImportRowOutcome {
	outcome := dto.ImportRowOutcome{InputName: name}

	if len(strings.Fields(name)) < 3 {
		outcome.ErrorMessage = "InvalidName: full name must have at least 3 parts"
		return outcome
	}

	if class == "" {
		class = defaultClass
	}
	if class == "" {
		outcome.ErrorMessage = "MissingClass: no class on the row and no default provided"
		return outcome
	}

	created, err := s.accountService.CreateStudent(ctx, dto.CreateStudentRequest{
		Password:  defaultPasswordFor(name),
		FullName:  name,
		Phone:     phone,
		ClassName: class,
	})
	if err != nil {
		outcome.ErrorMessage = err.Error()
		return outcome
	}

	outcome.LoginID = created.LoginID
	outcome.Success = true
	return outcome
}

// defaultPasswordFor derives the initial password from the student's first
// name token; admins share it together with the login code.
func defaultPasswordFor(name string) string {
	first := strings.Fields(name)[0]
	return strings.ToLower(first) + "1234"
}

func (s *importServiceImpl) TemplateCSV() []byte {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	_ = w.Write([]string{"full_name", "phone", "class"})
	_ = w.Write([]string{"Maria Fernanda Silva", "11999990000", "3prp"})
	_ = w.Write([]string{"Joao Pedro Santos", "", "3prp"})
	w.Flush()
	return buf.Bytes()
}

func (s *importServiceImpl) ResultsCSV(result *dto.ImportResultResponse) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write([]string{"full_name", "login_id", "status", "error"}); err != nil {
		return nil, err
	}
	for _, o := range result.Outcomes {
		status := "ok"
		if !o.Success {
			status = "failed"
		}
		if err := w.Write([]string{o.InputName, o.LoginID, status, o.ErrorMessage}); err != nil {
			return nil, err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// ExportFilename suffixes a download name with the current date, e.g.
// "import-results-2025-03-01.csv".
func ExportFilename(prefix string) string {
	return fmt.Sprintf("%s-%s.csv", prefix, time.Now().Format("2006-01-02"))
}
