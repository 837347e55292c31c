package services

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"path/filepath"
	"strings"

	"github.com/lingoforge/authoring-service/internal/clients"
	"github.com/lingoforge/authoring-service/internal/events"
	"github.com/lingoforge/authoring-service/internal/models"
	"github.com/lingoforge/authoring-service/internal/validator"
	"github.com/xuri/excelize/v2"
)

// ImportExportService moves lesson questions in and out of spreadsheets.
// Import covers the text-only question types; media slots cannot travel
// through a spreadsheet and stay empty on imported questions.
type ImportExportService interface {
	ImportQuestionsFromFile(ctx context.Context, lessonID string, file multipart.File, filename string) (*ImportResult, error)
	ImportQuestionsFromCSV(ctx context.Context, lessonID string, reader io.Reader) (*ImportResult, error)
	ImportQuestionsFromExcel(ctx context.Context, lessonID string, reader io.Reader) (*ImportResult, error)

	ExportQuestionsToCSV(ctx context.Context, lessonID string) ([]byte, error)
	ExportQuestionsToExcel(ctx context.Context, lessonID string) ([]byte, error)
}

type RowError struct {
	Row     int    `json:"row"`
	Field   string `json:"field"`
	Message string `json:"message"`
}

type ImportResult struct {
	TotalRows    int                `json:"total_rows"`
	SuccessCount int                `json:"success_count"`
	ErrorCount   int                `json:"error_count"`
	Errors       []RowError         `json:"errors,omitempty"`
	Questions    []*models.Question `json:"questions,omitempty"`
}

type importExportService struct {
	questionAPI clients.QuestionAPI
	publisher   events.EventPublisher
	validator   *validator.Validator
	logger      *slog.Logger
}

func NewImportExportService(questionAPI clients.QuestionAPI, publisher events.EventPublisher, v *validator.Validator, logger *slog.Logger) ImportExportService {
	return &importExportService{
		questionAPI: questionAPI,
		publisher:   publisher,
		validator:   v,
		logger:      logger,
	}
}

var exportHeaders = []string{
	"Position", "Question Type", "Question Text",
	"Option A", "Option B", "Option C", "Option D",
	"Answer", "Pairs", "Tags", "Explanation",
}

var importColumns = map[string]bool{
	"question_type": true,
	"question_text": true,
	"answer":        true,
}

// ===== IMPORT OPERATIONS =====

func (s *importExportService) ImportQuestionsFromFile(ctx context.Context, lessonID string, file multipart.File, filename string) (*ImportResult, error) {
	s.logger.Info("Starting file import", "filename", filename, "lesson_id", lessonID)

	ext := strings.ToLower(filepath.Ext(filename))

	switch ext {
	case ".csv":
		return s.ImportQuestionsFromCSV(ctx, lessonID, file)
	case ".xlsx", ".xls":
		return s.ImportQuestionsFromExcel(ctx, lessonID, file)
	default:
		return nil, NewValidationError("file", "unsupported file format", ext)
	}
}

func (s *importExportService) ImportQuestionsFromCSV(ctx context.Context, lessonID string, reader io.Reader) (*ImportResult, error) {
	csvReader := csv.NewReader(reader)
	csvReader.TrimLeadingSpace = true

	records, err := csvReader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to read CSV: %w", err)
	}
	if len(records) < 2 {
		return nil, NewValidationError("file", "CSV must have a header row and at least one data row", len(records))
	}
	return s.importRows(ctx, lessonID, records)
}

func (s *importExportService) ImportQuestionsFromExcel(ctx context.Context, lessonID string, reader io.Reader) (*ImportResult, error) {
	f, err := excelize.OpenReader(reader)
	if err != nil {
		return nil, fmt.Errorf("failed to open Excel file: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, NewValidationError("file", "Excel file has no sheets", nil)
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("failed to read Excel rows: %w", err)
	}
	if len(rows) < 2 {
		return nil, NewValidationError("file", "Excel must have a header row and at least one data row", len(rows))
	}
	return s.importRows(ctx, lessonID, rows)
}

func (s *importExportService) importRows(ctx context.Context, lessonID string, rows [][]string) (*ImportResult, error) {
	headerMap := make(map[string]int)
	for i, header := range rows[0] {
		headerMap[strings.ToLower(strings.TrimSpace(header))] = i
	}
	for col := range importColumns {
		if _, exists := headerMap[col]; !exists {
			return nil, NewValidationError("headers", fmt.Sprintf("missing required column: %s", col), col)
		}
	}

	existing, err := s.questionAPI.ListQuestions(ctx, lessonID)
	if err != nil {
		return nil, fmt.Errorf("failed to count questions for lesson %s: %w", lessonID, err)
	}
	position := len(existing) + 1

	result := &ImportResult{TotalRows: len(rows) - 1}

	for rowIndex, record := range rows[1:] {
		rowNum := rowIndex + 2

		if position > models.MaxQuestionsPerLesson {
			result.Errors = append(result.Errors, RowError{
				Row:     rowNum,
				Field:   "position",
				Message: ErrQuestionLimitReached.Error(),
			})
			result.ErrorCount++
			continue
		}

		draft, rowErrors := s.parseRow(record, headerMap, rowNum, lessonID, position)
		if len(rowErrors) > 0 {
			result.Errors = append(result.Errors, rowErrors...)
			result.ErrorCount++
			continue
		}

		question, err := s.questionAPI.CreateQuestion(ctx, draft.BuildPayload())
		if err != nil {
			result.Errors = append(result.Errors, RowError{
				Row:     rowNum,
				Field:   "row",
				Message: fmt.Sprintf("create failed: %v", err),
			})
			result.ErrorCount++
			continue
		}

		result.Questions = append(result.Questions, question)
		result.SuccessCount++
		position++
	}

	if s.publisher != nil {
		event := events.NewQuestionsImportedEvent(lessonID, result.TotalRows, result.SuccessCount, result.ErrorCount)
		if err := s.publisher.PublishAuthoringEvent(ctx, event); err != nil {
			s.logger.Error("Failed to publish import event", "lesson_id", lessonID, "error", err)
		}
	}

	s.logger.Info("Import completed",
		"lesson_id", lessonID,
		"total_rows", result.TotalRows,
		"success_count", result.SuccessCount,
		"error_count", result.ErrorCount)

	return result, nil
}

// parseRow builds a draft from one spreadsheet row and runs it through the
// same submit validation an interactive session would get.
func (s *importExportService) parseRow(record []string, headerMap map[string]int, rowNum int, lessonID string, position int) (*models.QuestionDraft, []RowError) {
	get := func(col string) string {
		idx, ok := headerMap[col]
		if !ok || idx >= len(record) {
			return ""
		}
		return strings.TrimSpace(record[idx])
	}

	questionType := models.QuestionType(strings.ToLower(get("question_type")))
	switch questionType {
	case models.MultipleChoice, models.TrueFalse, models.MatchingPairs:
	case models.ListenAndMatch:
		return nil, []RowError{{Row: rowNum, Field: "question_type",
			Message: "listen_and_match requires media and cannot be imported"}}
	default:
		return nil, []RowError{{Row: rowNum, Field: "question_type",
			Message: fmt.Sprintf("unknown question type %q", get("question_type"))}}
	}

	draft := models.NewQuestionDraft(lessonID, position)
	draft.SetQuestionType(questionType)
	draft.Text = get("question_text")
	draft.Explanation = get("explanation")
	if tags := get("tags"); tags != "" {
		draft.Tags = splitAndTrim(tags, ",")
	}

	switch questionType {
	case models.MultipleChoice:
		for i, col := range []string{"option_a", "option_b", "option_c", "option_d"} {
			draft.SetOption(i, get(col))
		}
		draft.SetAnswer(get("answer"))

	case models.TrueFalse:
		if err := draft.SetAnswer(canonicalBool(get("answer"))); err != nil {
			return nil, []RowError{{Row: rowNum, Field: "answer", Message: err.Error()}}
		}

	case models.MatchingPairs:
		pairs := get("pairs")
		if pairs == "" {
			pairs = get("answer")
		}
		for _, entry := range splitAndTrim(pairs, "|") {
			left, right, found := strings.Cut(entry, "::")
			if !found {
				return nil, []RowError{{Row: rowNum, Field: "pairs",
					Message: fmt.Sprintf("pair %q is not in left :: right form", entry)}}
			}
			if err := draft.AddPair(); err != nil {
				return nil, []RowError{{Row: rowNum, Field: "pairs", Message: err.Error()}}
			}
			i := len(draft.Pairs) - 1
			draft.SetPairLeft(i, strings.TrimSpace(left))
			draft.SetPairRight(i, strings.TrimSpace(right))
			draft.SetCorrectRight(i, strings.TrimSpace(right))
		}
	}

	if verrs := s.validator.Draft().ValidateForSubmit(draft); len(verrs) > 0 {
		rowErrors := make([]RowError, 0, len(verrs))
		for _, verr := range verrs {
			rowErrors = append(rowErrors, RowError{Row: rowNum, Field: verr.Field, Message: verr.Message})
		}
		return nil, rowErrors
	}
	return draft, nil
}

func splitAndTrim(s, sep string) []string {
	var out []string
	for _, part := range strings.Split(s, sep) {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

func canonicalBool(value string) string {
	switch strings.ToLower(value) {
	case "true", "t", "yes", "1":
		return "True"
	case "false", "f", "no", "0":
		return "False"
	}
	return value
}

// ===== EXPORT OPERATIONS =====

func (s *importExportService) ExportQuestionsToCSV(ctx context.Context, lessonID string) ([]byte, error) {
	questions, err := s.questionAPI.ListQuestions(ctx, lessonID)
	if err != nil {
		return nil, fmt.Errorf("failed to list questions for lesson %s: %w", lessonID, err)
	}

	var buf strings.Builder
	writer := csv.NewWriter(&buf)

	if err := writer.Write(exportHeaders); err != nil {
		return nil, fmt.Errorf("failed to write CSV header: %w", err)
	}
	for _, question := range questions {
		if err := writer.Write(s.questionToRow(question)); err != nil {
			return nil, fmt.Errorf("failed to write CSV row: %w", err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("CSV writer error: %w", err)
	}

	s.publishExported(ctx, lessonID, len(questions), "csv")
	return []byte(buf.String()), nil
}

func (s *importExportService) ExportQuestionsToExcel(ctx context.Context, lessonID string) ([]byte, error) {
	questions, err := s.questionAPI.ListQuestions(ctx, lessonID)
	if err != nil {
		return nil, fmt.Errorf("failed to list questions for lesson %s: %w", lessonID, err)
	}

	f := excelize.NewFile()
	sheetName := "Questions"

	index, err := f.NewSheet(sheetName)
	if err != nil {
		return nil, fmt.Errorf("failed to create Excel sheet: %w", err)
	}
	f.SetActiveSheet(index)

	for i, header := range exportHeaders {
		cell := fmt.Sprintf("%c1", 'A'+i)
		f.SetCellValue(sheetName, cell, header)
	}
	for rowIndex, question := range questions {
		for colIndex, value := range s.questionToRow(question) {
			cell := fmt.Sprintf("%c%d", 'A'+colIndex, rowIndex+2)
			f.SetCellValue(sheetName, cell, value)
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("failed to write Excel file: %w", err)
	}

	s.publishExported(ctx, lessonID, len(questions), "xlsx")
	return buf.Bytes(), nil
}

func (s *importExportService) questionToRow(question *models.Question) []string {
	row := make([]string, len(exportHeaders))
	row[0] = fmt.Sprintf("%d", question.Position)
	row[1] = string(question.QuestionType)
	row[2] = question.QuestionText

	options := question.TextOptions()
	for i := 0; i < 4 && i < len(options); i++ {
		row[3+i] = options[i]
	}

	switch question.QuestionType {
	case models.MatchingPairs:
		// The answer key decodes to pairs; a malformed one exports empty.
		if pairs, err := models.DecodePairs(question.Answer); err == nil {
			entries := make([]string, len(pairs))
			for i, pair := range pairs {
				entries[i] = fmt.Sprintf("%s :: %s", pair.Left, pair.Right)
			}
			row[8] = strings.Join(entries, " | ")
		}
	default:
		row[7] = question.Answer
	}

	row[9] = strings.Join(question.Tags, ", ")
	row[10] = question.Explanation
	return row
}

func (s *importExportService) publishExported(ctx context.Context, lessonID string, count int, format string) {
	if s.publisher == nil {
		return
	}
	event := events.NewQuestionsExportedEvent(lessonID, count, format)
	if err := s.publisher.PublishAuthoringEvent(ctx, event); err != nil {
		s.logger.Error("Failed to publish export event", "lesson_id", lessonID, "error", err)
	}
}
