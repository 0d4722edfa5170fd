// services/reports/import.go
package reports

import (
	"context"
	"fmt"
	"io"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"
	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"

	"github.com/smena/smena_backend/internal/services/scheduling"
)

// Importer массово заводит смены из таблицы (xlsx-файл или Google
// Sheets). Каждая строка проходит через обычный Schedule: конфликты и
// невалидные строки собираются в отчёт, а не валят весь импорт.
type Importer struct {
	Scheduler       *scheduling.ShiftService
	CredentialsFile string
}

func NewImporter(scheduler *scheduling.ShiftService, credentialsFile string) *Importer {
	return &Importer{Scheduler: scheduler, CredentialsFile: credentialsFile}
}

// RowError — ошибка по одной строке (номер считается с единицы,
// включая заголовок).
type RowError struct {
	Row     int    `json:"row"`
	Message string `json:"message"`
}

// ImportResult — итог импорта.
type ImportResult struct {
	Created int        `json:"created"`
	Errors  []RowError `json:"errors,omitempty"`
}

// Ожидаемые колонки: user_id | start_time | end_time | break_minutes.
// Первая строка — заголовок. Время — RFC3339 либо "2006-01-02 15:04".

// ParseScheduleRows превращает строки таблицы в параметры смен.
// Чистая функция, удобная для тестов.
func ParseScheduleRows(rows [][]string, workspaceID int) ([]scheduling.ShiftInput, []RowError) {
	var inputs []scheduling.ShiftInput
	var rowErrs []RowError

	for i, row := range rows {
		if i == 0 {
			continue // заголовок
		}
		rowNum := i + 1

		if len(row) < 3 || strings.TrimSpace(row[0]) == "" {
			continue
		}

		userID, err := strconv.Atoi(strings.TrimSpace(row[0]))
		if err != nil {
			rowErrs = append(rowErrs, RowError{Row: rowNum, Message: "invalid user_id: " + row[0]})
			continue
		}
		start, err := parseImportTime(row[1])
		if err != nil {
			rowErrs = append(rowErrs, RowError{Row: rowNum, Message: "invalid start_time: " + row[1]})
			continue
		}
		end, err := parseImportTime(row[2])
		if err != nil {
			rowErrs = append(rowErrs, RowError{Row: rowNum, Message: "invalid end_time: " + row[2]})
			continue
		}

		breakMinutes := 0
		if len(row) > 3 && strings.TrimSpace(row[3]) != "" {
			breakMinutes, err = strconv.Atoi(strings.TrimSpace(row[3]))
			if err != nil {
				rowErrs = append(rowErrs, RowError{Row: rowNum, Message: "invalid break_minutes: " + row[3]})
				continue
			}
		}

		inputs = append(inputs, scheduling.ShiftInput{
			WorkspaceID:          workspaceID,
			UserID:               userID,
			StartTime:            start,
			EndTime:              end,
			BreakDurationMinutes: breakMinutes,
		})
	}
	return inputs, rowErrs
}

// Import прогоняет строки через планировщик смен.
func (im *Importer) Import(ctx context.Context, workspaceID int, rows [][]string) (*ImportResult, error) {
	if len(rows) < 2 {
		return nil, fmt.Errorf("файл должен содержать заголовок и хотя бы одну строку")
	}

	inputs, rowErrs := ParseScheduleRows(rows, workspaceID)
	result := &ImportResult{Errors: rowErrs}

	for _, in := range inputs {
		if _, err := im.Scheduler.Schedule(ctx, in); err != nil {
			result.Errors = append(result.Errors, RowError{
				Row:     0,
				Message: fmt.Sprintf("user %d, %s: %v", in.UserID, in.StartTime.Format(time.RFC3339), err),
			})
			continue
		}
		result.Created++
	}
	return result, nil
}

// ReadXLSX читает строки из загруженного Excel-файла.
func ReadXLSX(r io.Reader) ([][]string, error) {
	xlsx, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("неверный формат Excel: %w", err)
	}
	defer xlsx.Close()

	rows, err := xlsx.GetRows("Sheet1")
	if err != nil {
		sheetList := xlsx.GetSheetList()
		if len(sheetList) == 0 {
			return nil, fmt.Errorf("пустой Excel")
		}
		rows, err = xlsx.GetRows(sheetList[0])
		if err != nil {
			return nil, fmt.Errorf("ошибка чтения листа: %w", err)
		}
	}
	return rows, nil
}

var sheetURLRe = regexp.MustCompile(`\/d\/([a-zA-Z0-9-_]+)`)

// ReadGoogleSheet читает строки расписания из Google Sheets по URL.
func (im *Importer) ReadGoogleSheet(ctx context.Context, url string) ([][]string, error) {
	matches := sheetURLRe.FindStringSubmatch(url)
	if len(matches) < 2 {
		return nil, fmt.Errorf("неверный URL Google Sheets")
	}
	spreadsheetID := matches[1]

	srv, err := sheets.NewService(ctx, option.WithCredentialsFile(im.CredentialsFile))
	if err != nil {
		return nil, fmt.Errorf("ошибка инициализации Google API: %w", err)
	}

	resp, err := srv.Spreadsheets.Values.Get(spreadsheetID, "A1:D1000").Do()
	if err != nil {
		return nil, fmt.Errorf("ошибка чтения таблицы: %w", err)
	}
	if len(resp.Values) == 0 {
		return nil, fmt.Errorf("таблица пуста")
	}

	var rows [][]string
	for _, row := range resp.Values {
		var strRow []string
		for _, cell := range row {
			strRow = append(strRow, fmt.Sprintf("%v", cell))
		}
		rows = append(rows, strRow)
	}
	return rows, nil
}

func parseImportTime(raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return t, nil
	}
	return time.Parse("2006-01-02 15:04", raw)
}
