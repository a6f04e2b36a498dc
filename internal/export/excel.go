package export

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"vestry/internal/domain"

	"github.com/rs/zerolog"
	"github.com/xuri/excelize/v2"
)

// ExcelExporter writes workbook reports into the configured exports folder.
type ExcelExporter struct {
	tasks     domain.TaskStore
	directory domain.DirectoryStore
	path      string
	logger    *zerolog.Logger
}

func NewExcelExporter(tasks domain.TaskStore, directory domain.DirectoryStore, path string, logger *zerolog.Logger) *ExcelExporter {
	return &ExcelExporter{tasks: tasks, directory: directory, path: path, logger: logger}
}

// ExportTasks создает Excel файл со всеми задачами.
func (e *ExcelExporter) ExportTasks(ctx context.Context) (string, error) {
	if err := os.MkdirAll(e.path, 0o755); err != nil {
		return "", fmt.Errorf("error creating export directory: %v", err)
	}

	tasks, err := e.tasks.GetAllTasks(ctx)
	if err != nil {
		return "", fmt.Errorf("error getting tasks: %v", err)
	}

	f := excelize.NewFile()
	defer f.Close()

	sheetName := "Tasks"
	index, err := f.NewSheet(sheetName)
	if err != nil {
		return "", fmt.Errorf("error creating sheet: %v", err)
	}
	f.SetActiveSheet(index)

	headers := []string{
		"ID", "Title", "Notes", "Assigned To", "Due Date", "Status",
		"Priority", "Created By", "Updated At", "Synced",
	}
	headerStyle, _ := f.NewStyle(&excelize.Style{
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#DDEBF7"}, Pattern: 1},
		Font: &excelize.Font{Bold: true},
	})
	for i, header := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		_ = f.SetCellValue(sheetName, cell, header)
		_ = f.SetCellStyle(sheetName, cell, cell, headerStyle)
	}

	for i, task := range tasks {
		row := i + 2
		synced := "no"
		if !task.Sync.Dirty {
			synced = "yes"
		}
		_ = f.SetCellValue(sheetName, fmt.Sprintf("A%d", row), task.ID)
		_ = f.SetCellValue(sheetName, fmt.Sprintf("B%d", row), task.Title)
		_ = f.SetCellValue(sheetName, fmt.Sprintf("C%d", row), task.Notes)
		_ = f.SetCellValue(sheetName, fmt.Sprintf("D%d", row), task.AssignedTo)
		_ = f.SetCellValue(sheetName, fmt.Sprintf("E%d", row), task.DueDate)
		_ = f.SetCellValue(sheetName, fmt.Sprintf("F%d", row), task.Status)
		_ = f.SetCellValue(sheetName, fmt.Sprintf("G%d", row), task.Priority)
		_ = f.SetCellValue(sheetName, fmt.Sprintf("H%d", row), task.CreatedBy)
		_ = f.SetCellValue(sheetName, fmt.Sprintf("I%d", row), task.UpdatedAt.Format("02.01.2006 15:04"))
		_ = f.SetCellValue(sheetName, fmt.Sprintf("J%d", row), synced)
	}

	_ = f.SetColWidth(sheetName, "A", "A", 38)
	_ = f.SetColWidth(sheetName, "B", "B", 35)
	_ = f.SetColWidth(sheetName, "C", "C", 45)
	_ = f.SetColWidth(sheetName, "D", "H", 15)
	_ = f.SetColWidth(sheetName, "I", "I", 18)

	_ = f.DeleteSheet("Sheet1")

	fileName := fmt.Sprintf("tasks_export_%s.xlsx", time.Now().Format("2006-01-02_15-04-05"))
	filePath := filepath.Join(e.path, fileName)

	if err := f.SaveAs(filePath); err != nil {
		return "", fmt.Errorf("error saving file: %v", err)
	}

	e.logger.Info().Str("file_path", filePath).Msg("tasks Excel file created")
	return filePath, nil
}

// ExportContributions создает Excel файл с пожертвованиями за период.
func (e *ExcelExporter) ExportContributions(ctx context.Context, from, to string) (string, error) {
	if err := os.MkdirAll(e.path, 0o755); err != nil {
		return "", fmt.Errorf("error creating export directory: %v", err)
	}

	contributions, err := e.directory.GetContributions(ctx, from, to)
	if err != nil {
		return "", fmt.Errorf("error getting contributions: %v", err)
	}

	members, err := e.directory.GetAllMembers(ctx)
	if err != nil {
		return "", fmt.Errorf("error getting members: %v", err)
	}
	memberNames := make(map[string]string, len(members))
	for _, m := range members {
		memberNames[m.ID] = fmt.Sprintf("%s %s", m.FirstName, m.LastName)
	}

	f := excelize.NewFile()
	defer f.Close()

	sheetName := "Contributions"
	index, err := f.NewSheet(sheetName)
	if err != nil {
		return "", fmt.Errorf("error creating sheet: %v", err)
	}
	f.SetActiveSheet(index)

	headers := []string{"Date", "Member", "Fund", "Amount", "Method", "Note"}
	headerStyle, _ := f.NewStyle(&excelize.Style{
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#E2EFDA"}, Pattern: 1},
		Font: &excelize.Font{Bold: true},
	})
	for i, header := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		_ = f.SetCellValue(sheetName, cell, header)
		_ = f.SetCellStyle(sheetName, cell, cell, headerStyle)
	}

	var totalCents int64
	row := 2
	for _, c := range contributions {
		member := memberNames[c.MemberID]
		if member == "" && c.MemberID == "" {
			member = "anonymous"
		}
		_ = f.SetCellValue(sheetName, fmt.Sprintf("A%d", row), c.Date)
		_ = f.SetCellValue(sheetName, fmt.Sprintf("B%d", row), member)
		_ = f.SetCellValue(sheetName, fmt.Sprintf("C%d", row), c.Fund)
		_ = f.SetCellValue(sheetName, fmt.Sprintf("D%d", row), centsToDecimal(c.AmountCents))
		_ = f.SetCellValue(sheetName, fmt.Sprintf("E%d", row), c.Method)
		_ = f.SetCellValue(sheetName, fmt.Sprintf("F%d", row), c.Note)
		totalCents += c.AmountCents
		row++
	}

	totalStyle, _ := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	_ = f.SetCellValue(sheetName, fmt.Sprintf("C%d", row), "Total")
	_ = f.SetCellValue(sheetName, fmt.Sprintf("D%d", row), centsToDecimal(totalCents))
	_ = f.SetCellStyle(sheetName, fmt.Sprintf("C%d", row), fmt.Sprintf("D%d", row), totalStyle)

	_ = f.SetColWidth(sheetName, "A", "A", 12)
	_ = f.SetColWidth(sheetName, "B", "B", 25)
	_ = f.SetColWidth(sheetName, "C", "E", 12)
	_ = f.SetColWidth(sheetName, "F", "F", 40)

	_ = f.DeleteSheet("Sheet1")

	fileName := fmt.Sprintf("contributions_%s.xlsx", time.Now().Format("2006-01-02_15-04-05"))
	filePath := filepath.Join(e.path, fileName)

	if err := f.SaveAs(filePath); err != nil {
		return "", fmt.Errorf("error saving file: %v", err)
	}

	e.logger.Info().Str("file_path", filePath).Int("rows", len(contributions)).Msg("contributions Excel file created")
	return filePath, nil
}

// centsToDecimal converts stored cents into a workbook-friendly number.
func centsToDecimal(cents int64) float64 {
	return float64(cents) / 100
}
