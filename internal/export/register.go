// Package export renders the hindrance register as a spreadsheet.
package export

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"hr-go/internal/hr"
)

// SheetName is the worksheet holding the register.
const SheetName = "Hindrance Register"

// HeaderRow is the 1-based row of the column headers; records start on the next row.
const HeaderRow = 3

// Columns are the register columns in sheet order.
var Columns = []string{
	"Sr No",
	"Date of Occurrence",
	"Nature",
	"Work Affected",
	"Start Date",
	"Removal Date",
	"Days",
	"Status",
	"Responsible Party",
	"Severity",
	"Days Not Attributable",
	"Remarks",
}

var columnWidths = []float64{10, 16, 28, 30, 14, 14, 8, 18, 20, 12, 12, 40}

const displayDateLayout = "02-01-2006"

// WriteRegister writes an xlsx workbook with a title row for project and one row per view.
// Status and day counts come from the views, so they reflect the instant the views were
// computed.
func WriteRegister(w io.Writer, project *hr.ProjectConfig, views []*hr.HindranceView) error {
	f := excelize.NewFile()
	defer f.Close()

	index, err := f.NewSheet(SheetName)
	if err != nil {
		return fmt.Errorf("failed to create sheet: %w", err)
	}
	if err := f.DeleteSheet("Sheet1"); err != nil {
		return fmt.Errorf("failed to remove default sheet: %w", err)
	}
	f.SetActiveSheet(index)

	if err := writeTitle(f, project); err != nil {
		return err
	}
	if err := writeHeader(f); err != nil {
		return err
	}

	for i, v := range views {
		if err := f.SetSheetRow(SheetName, rowCell(HeaderRow+1+i), rowValues(v)); err != nil {
			return fmt.Errorf("failed to write row for %s: %w", v.Record.SrNo, err)
		}
	}

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("failed to write workbook: %w", err)
	}
	return nil
}

func writeTitle(f *excelize.File, project *hr.ProjectConfig) error {
	if project == nil {
		project = hr.DefaultProjectConfig()
	}
	title := project.ProjectName
	if project.ContractNo != "" {
		title += " (Contract " + project.ContractNo + ")"
	}

	style, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true, Size: 14}})
	if err != nil {
		return fmt.Errorf("failed to create title style: %w", err)
	}
	if err := f.SetCellValue(SheetName, "A1", title); err != nil {
		return fmt.Errorf("failed to set title: %w", err)
	}
	lastCol, _ := excelize.ColumnNumberToName(len(Columns))
	if err := f.MergeCell(SheetName, "A1", lastCol+"1"); err != nil {
		return fmt.Errorf("failed to merge title: %w", err)
	}
	return f.SetCellStyle(SheetName, "A1", "A1", style)
}

func writeHeader(f *excelize.File) error {
	style, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{
			Type:    "pattern",
			Color:   []string{"#E6F3FF"},
			Pattern: 1,
		},
		Border: []excelize.Border{
			{Type: "left", Color: "000000", Style: 1},
			{Type: "top", Color: "000000", Style: 1},
			{Type: "bottom", Color: "000000", Style: 1},
			{Type: "right", Color: "000000", Style: 1},
		},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center", WrapText: true},
	})
	if err != nil {
		return fmt.Errorf("failed to create header style: %w", err)
	}

	header := make([]any, len(Columns))
	for i, c := range Columns {
		header[i] = c
	}
	if err := f.SetSheetRow(SheetName, rowCell(HeaderRow), &header); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}

	lastCol, _ := excelize.ColumnNumberToName(len(Columns))
	if err := f.SetCellStyle(SheetName, rowCell(HeaderRow), fmt.Sprintf("%s%d", lastCol, HeaderRow), style); err != nil {
		return fmt.Errorf("failed to set header style: %w", err)
	}
	for i, width := range columnWidths {
		col, _ := excelize.ColumnNumberToName(i + 1)
		if err := f.SetColWidth(SheetName, col, col, width); err != nil {
			return fmt.Errorf("failed to set column width: %w", err)
		}
	}
	return f.SetPanes(SheetName, &excelize.Panes{
		Freeze:      true,
		YSplit:      HeaderRow,
		TopLeftCell: rowCell(HeaderRow + 1),
		ActivePane:  "bottomLeft",
	})
}

func rowValues(v *hr.HindranceView) *[]any {
	h := v.Record
	removal := "-"
	if h.IsRemoved() {
		removal = displayDate(*h.RemovalDate)
	}
	row := []any{
		h.SrNo,
		displayDate(h.DateOccurrence),
		h.NatureLabel(),
		strings.Join(h.WorkPhases(), ", "),
		displayDate(h.StartDate),
		removal,
		v.DaysPending,
		string(v.EffectiveStatus),
		h.Text(hr.FieldResponsibleParty),
		h.Text(hr.FieldSeverity),
		h.Number(hr.FieldDaysNotAttributable),
		h.Text(hr.FieldRemarks),
	}
	return &row
}

// displayDate renders a stored date as DD-MM-YYYY, or "-" when it cannot be parsed.
func displayDate(s string) string {
	d, ok := hr.ParseDate(s)
	if !ok {
		return "-"
	}
	return d.Format(displayDateLayout)
}

// FileName is the download name for an export of project taken at t, e.g.
// Hindrance_Register_Ring_Road_2024-03-15.xlsx.
func FileName(project *hr.ProjectConfig, t time.Time) string {
	name := hr.DefaultProjectConfig().ProjectName
	if project != nil && strings.TrimSpace(project.ProjectName) != "" {
		name = project.ProjectName
	}
	return "Hindrance_Register_" + strings.Join(strings.Fields(name), "_") + "_" + hr.FormatDate(t) + ".xlsx"
}

func rowCell(row int) string {
	return fmt.Sprintf("A%d", row)
}
