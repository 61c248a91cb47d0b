package export

import (
	"bytes"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"hr-go/internal/hr"
)

func record(t *testing.T, doc string) *hr.Hindrance {
	t.Helper()
	var h hr.Hindrance
	require.NoError(t, json.Unmarshal([]byte(doc), &h))
	return &h
}

func TestWriteRegister(t *testing.T) {
	project := &hr.ProjectConfig{ProjectName: "Ring Road Package 3", ContractNo: "RR/3/2024"}
	views := []*hr.HindranceView{
		{
			Record: record(t, `{"srNo":"HR-001","dateOccurrence":"2024-03-01","startDate":"2024-03-02",
				"nature":"Other","natureOther":"Utility shifting",
				"workAffected":["Foundation & Excavation","Structural Frame"],"severity":"High"}`),
			EffectiveStatus: hr.StatusOverdue,
			DaysPending:     13,
		},
		{
			Record: record(t, `{"srNo":"HR-002","startDate":"2024-03-05","removalDate":"2024-03-08",
				"nature":"Drawing delay","responsibleParty":"Client","daysNotAttributable":"3","remarks":"cleared"}`),
			EffectiveStatus: hr.StatusResolved,
			DaysPending:     3,
		},
	}

	var buf bytes.Buffer
	require.NoError(t, WriteRegister(&buf, project, views))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{SheetName}, f.GetSheetList())

	title, err := f.GetCellValue(SheetName, "A1")
	require.NoError(t, err)
	assert.Equal(t, "Ring Road Package 3 (Contract RR/3/2024)", title)

	rows, err := f.GetRows(SheetName)
	require.NoError(t, err)
	require.Len(t, rows, HeaderRow+2)
	assert.Equal(t, Columns, rows[HeaderRow-1])

	first := rows[HeaderRow]
	assert.Equal(t, "HR-001", first[0])
	assert.Equal(t, "01-03-2024", first[1])
	assert.Equal(t, "Other: Utility shifting", first[2])
	assert.Equal(t, "Foundation & Excavation, Structural Frame", first[3])
	assert.Equal(t, "-", first[5])
	assert.Equal(t, "13", first[6])
	assert.Equal(t, "Overdue", first[7])

	second := rows[HeaderRow+1]
	assert.Equal(t, "-", second[1], "missing occurrence date")
	assert.Equal(t, "08-03-2024", second[5])
	assert.Equal(t, "Resolved", second[7])
	assert.Equal(t, "Client", second[8])
	assert.Equal(t, "3", second[10])
	assert.Equal(t, "cleared", second[11])
}

func TestWriteRegister_Empty(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteRegister(&buf, nil, nil))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()

	title, err := f.GetCellValue(SheetName, "A1")
	require.NoError(t, err)
	assert.Equal(t, hr.DefaultProjectConfig().ProjectName, title)

	rows, err := f.GetRows(SheetName)
	require.NoError(t, err)
	assert.Len(t, rows, HeaderRow)
}

func TestFileName(t *testing.T) {
	ts := time.Date(2024, 3, 15, 9, 0, 0, 0, time.UTC)
	assert.Equal(t, "Hindrance_Register_Ring_Road_Pkg_3_2024-03-15.xlsx",
		FileName(&hr.ProjectConfig{ProjectName: "Ring Road  Pkg 3"}, ts))
	assert.Equal(t, "Hindrance_Register_Construction_Project_2024-03-15.xlsx", FileName(nil, ts))
}
