package export

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func sampleDataset() Dataset {
	return Dataset{
		Title:   "Salary reports 03/2025",
		Headers: []string{"Teacher", "Hours", "Salary"},
		Rows: []map[string]string{
			{"Teacher": "Ahmed", "Hours": "3", "Salary": "60"},
			{"Teacher": "Mona", "Salary": "0"},
		},
	}
}

func TestCSVExporterRender(t *testing.T) {
	out, err := NewCSVExporter().Render(sampleDataset())
	require.NoError(t, err)
	assert.Equal(t, "Teacher,Hours,Salary\nAhmed,3,60\nMona,,0\n", string(out))
}

func TestExportersRequireHeaders(t *testing.T) {
	for _, r := range []Renderer{NewCSVExporter(), NewPDFExporter(), NewXLSXExporter()} {
		_, err := r.Render(Dataset{})
		assert.Error(t, err)
	}
}

func TestPDFExporterRender(t *testing.T) {
	out, err := NewPDFExporter().Render(sampleDataset())
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(out, []byte("%PDF")))
}

func TestXLSXExporterRender(t *testing.T) {
	out, err := NewXLSXExporter().Render(sampleDataset())
	require.NoError(t, err)

	f, err := excelize.OpenReader(bytes.NewReader(out))
	require.NoError(t, err)
	defer f.Close() //nolint:errcheck

	header, err := f.GetCellValue("Report", "A1")
	require.NoError(t, err)
	assert.Equal(t, "Teacher", header)
	salary, err := f.GetCellValue("Report", "C2")
	require.NoError(t, err)
	assert.Equal(t, "60", salary)
}

func TestParseFormat(t *testing.T) {
	f, err := ParseFormat("")
	require.NoError(t, err)
	assert.Equal(t, FormatCSV, f)

	f, err = ParseFormat("xlsx")
	require.NoError(t, err)
	assert.Equal(t, "xlsx", f.Extension())

	_, err = ParseFormat("docx")
	assert.Error(t, err)
}
