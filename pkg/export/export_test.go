package export

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleDataset() Dataset {
	return Dataset{
		Headers: []string{"Student ID", "Status"},
		Rows: []map[string]string{
			{"Student ID": "stu-1", "Status": "REGISTERED"},
			{"Student ID": "stu-2"}, // missing cell renders empty
		},
	}
}

func TestCSVExporterRender(t *testing.T) {
	payload, err := NewCSVExporter().Render(sampleDataset())
	require.NoError(t, err)

	assert.True(t, bytes.HasPrefix(payload, utf8BOM), "spreadsheet tools need the BOM to detect UTF-8")
	body := string(bytes.TrimPrefix(payload, utf8BOM))
	assert.Contains(t, body, "Student ID,Status\n")
	assert.Contains(t, body, "stu-1,REGISTERED\n")
	assert.Contains(t, body, "stu-2,\n")
}

func TestCSVExporterRequiresColumns(t *testing.T) {
	_, err := NewCSVExporter().Render(Dataset{})
	require.Error(t, err)
}

func TestPDFExporterRender(t *testing.T) {
	payload, err := NewPDFExporter().Render(sampleDataset(), "Drive Registrations")
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(payload, []byte("%PDF")))
}

func TestPDFExporterWideDataset(t *testing.T) {
	wide := Dataset{
		Headers: []string{"A", "B", "C", "D", "E", "F", "G"},
		Rows:    []map[string]string{{"A": "1"}},
	}
	payload, err := NewPDFExporter().Render(wide, "Placement Readiness")
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(payload, []byte("%PDF")))
}
