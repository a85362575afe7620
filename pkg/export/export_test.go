package export

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func outstandingDataset() Dataset {
	ds := Dataset{Headers: []string{"student_id", "full_name", "outstanding", "status"}}
	ds.Append(map[string]string{"student_id": "s-1", "full_name": "Ada Obi", "outstanding": Money(6000), "status": "Unpaid"})
	ds.Append(map[string]string{"student_id": "s-2", "full_name": "Bola, Jr", "outstanding": Money(-100), "status": "Paid"})
	return ds
}

func TestCSVExporterRender(t *testing.T) {
	out, err := NewCSVExporter().Render(outstandingDataset())
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(string(out)), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "student_id,full_name,outstanding,status", lines[0])
	assert.Equal(t, "s-1,Ada Obi,6000.00,Unpaid", lines[1])
	assert.Equal(t, `s-2,"Bola, Jr",-100.00,Paid`, lines[2])
}

func TestCSVExporterRequiresHeaders(t *testing.T) {
	_, err := NewCSVExporter().Render(Dataset{})
	assert.Error(t, err)
}

func TestPDFExporterRender(t *testing.T) {
	out, err := NewPDFExporter().Render(outstandingDataset(), "Outstanding fees")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(out), "%PDF"))
}

func TestPDFExporterDocumentWithSummary(t *testing.T) {
	out, err := NewPDFExporter().RenderDocument(Document{
		Title:   "Fee statement",
		Summary: []Field{{Label: "Outstanding", Value: Money(200)}},
		Table:   Dataset{Headers: []string{"date", "amount"}},
	})
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(out), "%PDF"))
}
