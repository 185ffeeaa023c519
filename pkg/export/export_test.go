package export

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCSVExporterRender(t *testing.T) {
	e := NewCSVExporter()
	data := Dataset{
		Headers: []string{"id", "title"},
		Rows: []map[string]string{
			{"id": "1", "title": "plain"},
			{"id": "2", "title": "with, comma"},
		},
	}
	out, err := e.Render(data)
	require.NoError(t, err)

	lines := strings.Split(strings.TrimRight(string(out), "\n"), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "id,title", lines[0])
	assert.Equal(t, `2,"with, comma"`, lines[2])
}

func TestCSVExporterRequiresHeaders(t *testing.T) {
	e := NewCSVExporter()
	_, err := e.Render(Dataset{})
	require.Error(t, err)
}

func TestJSONExporterRenderDocument(t *testing.T) {
	e := NewJSONExporter()
	out, err := e.RenderDocument(map[string]int{"count": 2})
	require.NoError(t, err)
	assert.Equal(t, "{\n  \"count\": 2\n}", string(out))
}

func TestJSONExporterRenderLines(t *testing.T) {
	e := NewJSONExporter()
	out, err := e.RenderLines([]interface{}{
		map[string]string{"id": "a"},
		map[string]string{"id": "b"},
	})
	require.NoError(t, err)

	lines := strings.Split(strings.TrimRight(string(out), "\n"), "\n")
	require.Len(t, lines, 2)
	assert.Equal(t, `{"id":"a"}`, lines[0])
}

func TestPDFExporterRender(t *testing.T) {
	e := NewPDFExporter()
	out, err := e.Render(Dataset{
		Headers: []string{"metric", "value"},
		Rows:    []map[string]string{{"metric": "jobs", "value": "3"}},
	}, "Summary")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(out), "%PDF"))
}
