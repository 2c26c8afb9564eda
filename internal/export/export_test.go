package export

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func Test_CSVExporter_WritesHeaderAndRows(t *testing.T) {
	// given
	dir := t.TempDir()
	exporter := NewCSVExporter(dir)
	exporter.now = func() time.Time {
		return time.Date(2026, 3, 9, 14, 30, 5, 0, time.UTC)
	}
	rows := [][]string{
		{"Teclado mecánico", "$95.50"},
		{"Monitor 27\"", "$320.00"},
	}

	// when
	path, err := exporter.Export(rows, "Productos", []string{"nombre", "precio"})

	// then
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "productos-20260309-143005.csv"), path)
	content, err := os.ReadFile(path)
	require.NoError(t, err)
	want := "nombre,precio\n" +
		"Teclado mecánico,$95.50\n" +
		"\"Monitor 27\"\"\",$320.00\n"
	assert.Equal(t, want, string(content))
}

func Test_CSVExporter_EmptyCollectionStillProducesHeader(t *testing.T) {
	// given
	dir := t.TempDir()
	exporter := NewCSVExporter(dir)

	// when
	path, err := exporter.Export(nil, "Ventas", []string{"usuario", "producto", "total"})

	// then
	require.NoError(t, err)
	content, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "usuario,producto,total\n", string(content))
}

func Test_CSVExporter_CreatesTargetDirectory(t *testing.T) {
	// given: a nested directory that does not exist yet
	dir := filepath.Join(t.TempDir(), "exports", "hoy")
	exporter := NewCSVExporter(dir)

	// when
	path, err := exporter.Export([][]string{{"a"}}, "Usuarios", []string{"nombre"})

	// then
	require.NoError(t, err)
	assert.DirExists(t, dir)
	assert.FileExists(t, path)
}
