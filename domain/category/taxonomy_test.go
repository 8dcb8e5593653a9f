package category

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseTaxonomy(t *testing.T) {
	data := []byte(`
categories:
  - name: "  Legal "
    description: Law, courts, contracts
  - name: weather
    description: Forecasts, storms, climate
`)

	defs, err := ParseTaxonomy(data)
	require.NoError(t, err)
	require.Equal(t, []Definition{
		{Name: "legal", Description: "Law, courts, contracts"},
		{Name: "weather", Description: "Forecasts, storms, climate"},
	}, defs)
}

func TestParseTaxonomy_Invalid(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{"not yaml", "categories: [unterminated"},
		{"empty", "categories: []"},
		{"missing name", "categories:\n  - description: something\n"},
		{"missing description", "categories:\n  - name: something\n"},
		{"duplicate", "categories:\n  - name: a\n    description: x\n  - name: A\n    description: y\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseTaxonomy([]byte(tt.data))
			require.ErrorIs(t, err, ErrInvalidInput)
		})
	}
}

func TestLoadTaxonomy(t *testing.T) {
	path := filepath.Join(t.TempDir(), "categories.yaml")
	require.NoError(t, os.WriteFile(path, []byte("categories:\n  - name: a\n    description: first\n"), 0o600))

	defs, err := LoadTaxonomy(path)
	require.NoError(t, err)
	require.Len(t, defs, 1)

	_, err = LoadTaxonomy(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
}
