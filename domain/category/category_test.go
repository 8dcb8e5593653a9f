package category

import (
	"errors"
	"testing"
)

func TestNewCategory_NormalizesName(t *testing.T) {
	c, err := NewCategory("  Technology ", " Software and gadgets ", []float64{1, 0})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if c.Name() != "technology" {
		t.Errorf("Name() = %q, want %q", c.Name(), "technology")
	}
	if c.Description() != "Software and gadgets" {
		t.Errorf("Description() = %q, want trimmed description", c.Description())
	}
	if c.Dimension() != 2 {
		t.Errorf("Dimension() = %d, want 2", c.Dimension())
	}
}

func TestNewCategory_RejectsBlankFields(t *testing.T) {
	tests := []struct {
		name        string
		catName     string
		description string
		embedding   []float64
	}{
		{"empty name", "", "desc", []float64{1}},
		{"whitespace name", "   ", "desc", []float64{1}},
		{"empty description", "name", "", []float64{1}},
		{"whitespace description", "name", "\t\n ", []float64{1}},
		{"no embedding", "name", "desc", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewCategory(tt.catName, tt.description, tt.embedding)
			if !errors.Is(err, ErrInvalidInput) {
				t.Errorf("expected ErrInvalidInput, got %v", err)
			}
		})
	}
}

func TestCategory_EmbeddingIsCopied(t *testing.T) {
	source := []float64{1, 2, 3}
	c, err := NewCategory("a", "b", source)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	source[0] = 99
	if c.Embedding()[0] != 1 {
		t.Error("mutating the source slice changed the category")
	}

	got := c.Embedding()
	got[1] = 99
	if c.Embedding()[1] != 2 {
		t.Error("mutating the returned slice changed the category")
	}
}

func TestDefaults(t *testing.T) {
	defs := Defaults()
	if len(defs) != 10 {
		t.Fatalf("expected 10 default categories, got %d", len(defs))
	}

	want := []string{"technology", "business", "health", "sports", "entertainment", "politics", "science", "education", "travel", "food"}
	for i, d := range defs {
		if d.Name != want[i] {
			t.Errorf("defaults[%d] = %q, want %q", i, d.Name, want[i])
		}
		if d.Description == "" {
			t.Errorf("default %q has no description", d.Name)
		}
	}
}
