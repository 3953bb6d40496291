package read

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/kbukum/readflow/errors"
)

func TestReverseComplement(t *testing.T) {
	tests := []struct{ in, want string }{
		{"", ""},
		{"A", "T"},
		{"ACGT", "ACGT"},
		{"AACCGX", "NCGGTT"},
		{"acgtN", "Nacgt"},
	}
	for _, tc := range tests {
		if got := ReverseComplement(tc.in); got != tc.want {
			t.Errorf("ReverseComplement(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
	if got := Reverse("!#%"); got != "%#!" {
		t.Errorf("Reverse = %q", got)
	}
}

func TestBaseIndex(t *testing.T) {
	for b, want := range map[byte]int{'A': 0, 'C': 1, 'G': 2, 'T': 3, 'N': 0, 'u': 3} {
		if got := BaseIndex(b); got != want {
			t.Errorf("BaseIndex(%c) = %d, want %d", b, got, want)
		}
	}
}

func TestCloneIsDeep(t *testing.T) {
	r := &Read{
		ID:        "a",
		RawSignal: []float32{1, 2},
		Moves:     []uint8{1, 0},
		Stereo:    NewFeatures(2, 2),
	}
	c := r.Clone().(*Read)
	c.RawSignal[0] = 9
	c.Moves[0] = 0
	c.Stereo.Set(0, 0, 5)
	if r.RawSignal[0] != 1 || r.Moves[0] != 1 || r.Stereo.At(0, 0) != 0 {
		t.Error("clone shares buffers with the original")
	}
}

func TestParentIDs(t *testing.T) {
	d := &Read{ID: DuplexID("t1", "c1"), IsDuplex: true}
	tmpl, comp, ok := d.ParentIDs()
	if !ok || tmpl != "t1" || comp != "c1" {
		t.Errorf("unexpected parents %q %q %v", tmpl, comp, ok)
	}
	if _, _, ok := (&Read{ID: "t1;c1"}).ParentIDs(); ok {
		t.Error("simplex reads have no parents")
	}
	if (&Read{}).ExpectedFragments() != 1 {
		t.Error("unsplit read should count as one fragment")
	}
}

func TestFeaturesTruncate(t *testing.T) {
	f := NewFeatures(2, 4)
	for c := 0; c < 4; c++ {
		f.Set(0, c, float32(c))
		f.Set(1, c, float32(10+c))
	}
	f.Truncate(2)
	if f.Cols != 2 || len(f.Data) != 4 {
		t.Fatalf("unexpected shape %dx%d (%d)", f.Rows, f.Cols, len(f.Data))
	}
	if f.At(1, 1) != 11 || f.Row(0)[1] != 1 {
		t.Errorf("truncate lost row layout: %v", f.Data)
	}
	if !f.TwoDimensional() {
		t.Error("expected two-dimensional block")
	}
	f.Truncate(0)
	if f.TwoDimensional() {
		t.Error("empty block is not two-dimensional")
	}
}

func TestLoadPairTable(t *testing.T) {
	input := `# template complement
t1 c1

t2,c2
t3	c3
`
	table, err := LoadPairTable(strings.NewReader(input))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if table.Len() != 3 {
		t.Errorf("expected 3 pairs, got %d", table.Len())
	}

	p, isTemplate, ok := table.Partner("t2")
	if !ok || !isTemplate || p != "c2" {
		t.Errorf("Partner(t2) = %q %v %v", p, isTemplate, ok)
	}
	p, isTemplate, ok = table.Partner("c3")
	if !ok || isTemplate || p != "t3" {
		t.Errorf("Partner(c3) = %q %v %v", p, isTemplate, ok)
	}
	if _, _, ok := table.Partner("x"); ok {
		t.Error("unknown id should have no partner")
	}
	if ids := table.ReadIDs(); len(ids) != 6 {
		t.Errorf("expected 6 ids, got %d", len(ids))
	}
}

func TestLoadPairTableRejects(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"single id", "t1\n"},
		{"three ids", "t1 c1 x\n"},
		{"self pair", "t1 t1\n"},
		{"duplicate template", "t1 c1\nt1 c2\n"},
		{"conflicting roles", "t1 c1\nc1 t2\n"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := LoadPairTable(strings.NewReader(tc.input))
			if !errors.HasCode(err, errors.ErrCodeInvalidInput) {
				t.Errorf("expected INVALID_INPUT, got %v", err)
			}
		})
	}
}

func TestLoadPairsFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "pairs.txt")
	if err := os.WriteFile(path, []byte("a b\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	table, err := LoadPairsFile(path)
	if err != nil || !table.Contains("b") {
		t.Fatalf("load: %v", err)
	}
	if _, err := LoadPairsFile(filepath.Join(t.TempDir(), "missing")); !errors.HasCode(err, errors.ErrCodeNotFound) {
		t.Errorf("expected NOT_FOUND, got %v", err)
	}
}

func TestNewPairTable(t *testing.T) {
	table, err := NewPairTable(map[string]string{"a": "b"})
	if err != nil || table.Len() != 1 {
		t.Fatalf("unexpected %v", err)
	}
	if _, err := NewPairTable(map[string]string{"a": ""}); err == nil {
		t.Error("expected error for empty id")
	}
}
