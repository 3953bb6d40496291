package read

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/kbukum/readflow/errors"
)

// PairTable maps template ids to complement ids and back. It is built once
// and only read afterwards.
type PairTable struct {
	templates   map[string]string
	complements map[string]string
}

// NewPairTable builds a table from template -> complement pairs.
func NewPairTable(pairs map[string]string) (*PairTable, error) {
	t := &PairTable{
		templates:   make(map[string]string, len(pairs)),
		complements: make(map[string]string, len(pairs)),
	}
	for tmpl, comp := range pairs {
		if err := t.add(tmpl, comp); err != nil {
			return nil, err
		}
	}
	return t, nil
}

func (t *PairTable) add(tmpl, comp string) *errors.AppError {
	if tmpl == "" || comp == "" {
		return errors.InvalidInput("pairs", "empty read id")
	}
	if tmpl == comp {
		return errors.InvalidInput("pairs", fmt.Sprintf("read %s paired with itself", tmpl))
	}
	for _, id := range []string{tmpl, comp} {
		if t.has(id) {
			return errors.InvalidInput("pairs", fmt.Sprintf("read %s appears in more than one pair", id))
		}
	}
	t.templates[tmpl] = comp
	t.complements[comp] = tmpl
	return nil
}

func (t *PairTable) has(id string) bool {
	_, a := t.templates[id]
	_, b := t.complements[id]
	return a || b
}

// Partner returns the id paired with id and whether id is the template.
func (t *PairTable) Partner(id string) (partner string, isTemplate bool, ok bool) {
	if c, found := t.templates[id]; found {
		return c, true, true
	}
	if tmpl, found := t.complements[id]; found {
		return tmpl, false, true
	}
	return "", false, false
}

// Contains reports whether id is named by any pair.
func (t *PairTable) Contains(id string) bool { return t.has(id) }

// Len returns the number of pairs.
func (t *PairTable) Len() int { return len(t.templates) }

// ReadIDs returns every id named by the table.
func (t *PairTable) ReadIDs() map[string]struct{} {
	ids := make(map[string]struct{}, 2*len(t.templates))
	for tmpl, comp := range t.templates {
		ids[tmpl] = struct{}{}
		ids[comp] = struct{}{}
	}
	return ids
}

// LoadPairTable parses one "template complement" pair per line. Ids are
// separated by whitespace or a comma; blank lines and lines starting with
// '#' are skipped.
func LoadPairTable(r io.Reader) (*PairTable, error) {
	t := &PairTable{
		templates:   make(map[string]string),
		complements: make(map[string]string),
	}

	sc := bufio.NewScanner(r)
	line := 0
	for sc.Scan() {
		line++
		text := strings.TrimSpace(sc.Text())
		if text == "" || strings.HasPrefix(text, "#") {
			continue
		}
		fields := strings.FieldsFunc(text, func(c rune) bool {
			return c == ',' || c == ' ' || c == '\t'
		})
		if len(fields) != 2 {
			return nil, errors.InvalidInput("pairs", fmt.Sprintf("line %d: expected 2 ids, got %d", line, len(fields)))
		}
		if err := t.add(fields[0], fields[1]); err != nil {
			return nil, err.WithDetail("line", line)
		}
	}
	if err := sc.Err(); err != nil {
		return nil, errors.InvalidInput("pairs", "read failed").WithCause(err)
	}
	return t, nil
}

// LoadPairsFile reads a pair table from path.
func LoadPairsFile(path string) (*PairTable, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.NotFound("pairs file", path).WithCause(err)
	}
	defer f.Close()
	return LoadPairTable(f)
}
