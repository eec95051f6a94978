// Package corpus owns the labeled historical-case corpus: the record type,
// its CSV persistence, and the synthetic generator that produces it.
//
// The corpus doubles as training data for the classifier and as the case
// base the similarity retriever ranks against. Rows are immutable once
// loaded; insertion order is the retrieval tie-break order.
package corpus

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/fyrsmithlabs/debugassist/internal/artifact"
	"github.com/fyrsmithlabs/debugassist/pkg/family"
)

// Case is one labeled solved case.
type Case struct {
	ID     string
	Text   string
	Family family.Family
	Fix    string
}

// CSV column order, matching the generated dataset.
var csvHeader = []string{"id", "error_text", "error_family", "fix_text"}

// ReadCases loads the corpus CSV. A missing file is an artifact error: the
// pipeline cannot build its retrieval index without it.
func ReadCases(path string) ([]Case, error) {
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", artifact.ErrMissing, path)
		}
		return nil, fmt.Errorf("opening corpus %s: %w", path, err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = len(csvHeader)

	header, err := r.Read()
	if err != nil {
		return nil, fmt.Errorf("reading corpus header: %w", err)
	}
	for i, col := range csvHeader {
		if header[i] != col {
			return nil, fmt.Errorf("corpus %s: expected column %q at position %d, got %q",
				path, col, i, header[i])
		}
	}

	var cases []Case
	for {
		record, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("reading corpus row: %w", err)
		}
		fam, err := family.Parse(record[2])
		if err != nil {
			return nil, fmt.Errorf("corpus row %s: %w", record[0], err)
		}
		cases = append(cases, Case{
			ID:     record[0],
			Text:   record[1],
			Family: fam,
			Fix:    record[3],
		})
	}
	return cases, nil
}

// WriteCases writes the corpus CSV, creating parent directories.
func WriteCases(path string, cases []Case) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating corpus directory: %w", err)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating corpus %s: %w", path, err)
	}

	w := csv.NewWriter(f)
	if err := w.Write(csvHeader); err != nil {
		f.Close()
		return fmt.Errorf("writing corpus header: %w", err)
	}
	for _, c := range cases {
		if err := w.Write([]string{c.ID, c.Text, string(c.Family), c.Fix}); err != nil {
			f.Close()
			return fmt.Errorf("writing corpus row %s: %w", c.ID, err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		f.Close()
		return fmt.Errorf("flushing corpus: %w", err)
	}
	return f.Close()
}
