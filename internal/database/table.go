package database

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/starford/vaultport/internal/models"
)

// Row maps normalized keys to typed values. Every header key is present.
type Row map[string]models.Value

// Table is a parsed tabular source.
type Table struct {
	Headers []Header
	Rows    []Row
}

// ReadCSV parses a header row plus records. Short records yield absent
// values for the missing columns.
func ReadCSV(r io.Reader) (*Table, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true

	labels, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return &Table{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("database: read header: %w", err)
	}
	t := &Table{Headers: make([]Header, len(labels))}
	for i, label := range labels {
		if i == 0 {
			label = strings.TrimPrefix(label, "\uFEFF")
		}
		t.Headers[i] = ParseHeader(label)
	}

	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("database: read record: %w", err)
		}
		t.Rows = append(t.Rows, t.convertRecord(rec))
	}
	return t, nil
}

func (t *Table) convertRecord(rec []string) Row {
	row := make(Row, len(t.Headers))
	for i, h := range t.Headers {
		raw := ""
		if i < len(rec) {
			raw = rec[i]
		}
		row[h.Key] = ConvertValue(raw, h.Type)
	}
	return row
}
