// Package corpus loads the question/answer guidance table.
// Supported formats: .csv and .xlsx with a Question/Answer header row,
// .yaml/.yml and .json lists of {question, answer}.
package corpus

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"
	"gopkg.in/yaml.v3"

	"github.com/futurenavigators/pathpilot/internal/domain"
)

// Load reads the corpus at path. Rows with an empty question are skipped.
// Any read or parse failure wraps domain.ErrCorpusLoad; a corpus with no
// usable rows returns domain.ErrEmptyCorpus.
func Load(path string) ([]domain.CorpusEntry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: read %s: %v", domain.ErrCorpusLoad, path, err)
	}
	return Parse(filepath.Ext(path), data)
}

// Parse decodes corpus bytes in the format named by ext (".csv", ".xlsx",
// ".yaml", ".yml", ".json").
func Parse(ext string, data []byte) ([]domain.CorpusEntry, error) {
	var (
		entries []domain.CorpusEntry
		err     error
	)
	switch strings.ToLower(ext) {
	case ".csv":
		entries, err = parseCSV(bytes.NewReader(data))
	case ".xlsx":
		entries, err = parseXLSX(bytes.NewReader(data))
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, &entries)
	case ".json":
		err = json.Unmarshal(data, &entries)
	default:
		return nil, fmt.Errorf("%w: unsupported format %q", domain.ErrCorpusLoad, ext)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrCorpusLoad, err)
	}

	out := entries[:0]
	for _, e := range entries {
		e.Question = strings.TrimSpace(e.Question)
		e.Answer = strings.TrimSpace(e.Answer)
		if e.Question == "" {
			continue
		}
		out = append(out, e)
	}
	if len(out) == 0 {
		return nil, domain.ErrEmptyCorpus
	}
	return out, nil
}

func parseCSV(r io.Reader) ([]domain.CorpusEntry, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	rows, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("csv: %w", err)
	}
	return fromRows(rows)
}

func parseXLSX(r io.Reader) ([]domain.CorpusEntry, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("xlsx: %w", err)
	}
	defer f.Close()

	rows, err := f.GetRows(f.GetSheetName(0))
	if err != nil {
		return nil, fmt.Errorf("xlsx rows: %w", err)
	}
	return fromRows(rows)
}

// fromRows maps a header row plus data rows onto entries. Header matching
// is case-insensitive.
func fromRows(rows [][]string) ([]domain.CorpusEntry, error) {
	if len(rows) == 0 {
		return nil, nil
	}
	qCol, aCol := -1, -1
	for i, h := range rows[0] {
		switch strings.ToLower(strings.TrimSpace(h)) {
		case "question":
			qCol = i
		case "answer":
			aCol = i
		}
	}
	if qCol < 0 || aCol < 0 {
		return nil, fmt.Errorf("header must contain Question and Answer columns, got %v", rows[0])
	}

	entries := make([]domain.CorpusEntry, 0, len(rows)-1)
	for _, row := range rows[1:] {
		entries = append(entries, domain.CorpusEntry{
			Question: cell(row, qCol),
			Answer:   cell(row, aCol),
		})
	}
	return entries, nil
}

func cell(row []string, i int) string {
	if i < len(row) {
		return row[i]
	}
	return ""
}
