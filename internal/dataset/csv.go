package dataset

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
)

// LoadOptions controls file loading.
type LoadOptions struct {
	// Delimiter for CSV; 0 sniffs by extension (tab for .tsv, comma otherwise).
	Delimiter rune
	// SkipRows drops the first N physical rows before the header.
	SkipRows int
	// SheetName selects an xlsx worksheet by name; empty selects by SheetIndex.
	SheetName string
	// SheetIndex is the 1-based worksheet index (Sheet1 == 1); <=0 means first.
	SheetIndex int
}

// LoadFile dispatches on file extension: .xlsx goes through the worksheet
// reader, everything else is read as delimited text.
func LoadFile(path string, opt LoadOptions) (*Table, error) {
	if strings.HasSuffix(strings.ToLower(path), ".xlsx") {
		return LoadXLSX(path, opt)
	}
	return LoadCSV(path, opt)
}

// LoadCSV reads a delimited text file into a Table. The first row after
// SkipRows is the header; short rows are padded to the header width.
func LoadCSV(path string, opt LoadOptions) (*Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open input: %w", err)
	}
	defer f.Close()

	delim := opt.Delimiter
	if delim == 0 {
		delim = sniffDelimiter(path)
	}
	r := csv.NewReader(f)
	r.Comma = delim
	r.FieldsPerRecord = -1
	r.TrimLeadingSpace = true

	for i := 0; i < opt.SkipRows; i++ {
		if _, err := r.Read(); err != nil {
			if errors.Is(err, io.EOF) {
				return nil, fmt.Errorf("input %s has fewer than %d rows to skip", path, opt.SkipRows)
			}
			return nil, fmt.Errorf("skip row %d: %w", i+1, err)
		}
	}

	header, err := r.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("input %s is empty", path)
		}
		return nil, fmt.Errorf("read header: %w", err)
	}
	t := New(header)
	for {
		rec, err := r.Read()
		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return nil, fmt.Errorf("read row %d: %w", t.Len()+1, err)
		}
		t.Append(rec)
	}
	return t, nil
}

func sniffDelimiter(path string) rune {
	if strings.HasSuffix(strings.ToLower(path), ".tsv") {
		return '\t'
	}
	return ','
}

// WriteCSV writes a table to path via a temp file and atomic rename, so a
// failed run never leaves a truncated report behind.
func WriteCSV(path string, t *Table) error {
	tmp := path + ".tmp"
	f, err := os.Create(tmp)
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	w := csv.NewWriter(f)
	if err := w.Write(t.Columns); err != nil {
		f.Close()
		_ = os.Remove(tmp)
		return fmt.Errorf("write header: %w", err)
	}
	for i, row := range t.Rows {
		if err := w.Write(row); err != nil {
			f.Close()
			_ = os.Remove(tmp)
			return fmt.Errorf("write row %d: %w", i+1, err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		f.Close()
		_ = os.Remove(tmp)
		return fmt.Errorf("flush csv: %w", err)
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("atomic rename: %w", err)
	}
	return nil
}
