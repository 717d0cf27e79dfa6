// Package csvio reads the delimited flat files the analytics core
// consumes: per-symbol bar files, metadata tables and holdings exports.
//
// The format is deliberately simpler than RFC 4180: rows are split on
// commas and any embedded quote, carriage-return or line-feed characters
// are stripped from cells, matching the files the downloader produces.
// encoding/csv is not used because its quoting rules disagree with that
// contract.
package csvio

import (
	"bufio"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
)

// ErrNotFound is returned when the requested file or directory is missing.
var ErrNotFound = errors.New("file not found")

// Table holds one parsed tabular file.
type Table struct {
	Header []string   // empty when the file was read without a header
	Rows   [][]string // one slice of cells per data row
}

// Read parses the file at path. When hasHeader is true the first row
// becomes the table header instead of a data row.
func Read(path string, hasHeader bool) (*Table, error) {
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, path)
		}
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()

	table := &Table{}
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	lineNum := 0
	for scanner.Scan() {
		lineNum++
		row := splitRow(scanner.Text())
		if hasHeader && lineNum == 1 {
			table.Header = row
			continue
		}
		table.Rows = append(table.Rows, row)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	return table, nil
}

func splitRow(line string) []string {
	cells := strings.Split(line, ",")
	for i, cell := range cells {
		cells[i] = stripControl(cell)
	}
	return cells
}

func stripControl(cell string) string {
	return strings.Map(func(r rune) rune {
		switch r {
		case '"', '\r', '\n':
			return -1
		}
		return r
	}, cell)
}
