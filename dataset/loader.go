package dataset

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/analytix-ai/analytix-go/config"
	pkgerr "github.com/analytix-ai/analytix-go/pkg/errors"
)

// Load parses CSV or XLSX content into a dataset of raw text columns. The
// filename extension selects the format; cfg.MaxInputBytes bounds how much
// input is read. Type inference is a separate pass (InferTypes), so the
// loader stays a pure parser.
func Load(r io.Reader, filename string, cfg config.Config) (*Dataset, error) {
	limited := io.LimitReader(r, cfg.MaxInputBytes+1)
	data, err := io.ReadAll(limited)
	if err != nil {
		return nil, pkgerr.NewIngestError(filename, "unreadable input: "+err.Error())
	}
	if int64(len(data)) > cfg.MaxInputBytes {
		return nil, pkgerr.NewIngestError(filename, "input exceeds configured size limit")
	}
	if len(data) == 0 {
		return nil, pkgerr.NewIngestError(filename, "empty input")
	}

	switch strings.ToLower(filepath.Ext(filename)) {
	case ".csv":
		return loadCSV(data, filename)
	case ".xlsx", ".xls":
		return loadXLSX(data, filename)
	default:
		return nil, pkgerr.NewIngestError(filename, "unsupported file format, expected CSV or Excel")
	}
}

func loadCSV(data []byte, filename string) (*Dataset, error) {
	reader := csv.NewReader(bytes.NewReader(data))
	reader.TrimLeadingSpace = true

	records, err := reader.ReadAll()
	if err != nil {
		return nil, pkgerr.NewIngestError(filename, "malformed CSV: "+err.Error())
	}
	return fromRecords(records, filename)
}

func loadXLSX(data []byte, filename string) (*Dataset, error) {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, pkgerr.NewIngestError(filename, "malformed workbook: "+err.Error())
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, pkgerr.NewIngestError(filename, "workbook has no sheets")
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, pkgerr.NewIngestError(filename, "reading sheet: "+err.Error())
	}

	// excelize drops trailing empty cells; pad to the header width.
	if len(rows) > 0 {
		width := len(rows[0])
		for i := range rows {
			for len(rows[i]) < width {
				rows[i] = append(rows[i], "")
			}
		}
	}
	return fromRecords(rows, filename)
}

// fromRecords builds text columns from a header row plus data rows.
func fromRecords(records [][]string, filename string) (*Dataset, error) {
	if len(records) < 2 {
		return nil, pkgerr.NewIngestError(filename, "need a header row and at least one data row")
	}
	header := records[0]
	body := records[1:]

	for i, row := range body {
		if len(row) != len(header) {
			return nil, pkgerr.NewIngestError(filename,
				fmt.Sprintf("ragged row: row %d has %d cells, header has %d", i+2, len(row), len(header)))
		}
	}

	cols := make([]*Column, len(header))
	for j, name := range header {
		name = strings.TrimSpace(name)
		if name == "" {
			name = "column_" + strconv.Itoa(j+1)
		}
		c := &Column{
			Name:    name,
			Kind:    Text,
			Strings: make([]string, len(body)),
			Null:    make([]bool, len(body)),
		}
		for i, row := range body {
			cell := strings.TrimSpace(row[j])
			if cell == "" || strings.EqualFold(cell, "na") || strings.EqualFold(cell, "null") || strings.EqualFold(cell, "nan") {
				c.Null[i] = true
				continue
			}
			c.Strings[i] = cell
		}
		cols[j] = c
	}

	ds, err := New(cols...)
	if err != nil {
		return nil, pkgerr.NewIngestError(filename, err.Error())
	}
	return ds, nil
}
