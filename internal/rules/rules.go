package rules

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"go.uber.org/zap"
)

// ErrNoHeader is returned by Parse when the input has no header row.
var ErrNoHeader = errors.New("rule table has no header row")

// #region load

// Load reads a delimited rule table from path. A missing, unreadable or
// malformed file yields an empty table and a warning; Load never fails.
func Load(path string, logger *zap.Logger) *Table {
	if logger == nil {
		logger = zap.NewNop()
	}
	data, err := os.ReadFile(path)
	if err != nil {
		logger.Warn("rule table unavailable, using empty table",
			zap.String("path", path), zap.Error(err))
		return &Table{Path: path}
	}
	t, err := Parse(path, bytes.NewReader(data))
	if err != nil {
		logger.Warn("rule table malformed, using empty table",
			zap.String("path", path), zap.Error(err))
		return &Table{Path: path}
	}
	logger.Debug("rule table loaded", zap.String("path", path), zap.Int("rows", t.Len()))
	return t
}

// #endregion load

// #region parse

// Parse decodes a comma or pipe separated table. The header row defines the
// column names; short rows simply lack their trailing columns.
func Parse(path string, r io.Reader) (*Table, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	data = bytes.TrimPrefix(data, []byte("\xef\xbb\xbf"))

	cr := csv.NewReader(bytes.NewReader(data))
	cr.Comma = sniffDelimiter(data)
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true
	cr.TrimLeadingSpace = true

	records, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	if len(records) == 0 {
		return nil, ErrNoHeader
	}

	header := make([]string, len(records[0]))
	for i, h := range records[0] {
		header[i] = strings.TrimSpace(h)
	}

	t := &Table{Path: path, Header: header, Rows: make([]Row, 0, len(records)-1)}
	for _, rec := range records[1:] {
		if isBlank(rec) {
			continue
		}
		cols := make(map[string]string, len(header))
		for i, v := range rec {
			if i >= len(header) || header[i] == "" {
				break
			}
			cols[header[i]] = v
		}
		t.Rows = append(t.Rows, Row{cols: cols})
	}
	normalizeSynonyms(t)
	return t, nil
}

// #endregion parse

// #region helpers

// sniffDelimiter picks '|' when the header line carries more pipes than commas.
func sniffDelimiter(data []byte) rune {
	line := data
	if i := bytes.IndexByte(data, '\n'); i >= 0 {
		line = data[:i]
	}
	if bytes.Count(line, []byte("|")) > bytes.Count(line, []byte(",")) {
		return '|'
	}
	return ','
}

func isBlank(rec []string) bool {
	for _, v := range rec {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}

// #endregion helpers
