// Package sessionfile reads and extends the pipe-delimited transposed session
// files (voice_input.txt, background.txt, storyline.txt). The first row holds
// version labels; each later row holds one field, one cell per version.
package sessionfile

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"
)

// Delimiter separates cells in a session file.
const Delimiter = "|"

// ErrUnknownVersion is returned by Column when the label is not in the file.
var ErrUnknownVersion = errors.New("unknown session version")

// #region file
// File is a parsed transposed session file.
type File struct {
	Versions []string
	columns  [][]string
}

// Parse splits text into versions and per-version columns. Columns are kept by
// position, so repeated labels stay separate. Text with fewer than two lines
// yields an empty file.
func Parse(text string) *File {
	f := &File{}
	lines := splitLines(text)
	if len(lines) < 2 {
		return f
	}
	f.Versions = strings.Split(lines[0], Delimiter)
	f.columns = make([][]string, len(f.Versions))
	for _, line := range lines[1:] {
		for i, cell := range strings.Split(line, Delimiter) {
			if i < len(f.Versions) {
				f.columns[i] = append(f.columns[i], cell)
			}
		}
	}
	return f
}

// Column returns the values recorded under a version label. When a label
// repeats, the rightmost column wins.
func (f *File) Column(version string) ([]string, error) {
	for i := len(f.Versions) - 1; i >= 0; i-- {
		if f.Versions[i] == version {
			return f.columns[i], nil
		}
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownVersion, version)
}

// Latest returns the last version's column, or nil for an empty file.
func (f *File) Latest() []string {
	if len(f.Versions) == 0 {
		return nil
	}
	return f.columns[len(f.Versions)-1]
}
// #endregion file

// #region append
// AppendColumn adds column (label first, then values) as a new rightmost
// column. Every row is padded to the current width first so cells never shift
// into an earlier version, and rows the new column does not reach get an empty
// cell. A label already in the header gets a " #N" suffix.
func AppendColumn(text string, column []string) string {
	var rows [][]string
	for _, line := range splitLines(text) {
		rows = append(rows, strings.Split(line, Delimiter))
	}
	width := 0
	if len(rows) > 0 {
		width = len(rows[0])
	}
	for len(rows) < len(column) {
		rows = append(rows, nil)
	}
	if len(column) > 0 && len(rows) > 0 && width > 0 {
		column = append([]string{uniqueLabel(rows[0], column[0])}, column[1:]...)
	}
	for i := range rows {
		for len(rows[i]) < width {
			rows[i] = append(rows[i], "")
		}
		value := ""
		if i < len(column) {
			value = sanitize(column[i])
		}
		rows[i] = append(rows[i], value)
	}
	out := make([]string, len(rows))
	for i, row := range rows {
		out[i] = strings.Join(row, Delimiter)
	}
	return strings.Join(out, "\n")
}

func uniqueLabel(header []string, label string) string {
	taken := make(map[string]bool, len(header))
	for _, h := range header {
		taken[h] = true
	}
	candidate := sanitize(label)
	for n := 2; taken[candidate]; n++ {
		candidate = fmt.Sprintf("%s #%d", sanitize(label), n)
	}
	return candidate
}

// NewColumn prefixes values with a session label for t.
func NewColumn(layout string, t time.Time, values []string) []string {
	return append([]string{t.Format(layout)}, values...)
}

// AppendToFile reads path (missing is empty), appends column and writes it back.
func AppendToFile(path string, column []string) error {
	data, err := os.ReadFile(path)
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("read session file: %w", err)
	}
	out := AppendColumn(string(data), column)
	if err := os.WriteFile(path, []byte(out+"\n"), 0o644); err != nil {
		return fmt.Errorf("write session file: %w", err)
	}
	return nil
}
// #endregion append

// #region helpers
func splitLines(text string) []string {
	text = strings.TrimRight(strings.ReplaceAll(text, "\r\n", "\n"), "\n")
	if text == "" {
		return nil
	}
	return strings.Split(text, "\n")
}

// sanitize keeps a value on one cell: no delimiters, no line breaks.
func sanitize(v string) string {
	return strings.NewReplacer(Delimiter, "/", "\r\n", " ", "\n", " ", "\r", " ").Replace(v)
}
// #endregion helpers
