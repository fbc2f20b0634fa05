package comments

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"weibo-analysis/internal/components/failure"
)

const stage_load = "load"

// Writer appends comments to a table file. Every call to WritePage is a
// checkpoint: once it returns, the rows are flushed and synced to disk.
type Writer struct {
	path string
	file *os.File
	csv  *csv.Writer
}

// OpenWriter opens `path` for appending, creating it and its directory as
// needed. The header is written only when the file is empty, `truncate`
// empties an existing file first.
func OpenWriter(path string, truncate bool) (*Writer, error) {
	err := os.MkdirAll(filepath.Dir(path), 0777)
	if err != nil {
		return nil, err
	}

	flags := os.O_CREATE | os.O_WRONLY | os.O_APPEND
	if truncate {
		flags |= os.O_TRUNC
	}
	file, err := os.OpenFile(path, flags, 0644)
	if err != nil {
		return nil, err
	}
	info, err := file.Stat()
	if err != nil {
		file.Close()
		return nil, err
	}

	w := &Writer{
		path: path,
		file: file,
		csv:  csv.NewWriter(file),
	}
	if info.Size() == 0 {
		err = w.csv.Write(Header)
		if err == nil {
			err = w.flush()
		}
		if err != nil {
			file.Close()
			return nil, fmt.Errorf("write header: %w", err)
		}
	}
	return w, nil
}

func (w *Writer) Path() string {
	return w.path
}

func (w *Writer) flush() error {
	w.csv.Flush()
	err := w.csv.Error()
	if err != nil {
		return err
	}
	return w.file.Sync()
}

// WritePage appends `rows` and flushes them to disk.
func (w *Writer) WritePage(rows []Comment) error {
	for _, c := range rows {
		likes := ""
		if c.LikeCount != nil {
			likes = strconv.Itoa(*c.LikeCount)
		}
		err := w.csv.Write([]string{
			c.ID,
			c.Author,
			c.Text,
			c.Timestamp,
			likes,
		})
		if err != nil {
			return err
		}
	}
	return w.flush()
}

func (w *Writer) Close() error {
	err := w.flush()
	closeErr := w.file.Close()
	return errors.Join(err, closeErr)
}

// Load reads a whole table, failing with failure.ErrData if the file is
// missing, has no data rows or has no text column.
func Load(path string) ([]Comment, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, failure.Data(stage_load, err)
	}
	defer file.Close()

	rows, err := Read(file)
	if err != nil {
		return nil, failure.Data(stage_load, fmt.Errorf("%s: %w", path, err))
	}
	return rows, nil
}

var errNoRows = errors.New("table has no data rows")

// Read parses a table from `r`.
func Read(r io.Reader) ([]Comment, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err == io.EOF {
		return nil, errNoRows
	}
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}

	columns := map[string]int{}
	for i, name := range header {
		if i == 0 {
			// spreadsheet exports prefix the file with a byte order mark
			name = strings.TrimPrefix(name, "\ufeff")
		}
		name = strings.ToLower(strings.TrimSpace(name))
		if _, exists := columns[name]; !exists {
			columns[name] = i
		}
	}
	textColumn, ok := columns[ColumnText]
	if !ok {
		textColumn, ok = columns[columnLegacyText]
	}
	if !ok {
		return nil, fmt.Errorf("missing %q column in header %v", ColumnText, header)
	}

	field := func(record []string, name string) string {
		i, ok := columns[name]
		if !ok || i >= len(record) {
			return ""
		}
		return record[i]
	}

	var out []Comment
	row := 0
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		row++
		if err != nil {
			return nil, fmt.Errorf("read row: %w", err)
		}

		c := Comment{
			ID:        field(record, ColumnID),
			Author:    field(record, ColumnAuthor),
			Timestamp: field(record, ColumnTimestamp),
		}
		if textColumn < len(record) {
			c.Text = record[textColumn]
		}
		likes := strings.TrimSpace(field(record, ColumnLikeCount))
		if likes != "" {
			n, err := strconv.Atoi(likes)
			if err != nil || n < 0 {
				return nil, fmt.Errorf("row %d: invalid %s %q", row, ColumnLikeCount, likes)
			}
			c.LikeCount = &n
		}
		out = append(out, c)
	}

	if len(out) == 0 {
		return nil, errNoRows
	}
	return out, nil
}
