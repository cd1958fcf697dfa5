package dataset

import (
	"encoding/csv"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// Load reads a CSV file into a Table. The first record is the header; column
// names are taken verbatim. A column whose non-empty cells all parse as
// numbers becomes a numeric series (empty cells become NaN); anything else
// becomes a text series with empty cells marked missing.
func Load(path string) (*Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open data file: %w", err)
	}
	defer f.Close()

	t, err := Read(f)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", filepath.Base(path), err)
	}
	return t, nil
}

// Read parses CSV data from r into a Table. A UTF-8 BOM, commonly added by
// Windows programs, is skipped if present.
func Read(r io.Reader) (*Table, error) {
	cr := csv.NewReader(newBOMSkippingReader(r))
	cr.FieldsPerRecord = -1

	records, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("parse csv: %w", err)
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("empty csv: no header row")
	}

	header := records[0]
	rows := records[1:]

	t := New()
	for i, name := range header {
		cells := make([]string, len(rows))
		for j, row := range rows {
			if i < len(row) {
				cells[j] = strings.TrimSpace(row[i])
			}
		}
		if err := t.AddColumn(buildSeries(name, cells)); err != nil {
			return nil, err
		}
	}
	return t, nil
}

// buildSeries infers the column kind from its cells.
func buildSeries(name string, cells []string) *Series {
	numeric := true
	seen := false
	for _, c := range cells {
		if c == "" {
			continue
		}
		seen = true
		if _, err := strconv.ParseFloat(c, 64); err != nil {
			numeric = false
			break
		}
	}

	if numeric && seen {
		floats := make([]float64, len(cells))
		for i, c := range cells {
			if c == "" {
				floats[i] = math.NaN()
				continue
			}
			floats[i], _ = strconv.ParseFloat(c, 64)
		}
		return &Series{Name: name, Kind: KindNumeric, Floats: floats}
	}

	var absent []bool
	for i, c := range cells {
		if c == "" {
			if absent == nil {
				absent = make([]bool, len(cells))
			}
			absent[i] = true
		}
	}
	return &Series{Name: name, Kind: KindText, Text: cells, Absent: absent}
}

// SaveCSV writes the table to path, creating parent directories as needed.
// Numeric cells use the shortest representation that round-trips; missing
// cells are written empty.
func SaveCSV(t *Table, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	cols := t.Columns()
	if err := w.Write(cols); err != nil {
		return err
	}

	row := make([]string, len(cols))
	for i := 0; i < t.NumRows(); i++ {
		for j, name := range cols {
			s, _ := t.Column(name)
			row[j] = formatCell(s, i)
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}

func formatCell(s *Series, i int) string {
	if s.Kind == KindNumeric {
		v := s.Floats[i]
		if math.IsNaN(v) {
			return ""
		}
		return strconv.FormatFloat(v, 'g', -1, 64)
	}
	if s.Absent != nil && s.Absent[i] {
		return ""
	}
	return s.Text[i]
}

// SaveMarkdown writes report content to path, creating parent directories
// as needed.
func SaveMarkdown(content, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create report dir: %w", err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}

// bomSkippingReader wraps an io.Reader and skips a leading UTF-8 BOM
// (0xEF 0xBB 0xBF) if present.
type bomSkippingReader struct {
	reader     io.Reader
	bomChecked bool
	buf        [3]byte
	bufData    []byte
	bufOffset  int
}

func newBOMSkippingReader(r io.Reader) *bomSkippingReader {
	return &bomSkippingReader{reader: r}
}

// Read implements io.Reader. On the first read it checks for and skips the BOM.
func (r *bomSkippingReader) Read(p []byte) (int, error) {
	if !r.bomChecked {
		r.bomChecked = true

		n, err := io.ReadFull(r.reader, r.buf[:])
		if n == 0 {
			return 0, err
		}

		if n >= 3 && r.buf[0] == 0xEF && r.buf[1] == 0xBB && r.buf[2] == 0xBF {
			r.bufData = nil
		} else {
			r.bufData = r.buf[:n]
			r.bufOffset = 0
		}

		if err == io.ErrUnexpectedEOF {
			err = io.EOF
		}
		if err != nil && err != io.EOF {
			return 0, err
		}

		if len(r.bufData) > 0 {
			copied := copy(p, r.bufData[r.bufOffset:])
			r.bufOffset += copied
			if r.bufOffset >= len(r.bufData) {
				r.bufData = nil
			}
			if copied < len(p) && err != io.EOF {
				n2, err2 := r.reader.Read(p[copied:])
				return copied + n2, err2
			}
			return copied, err
		}
	}

	if len(r.bufData) > r.bufOffset {
		copied := copy(p, r.bufData[r.bufOffset:])
		r.bufOffset += copied
		if r.bufOffset >= len(r.bufData) {
			r.bufData = nil
		}
		return copied, nil
	}

	return r.reader.Read(p)
}
