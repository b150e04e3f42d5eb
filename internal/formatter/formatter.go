// package formatter builds CSV exports from row objects
package formatter

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/desertthunder/feat/internal/shared"
)

// Row is one exported record keyed by column name.
type Row map[string]any

// ConvertToCSV renders rows under the given header.
//
// Each line holds the row's values in header order; a column missing from a row is left empty.
// Lines end with CRLF and fields are quoted only when they contain a separator, quote or newline.
func ConvertToCSV(rows []Row, header []string) ([]byte, error) {
	if len(header) == 0 {
		return nil, fmt.Errorf("%w: CSV header is empty", shared.ErrMissingArgument)
	}

	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)
	writer.UseCRLF = true

	if err := writer.Write(header); err != nil {
		return nil, fmt.Errorf("failed to write CSV headers: %w", err)
	}

	record := make([]string, len(header))
	for _, row := range rows {
		for i, column := range header {
			record[i] = formatValue(row[column])
		}
		if err := writer.Write(record); err != nil {
			return nil, fmt.Errorf("failed to write CSV record: %w", err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("CSV writer error: %w", err)
	}

	return buf.Bytes(), nil
}

// ConvertJSONToCSV decodes a JSON array of objects and renders it with [ConvertToCSV].
//
// An empty header selects the sorted union of every row's keys.
func ConvertJSONToCSV(data []byte, header []string) ([]byte, error) {
	var rows []Row

	decoder := json.NewDecoder(bytes.NewReader(data))
	decoder.UseNumber()
	if err := decoder.Decode(&rows); err != nil {
		return nil, fmt.Errorf("%w: expected a JSON array of objects: %v", shared.ErrInvalidInput, err)
	}

	if len(header) == 0 {
		header = Columns(rows)
	}

	return ConvertToCSV(rows, header)
}

// Columns returns the sorted union of keys across rows.
func Columns(rows []Row) []string {
	seen := make(map[string]struct{})
	for _, row := range rows {
		for key := range row {
			seen[key] = struct{}{}
		}
	}

	columns := make([]string, 0, len(seen))
	for key := range seen {
		columns = append(columns, key)
	}
	sort.Strings(columns)
	return columns
}

// WriteCSV writes data to path, creating parent directories.
func WriteCSV(path string, data []byte) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create directory: %w", err)
		}
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write CSV file: %w", err)
	}

	return nil
}

func formatValue(v any) string {
	switch v := v.(type) {
	case nil:
		return ""
	case string:
		return v
	case []any, map[string]any:
		encoded, err := json.Marshal(v)
		if err != nil {
			return fmt.Sprintf("%v", v)
		}
		return string(encoded)
	default:
		return fmt.Sprintf("%v", v)
	}
}
