package console

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
)

// Record is one row of output, Values[i] belongs to Columns[i] and a nil
// value is a field the page did not provide.
type Record struct {
	Columns []string
	Values  []*string
}

// NewRecord maps a row onto a header, both must have the same length.
func NewRecord(columns []string, row []string) Record {
	values := make([]*string, len(row))
	for i := range row {
		v := row[i]
		values[i] = &v
	}
	return Record{Columns: columns, Values: values}
}

func (r Record) index(name string) int {
	for i, c := range r.Columns {
		if c == name {
			return i
		}
	}
	return -1
}

// Get returns the value of a column, ok is false for unknown columns and
// null values.
func (r Record) Get(name string) (value string, ok bool) {
	i := r.index(name)
	if i < 0 || i >= len(r.Values) || r.Values[i] == nil {
		return "", false
	}
	return *r.Values[i], true
}

// IsNull reports whether a known column holds no value.
func (r Record) IsNull(name string) bool {
	i := r.index(name)
	return i >= 0 && i < len(r.Values) && r.Values[i] == nil
}

// Map returns the non-null fields of the record.
func (r Record) Map() map[string]string {
	out := make(map[string]string, len(r.Columns))
	for i, c := range r.Columns {
		if i < len(r.Values) && r.Values[i] != nil {
			out[c] = *r.Values[i]
		}
	}
	return out
}

// Strings returns the row with null values rendered as empty strings.
func (r Record) Strings() []string {
	out := make([]string, len(r.Values))
	for i, v := range r.Values {
		if v != nil {
			out[i] = *v
		}
	}
	return out
}

// FormatCSV renders records sharing one header back into csv text.
func FormatCSV(records []Record) (string, error) {
	var buffer bytes.Buffer
	writer := csv.NewWriter(&buffer)
	if len(records) > 0 {
		err := writer.Write(records[0].Columns)
		if err != nil {
			return "", err
		}
	}
	for _, r := range records {
		err := writer.Write(r.Strings())
		if err != nil {
			return "", err
		}
	}
	writer.Flush()
	return buffer.String(), writer.Error()
}

// Dump writes every record as a block of "column : value" lines.
func Dump(w io.Writer, records []Record) error {
	for _, r := range records {
		for i, c := range r.Columns {
			value := "<null>"
			if i < len(r.Values) && r.Values[i] != nil {
				value = *r.Values[i]
			}
			_, err := fmt.Fprintf(w, "%s : %s\n", c, value)
			if err != nil {
				return err
			}
		}
		_, err := fmt.Fprintln(w)
		if err != nil {
			return err
		}
	}
	return nil
}
