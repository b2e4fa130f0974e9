package utils

import (
	"fmt"
	"os"
	"playconsole-backend/internal/scrapers/console"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
)

const (
	FORMAT_TABLE = "table"
	FORMAT_CSV   = "csv"
	FORMAT_DUMP  = "dump"
)

func NewTable() table.Writer {
	t := table.NewWriter()
	t.SetStyle(table.StyleRounded)
	t.SetOutputMirror(os.Stdout)
	return t
}

// PrintRecords writes records to stdout in the given format.
func PrintRecords(records []console.Record, format string) error {
	switch format {
	case FORMAT_CSV:
		text, err := console.FormatCSV(records)
		if err != nil {
			return err
		}
		fmt.Print(text)
		return nil
	case FORMAT_DUMP:
		return console.Dump(os.Stdout, records)
	case FORMAT_TABLE, "":
	default:
		return fmt.Errorf("unknown output format %q", format)
	}

	if len(records) == 0 {
		fmt.Println("(no rows)")
		return nil
	}

	t := NewTable()
	header := table.Row{}
	for _, c := range records[0].Columns {
		header = append(header, c)
	}
	t.AppendHeader(header)
	for _, r := range records {
		row := table.Row{}
		for _, v := range r.Values {
			if v == nil {
				row = append(row, "")
				continue
			}
			row = append(row, *v)
		}
		t.AppendRow(row)
	}
	t.Render()
	return nil
}

// PrintCSV writes a csv report to stdout, csv output is passed through
// untouched.
func PrintCSV(source, text, format string) error {
	if format == FORMAT_CSV {
		fmt.Print(text)
		return nil
	}
	records, err := console.ParseCSV(source, []byte(text))
	if err != nil {
		return err
	}
	return PrintRecords(records, format)
}

// ParseDay parses a YYYY-MM-DD flag value.
func ParseDay(value string, location *time.Location) (time.Time, error) {
	return time.ParseInLocation("2006-01-02", value, location)
}
