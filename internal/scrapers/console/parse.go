package console

import (
	"archive/zip"
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"playconsole-backend/pkg/htmlutil"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// WalletOrderColumns are the fields scraped from each merchant center order row.
var WalletOrderColumns = []string{"order_id", "date", "description", "status", "total"}

type ParseOptions struct {
	// ExpectNonEmpty turns a payload without rows into an ExtractionError,
	// the parser cannot tell "no orders" apart from "the page changed".
	ExpectNonEmpty bool
}

// Parse decodes a payload into records, in the order they appear in it.
func Parse(raw RawResponse, opts ParseOptions) ([]Record, error) {
	var records []Record
	var err error

	switch raw.Kind {
	case KIND_CSV:
		records, err = ParseCSV(raw.Source, raw.Body)
	case KIND_ZIP:
		var entry []byte
		entry, _, err = UnpackZip(raw.Source, raw.Body)
		if err != nil {
			return nil, err
		}
		records, err = ParseCSV(raw.Source, entry)
	case KIND_HTML:
		var doc *goquery.Document
		doc, err = goquery.NewDocumentFromReader(bytes.NewReader(raw.Body))
		if err != nil {
			return nil, &ExtractionError{Source: raw.Source, Reason: err.Error()}
		}
		records = ParseWalletOrders(doc)
	default:
		return nil, &ExtractionError{
			Source: raw.Source,
			Reason: fmt.Sprintf("unknown content kind %d", raw.Kind),
		}
	}
	if err != nil {
		return nil, err
	}

	if opts.ExpectNonEmpty && len(records) == 0 {
		return nil, &ExtractionError{
			Source: raw.Source,
			Reason: fmt.Sprintf("expected at least one row in %s payload", raw.Kind),
		}
	}
	return records, nil
}

// ParseCSV maps every row after the header onto the header. A row with a
// different number of columns than the header is a FormatError.
func ParseCSV(source string, body []byte) ([]Record, error) {
	body = bytes.TrimPrefix(body, []byte("\xef\xbb\xbf"))

	reader := csv.NewReader(bytes.NewReader(body))
	// column counts are checked below to report the data row index
	reader.FieldsPerRecord = -1

	var header []string
	var records []Record
	row := 0
	for {
		fields, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			reason := err.Error()
			var parseErr *csv.ParseError
			if errors.As(err, &parseErr) {
				reason = parseErr.Err.Error()
			}
			return nil, &FormatError{Source: source, Row: row, Reason: reason}
		}

		if header == nil {
			header = fields
			row++
			continue
		}
		if len(fields) != len(header) {
			return nil, &FormatError{
				Source: source,
				Row:    row,
				Reason: fmt.Sprintf("has %d columns, header has %d", len(fields), len(header)),
			}
		}
		records = append(records, NewRecord(header, fields))
		row++
	}

	return records, nil
}

// UnpackZip returns the contents and name of the only file in an archive.
func UnpackZip(source string, body []byte) ([]byte, string, error) {
	archive, err := zip.NewReader(bytes.NewReader(body), int64(len(body)))
	if err != nil {
		return nil, "", &ExtractionError{Source: source, Reason: fmt.Sprintf("open archive: %s", err.Error())}
	}

	var entries []*zip.File
	for _, f := range archive.File {
		if f.FileInfo().IsDir() {
			continue
		}
		entries = append(entries, f)
	}
	if len(entries) != 1 {
		return nil, "", &ExtractionError{
			Source: source,
			Reason: fmt.Sprintf("expected exactly one file in archive, found %d", len(entries)),
		}
	}

	entry := entries[0]
	rc, err := entry.Open()
	if err != nil {
		return nil, "", &ExtractionError{Source: source, Reason: fmt.Sprintf("open %s: %s", entry.Name, err.Error())}
	}
	defer rc.Close()
	contents, err := io.ReadAll(rc)
	if err != nil {
		return nil, "", &ExtractionError{Source: source, Reason: fmt.Sprintf("read %s: %s", entry.Name, err.Error())}
	}
	return contents, entry.Name, nil
}

// ParseWalletOrders scrapes the merchant center order table. A row without
// the nested status element gets a null status instead of failing the parse.
func ParseWalletOrders(doc *goquery.Document) []Record {
	var records []Record
	doc.Find("tr.orderRow").Each(func(_ int, row *goquery.Selection) {
		values := make([]*string, len(WalletOrderColumns))
		set := func(i int, v string) {
			values[i] = &v
		}

		if id, ok := row.Attr("id"); ok {
			set(0, id)
		}

		row.Children().Each(func(_ int, cell *goquery.Selection) {
			class := cell.AttrOr("class", "")
			switch {
			case strings.Contains(class, "wallet-date-column"):
				set(1, htmlutil.CleanText(cell))
			case strings.Contains(class, "wallet-description-column"):
				set(2, htmlutil.CleanText(cell))
			case strings.Contains(class, "wallet-status-column"):
				title, ok := htmlutil.Attr(htmlutil.FirstElementChild(cell.Get(0)), "title")
				if ok {
					set(3, title)
				}
			case strings.Contains(class, "wallet-total-column"):
				set(4, htmlutil.CleanText(cell))
			}
		})

		records = append(records, Record{Columns: WalletOrderColumns, Values: values})
	})
	return records
}
