package console

import (
	"archive/zip"
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
)

func str(s string) *string {
	return &s
}

func zipOf(t *testing.T, files map[string]string) []byte {
	t.Helper()
	var buffer bytes.Buffer
	writer := zip.NewWriter(&buffer)
	for name, contents := range files {
		f, err := writer.Create(name)
		require.NoError(t, err)
		_, err = f.Write([]byte(contents))
		require.NoError(t, err)
	}
	require.NoError(t, writer.Close())
	return buffer.Bytes()
}

func TestParseCSV(t *testing.T) {
	records, err := Parse(RawResponse{
		Kind:   KIND_CSV,
		Body:   []byte("\xef\xbb\xbfa,b,c\n1,2,3\n4,\"5,5\",6\n"),
		Source: "test://sales",
	}, ParseOptions{})
	require.NoError(t, err)

	header := []string{"a", "b", "c"}
	expected := []Record{
		{Columns: header, Values: []*string{str("1"), str("2"), str("3")}},
		{Columns: header, Values: []*string{str("4"), str("5,5"), str("6")}},
	}
	if diff := cmp.Diff(expected, records); diff != "" {
		t.Fatal(diff)
	}

	value, ok := records[1].Get("b")
	require.True(t, ok)
	require.Equal(t, "5,5", value)
	_, ok = records[1].Get("missing")
	require.False(t, ok)
	require.Equal(t, map[string]string{"a": "1", "b": "2", "c": "3"}, records[0].Map())
}

func TestParseCSVRagged(t *testing.T) {
	_, err := Parse(RawResponse{
		Kind:   KIND_CSV,
		Body:   []byte("a,b,c\n1,2,3\n4,5\n7,8,9\n"),
		Source: "test://ragged",
	}, ParseOptions{})

	var format *FormatError
	require.True(t, errors.As(err, &format))
	require.Equal(t, 2, format.Row)
	require.Equal(t, "test://ragged", format.Source)

	_, err = Parse(RawResponse{Kind: KIND_CSV, Body: []byte("a,b\n1,2,3\n")}, ParseOptions{})
	require.True(t, errors.As(err, &format))
	require.Equal(t, 1, format.Row)

	_, err = Parse(RawResponse{Kind: KIND_CSV, Body: []byte("a,b\n\"1,2\n")}, ParseOptions{})
	require.True(t, errors.As(err, &format))
}

func TestParseEmpty(t *testing.T) {
	records, err := Parse(RawResponse{Kind: KIND_CSV}, ParseOptions{})
	require.NoError(t, err)
	require.Empty(t, records)

	records, err = Parse(RawResponse{Kind: KIND_CSV, Body: []byte("a,b,c\n")}, ParseOptions{})
	require.NoError(t, err)
	require.Empty(t, records)

	_, err = Parse(RawResponse{Kind: KIND_CSV, Body: []byte("a,b,c\n")}, ParseOptions{ExpectNonEmpty: true})
	var extraction *ExtractionError
	require.True(t, errors.As(err, &extraction))
}

func TestParseZip(t *testing.T) {
	records, err := Parse(RawResponse{
		Kind: KIND_ZIP,
		Body: zipOf(t, map[string]string{"salesreport_201304.csv": "order,amount\nA,1.00\n"}),
	}, ParseOptions{})
	require.NoError(t, err)
	require.Len(t, records, 1)
	require.Equal(t, map[string]string{"order": "A", "amount": "1.00"}, records[0].Map())

	for _, files := range []map[string]string{
		{},
		{"a.csv": "a\n1\n", "b.csv": "b\n2\n"},
	} {
		_, err := Parse(RawResponse{Kind: KIND_ZIP, Body: zipOf(t, files)}, ParseOptions{})
		var extraction *ExtractionError
		require.True(t, errors.As(err, &extraction), "%d files", len(files))
	}

	_, err = Parse(RawResponse{Kind: KIND_ZIP, Body: []byte("not a zip")}, ParseOptions{})
	var extraction *ExtractionError
	require.True(t, errors.As(err, &extraction))
}

const walletOrdersPage = `<html><body>
<table id="purchaseOrderListTable">
<tr class="orderRow" id="1234">
  <td class="wallet-date-column">Apr 3</td>
  <td class="wallet-description-column"> Example Pro </td>
  <td class="wallet-status-column"><span title="Charged"></span></td>
  <td class="wallet-total-column">$1.99</td>
</tr>
<tr class="headerRow"><td class="wallet-date-column">Date</td></tr>
<tr class="orderRow" id="1235">
  <td class="wallet-date-column">Apr 4</td>
  <td class="wallet-description-column">Example Coins</td>
  <td class="wallet-status-column">pending</td>
  <td class="wallet-total-column">$0.99</td>
</tr>
<tr class="orderRow" id="1236">
  <td class="wallet-date-column">Apr 5</td>
  <td class="wallet-description-column">Example Pro</td>
  <td class="wallet-status-column"><span title="Cancelled"></span></td>
  <td class="wallet-total-column">$1.99</td>
</tr>
</table>
</body></html>`

func TestParseWalletOrders(t *testing.T) {
	records, err := Parse(RawResponse{Kind: KIND_HTML, Body: []byte(walletOrdersPage)}, ParseOptions{ExpectNonEmpty: true})
	require.NoError(t, err)

	expected := []Record{
		{Columns: WalletOrderColumns, Values: []*string{str("1234"), str("Apr 3"), str("Example Pro"), str("Charged"), str("$1.99")}},
		{Columns: WalletOrderColumns, Values: []*string{str("1235"), str("Apr 4"), str("Example Coins"), nil, str("$0.99")}},
		{Columns: WalletOrderColumns, Values: []*string{str("1236"), str("Apr 5"), str("Example Pro"), str("Cancelled"), str("$1.99")}},
	}
	if diff := cmp.Diff(expected, records); diff != "" {
		t.Fatal(diff)
	}
	require.True(t, records[1].IsNull("status"))
	require.False(t, records[1].IsNull("total"))

	records, err = Parse(RawResponse{Kind: KIND_HTML, Body: []byte("<html><body></body></html>")}, ParseOptions{})
	require.NoError(t, err)
	require.Empty(t, records)

	_, err = Parse(RawResponse{Kind: KIND_HTML, Body: []byte("<html><body></body></html>")}, ParseOptions{ExpectNonEmpty: true})
	var extraction *ExtractionError
	require.True(t, errors.As(err, &extraction))
}

func TestFormatCSV(t *testing.T) {
	records, err := Parse(RawResponse{Kind: KIND_HTML, Body: []byte(walletOrdersPage)}, ParseOptions{})
	require.NoError(t, err)

	text, err := FormatCSV(records)
	require.NoError(t, err)
	require.Equal(t, strings.Join([]string{
		"order_id,date,description,status,total",
		"1234,Apr 3,Example Pro,Charged,$1.99",
		"1235,Apr 4,Example Coins,,$0.99",
		"1236,Apr 5,Example Pro,Cancelled,$1.99",
		"",
	}, "\n"), text)

	text, err = FormatCSV(nil)
	require.NoError(t, err)
	require.Equal(t, "", text)
}

func TestDump(t *testing.T) {
	records, err := ParseCSV("test", []byte("a,b\n1,2\n"))
	require.NoError(t, err)
	records = append(records, Record{Columns: []string{"a", "b"}, Values: []*string{str("3"), nil}})

	var out bytes.Buffer
	require.NoError(t, Dump(&out, records))
	require.Equal(t, "a : 1\nb : 2\n\na : 3\nb : <null>\n\n", out.String())
}
