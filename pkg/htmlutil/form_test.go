package htmlutil

import (
	"errors"
	"net/url"
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/require"
)

const ordersPage = `<html><body>
<form name="dateInput" action="/sell/orders" method="post">
  <input type="text" name="start-date" value="">
  <input type="text" name="end-date" value="">
  <select name="financial-state">
    <option value="CHARGEABLE">Chargeable</option>
    <option value="CHARGED" selected>Charged</option>
  </select>
  <input type="hidden" name="column-style" value="">
  <input type="submit" name="submitButton" value="Go">
</form>
<form name="btRangeReport" action="payouts">
  <input type="radio" name="reportType" value="PAYOUT_REPORT" checked>
  <input type="radio" name="reportType" value="TRANSACTION_DETAIL_REPORT">
  <input type="checkbox" name="zip">
  <button type="submit" name="download" value="1">Download</button>
</form>
</body></html>`

func parseTestForms(t *testing.T) []*Form {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(ordersPage))
	if err != nil {
		t.Fatal(err)
	}
	return ParseForms(doc)
}

func TestParseForms(t *testing.T) {
	forms := parseTestForms(t)
	require.Len(t, forms, 2)

	orders := forms[0]
	require.Equal(t, "dateInput", orders.Name)
	require.Equal(t, "POST", orders.Method)
	require.Len(t, orders.Fields, 4)
	state, ok := orders.Field("financial-state")
	require.True(t, ok)
	require.Equal(t, "CHARGED", state.Value)
	require.Equal(t, []Button{{Name: "submitButton", Value: "Go"}}, orders.Buttons)

	payouts := forms[1]
	require.Equal(t, "GET", payouts.Method)
	reportType, ok := payouts.Field("reportType")
	require.True(t, ok)
	require.Equal(t, "PAYOUT_REPORT", reportType.Value)
	_, ok = payouts.Button("download")
	require.True(t, ok)
}

func TestFormSet(t *testing.T) {
	forms := parseTestForms(t)
	orders := forms[0].Clone()

	require.NoError(t, orders.Set("start-date", "2012-01-01"))
	err := orders.Set("missing", "x")
	require.True(t, errors.Is(err, ErrFieldNotFound))

	// the clone must not leak into the parsed form
	original, _ := forms[0].Field("start-date")
	require.Equal(t, "", original.Value)

	payouts := forms[1].Clone()
	require.NoError(t, payouts.Set("reportType", "TRANSACTION_DETAIL_REPORT"))
	reportType, _ := payouts.Field("reportType")
	require.Equal(t, "TRANSACTION_DETAIL_REPORT", reportType.Value)

	err = payouts.Set("reportType", "UNKNOWN")
	require.True(t, errors.Is(err, ErrOptionNotFound))
}

func TestFormValues(t *testing.T) {
	forms := parseTestForms(t)
	orders := forms[0].Clone()
	require.True(t, orders.Delete("financial-state"))
	require.False(t, orders.Delete("financial-state"))

	values, err := orders.Values("submitButton")
	require.NoError(t, err)
	require.Equal(t, url.Values{
		"start-date":   {""},
		"end-date":     {""},
		"column-style": {""},
		"submitButton": {"Go"},
	}, values)

	_, err = orders.Values("closeOrderButton")
	require.True(t, errors.Is(err, ErrButtonNotFound))

	payouts := forms[1].Clone()
	values, err = payouts.Values("")
	require.NoError(t, err)
	require.Equal(t, url.Values{
		"reportType": {"PAYOUT_REPORT"},
		"download":   {"1"},
	}, values)

	page, _ := url.Parse("https://checkout.google.com/sell/orders")
	action, err := payouts.ResolveAction(page)
	require.NoError(t, err)
	require.Equal(t, "https://checkout.google.com/sell/payouts", action.String())
}
