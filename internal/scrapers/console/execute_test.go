package console

import (
	"context"
	"errors"
	"net/url"
	"playconsole-backend/internal/components/telemetry"
	"playconsole-backend/pkg/htmlutil"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

const payoutsLink = "https://checkout.google.com/sell/payouts"

const payoutsPage = `<html><body>
<form name="btRangeReport" action="/sell/payouts/download" method="post">
  <input type="text" name="startDay" value="">
  <input type="text" name="endDay" value="">
  <input type="radio" name="reportType" value="PAYOUT_REPORT" checked>
  <input type="radio" name="reportType" value="TRANSACTION_DETAIL_REPORT">
  <input type="submit" name="download" value="Download">
</form>
</body></html>`

const loginPage = `<html><body>
<form id="gaia_loginform" action="https://accounts.google.com/ServiceLoginAuth" method="post">
  <input type="email" name="Email">
  <input type="password" name="Passwd">
</form>
</body></html>`

func payoutsSpec(t *testing.T) RequestSpec {
	spec, err := NewBuilder(LegacyEndpoints).Build(Payouts{
		StartDay: day(2012, time.June, 1),
		EndDay:   day(2012, time.June, 30),
		Type:     TRANSACTION_DETAIL_REPORT,
	})
	require.NoError(t, err)
	return spec
}

func TestExecuteFormSubmission(t *testing.T) {
	session := newFakeSession()
	session.serve(payoutsLink, htmlPage(payoutsLink, payoutsPage))
	session.onSubmit = func(form *htmlutil.Form, control string) (*Page, error) {
		return csvPage("https://checkout.google.com/sell/payouts/download", "a,b\n1,2\n"), nil
	}

	raw, err := Execute(context.Background(), session, payoutsSpec(t), &telemetry.Recorder{})
	require.NoError(t, err)
	require.Equal(t, KIND_CSV, raw.Kind)
	require.Equal(t, "a,b\n1,2\n", string(raw.Body))
	require.Equal(t, "https://checkout.google.com/sell/payouts/download", raw.Source)

	require.Len(t, session.submitted, 1)
	values, err := session.submitted[0].Form.Values(session.submitted[0].Control)
	require.NoError(t, err)
	require.Equal(t, url.Values{
		"startDay":   {"d:2012-06-01"},
		"endDay":     {"d:2012-06-30"},
		"reportType": {"TRANSACTION_DETAIL_REPORT"},
		"download":   {"Download"},
	}, values)

	// the page's own form model is left untouched
	original, _ := session.pages[payoutsLink].Form("btRangeReport")
	field, _ := original.Field("startDay")
	require.Equal(t, "", field.Value)
}

func TestExecuteRemovesFields(t *testing.T) {
	session := newFakeSession()
	session.serve(ordersLink, htmlPage(ordersLink, `<html><body>
<form name="dateInput" method="post">
  <input type="text" name="start-date">
  <input type="text" name="end-date">
  <select name="financial-state"><option value="CHARGED">Charged</option></select>
  <input type="submit" name="go" value="Go">
</form>
</body></html>`))
	session.onSubmit = func(form *htmlutil.Form, control string) (*Page, error) {
		return csvPage(ordersLink, ""), nil
	}

	spec, err := NewBuilder(LegacyEndpoints).Build(OrderList{
		Start: day(2012, time.January, 1),
		End:   day(2012, time.January, 2),
		State: FINANCIAL_STATE_ALL,
	})
	require.NoError(t, err)
	_, err = Execute(context.Background(), session, spec, &telemetry.Recorder{})
	require.NoError(t, err)

	require.Len(t, session.submitted, 1)
	require.False(t, session.submitted[0].Form.HasField("financial-state"))
}

func TestExecuteTemplateMismatch(t *testing.T) {
	cases := []struct {
		name    string
		page    string
		element string
	}{
		{
			name: "missing form",
			page: `<html><body><form name="other"></form></body></html>`,
		},
		{
			name: "missing field",
			page: `<html><body><form name="btRangeReport">
  <input type="text" name="startDay">
  <input type="radio" name="reportType" value="TRANSACTION_DETAIL_REPORT">
</form></body></html>`,
			element: "endDay",
		},
		{
			name: "missing radio option",
			page: `<html><body><form name="btRangeReport">
  <input type="text" name="startDay">
  <input type="text" name="endDay">
  <input type="radio" name="reportType" value="PAYOUT_REPORT">
</form></body></html>`,
			element: "reportType",
		},
	}

	for _, test := range cases {
		t.Run(test.name, func(t *testing.T) {
			session := newFakeSession()
			session.serve(payoutsLink, htmlPage(payoutsLink, test.page))
			tel := &telemetry.Recorder{}

			_, err := Execute(context.Background(), session, payoutsSpec(t), tel)
			var mismatch *TemplateMismatchError
			require.True(t, errors.As(err, &mismatch), "got %v", err)
			require.Equal(t, "btRangeReport", mismatch.Form)
			require.Equal(t, test.element, mismatch.Element)
			require.Empty(t, session.submitted)
			require.Len(t, tel.Find("broken"), 1)
		})
	}
}

func TestExecuteMissingSubmitControl(t *testing.T) {
	session := newFakeSession()
	session.serve(payoutsLink, htmlPage(payoutsLink, payoutsPage))

	spec := payoutsSpec(t).(FormSubmission)
	spec.SubmitControl = "closeOrderButton"

	_, err := Execute(context.Background(), session, spec, &telemetry.Recorder{})
	var mismatch *TemplateMismatchError
	require.True(t, errors.As(err, &mismatch))
	require.Equal(t, "closeOrderButton", mismatch.Element)
}

func TestExecuteAuthRequired(t *testing.T) {
	link := "https://play.google.com/apps/publish/v2/salesreport/download?report_date=2013_01&report_type=payout_report&dev_acc=1"

	// redirected to the login url
	session := newFakeSession()
	session.serveRedirect(link, "https://accounts.google.com/ServiceLogin?continue=x", htmlPage(
		"https://accounts.google.com/ServiceLogin?continue=x",
		loginPage,
	))
	_, err := Execute(context.Background(), session, DirectDownload{URL: link, Kind: KIND_CSV}, &telemetry.Recorder{})
	var auth *AuthRequiredError
	require.True(t, errors.As(err, &auth))

	// login form served in place
	session = newFakeSession()
	session.serve(link, htmlPage(link, loginPage))
	_, err = Execute(context.Background(), session, DirectDownload{URL: link, Kind: KIND_CSV}, &telemetry.Recorder{})
	require.True(t, errors.As(err, &auth))

	// login after submitting
	session = newFakeSession()
	session.serve(payoutsLink, htmlPage(payoutsLink, payoutsPage))
	session.onSubmit = func(form *htmlutil.Form, control string) (*Page, error) {
		return htmlPage("https://accounts.google.com/ServiceLogin", loginPage), nil
	}
	_, err = Execute(context.Background(), session, payoutsSpec(t), &telemetry.Recorder{})
	require.True(t, errors.As(err, &auth))
}

func TestExecuteTransportError(t *testing.T) {
	session := newFakeSession()
	tel := &telemetry.Recorder{}

	_, err := Execute(
		context.Background(),
		session,
		DirectDownload{URL: "https://checkout.google.com/sell/multiOrder?order=1&ordersTable=1", Kind: KIND_CSV},
		tel,
	)
	var transport *TransportError
	require.True(t, errors.As(err, &transport))
	require.Equal(t, 404, transport.Status)
	require.Len(t, tel.Find("warning"), 1)
}

func TestIsLoginPage(t *testing.T) {
	require.True(t, isLoginPage(htmlPage("https://accounts.google.com/signin/v2", "<html></html>"), KIND_CSV))
	require.True(t, isLoginPage(htmlPage("https://example.com/ServiceLogin", "<html></html>"), KIND_CSV))
	require.True(t, isLoginPage(htmlPage("https://play.google.com/apps/publish/", loginPage), KIND_HTML))
	require.False(t, isLoginPage(htmlPage("https://play.google.com/apps/publish/", "<html><body></body></html>"), KIND_HTML))
	// csv bodies are never parsed as html
	require.False(t, isLoginPage(csvPage("https://play.google.com/x.csv", "Passwd,Email\n"), KIND_CSV))
}
