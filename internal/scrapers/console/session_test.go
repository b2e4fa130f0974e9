package console

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"playconsole-backend/internal/components/telemetry"
	"testing"

	"github.com/stretchr/testify/require"
)

const testUserAgent = "playconsole-test"

func newConsoleServer(t *testing.T) *httptest.Server {
	mux := http.NewServeMux()
	mux.HandleFunc("/apps/publish/", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/apps/publish/landing?dev_acc=0991", http.StatusFound)
	})
	mux.HandleFunc("/apps/publish/landing", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("content-type", "text/html")
		fmt.Fprint(w, "<html><body>console</body></html>")
	})
	mux.HandleFunc("/sell/payouts", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("content-type", "text/html")
		fmt.Fprint(w, payoutsPage)
	})
	mux.HandleFunc("/sell/payouts/download", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		if err := r.ParseForm(); err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		w.Header().Set("content-type", "text/csv")
		fmt.Fprintf(w, "startDay,reportType,download\n%s,%s,%s\n",
			r.PostForm.Get("startDay"),
			r.PostForm.Get("reportType"),
			r.PostForm.Get("download"),
		)
	})
	mux.HandleFunc("/broken", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})

	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)
	return server
}

func newTestSession(t *testing.T, tel telemetry.API) *HTTPSession {
	session, err := NewHTTPSession(HTTPSessionOptions{
		UserAgent:         testUserAgent,
		RequestsPerSecond: 1000,
		Cookies:           []Cookie{{Name: "SID", Value: "secret"}},
	}, tel)
	require.NoError(t, err)
	return session
}

func TestHTTPSessionNavigate(t *testing.T) {
	server := newConsoleServer(t)
	session := newTestSession(t, &telemetry.Recorder{})
	require.Nil(t, session.CurrentPage())

	page, err := session.Navigate(context.Background(), server.URL+"/apps/publish/")
	require.NoError(t, err)
	require.Equal(t, "/apps/publish/landing", page.URI.Path)
	require.Equal(t, 200, page.Status)
	require.Equal(t, "<html><body>console</body></html>", page.Text())
	require.Same(t, page, session.CurrentPage())

	account, err := ResolveDeveloperAccount(page.URI)
	require.NoError(t, err)
	require.Equal(t, "0991", account)
}

func TestHTTPSessionSubmit(t *testing.T) {
	server := newConsoleServer(t)
	session := newTestSession(t, &telemetry.Recorder{})

	page, err := session.Navigate(context.Background(), server.URL+"/sell/payouts")
	require.NoError(t, err)
	original, ok := page.Form("btRangeReport")
	require.True(t, ok)

	form := original.Clone()
	require.NoError(t, form.Set("startDay", "d:2012-06-01"))
	require.NoError(t, form.Set("reportType", "TRANSACTION_DETAIL_REPORT"))

	result, err := session.Submit(context.Background(), form, "download")
	require.NoError(t, err)
	require.Equal(t, "/sell/payouts/download", result.URI.Path)
	require.Equal(t, "startDay,reportType,download\nd:2012-06-01,TRANSACTION_DETAIL_REPORT,Download\n", result.Text())
	require.Same(t, result, session.CurrentPage())
}

func TestHTTPSessionExecute(t *testing.T) {
	server := newConsoleServer(t)
	session := newTestSession(t, &telemetry.Recorder{})

	raw, err := Execute(context.Background(), session, FormSubmission{
		TargetURL: server.URL + "/sell/payouts",
		FormName:  "btRangeReport",
		Fields: []FormField{
			{Name: "startDay", Value: "d:2012-06-01"},
			{Name: "endDay", Value: "d:2012-06-30"},
		},
		Kind: KIND_CSV,
	}, &telemetry.Recorder{})
	require.NoError(t, err)

	records, err := Parse(raw, ParseOptions{ExpectNonEmpty: true})
	require.NoError(t, err)
	require.Len(t, records, 1)
	require.Equal(t, map[string]string{
		"startDay":   "d:2012-06-01",
		"reportType": "PAYOUT_REPORT",
		"download":   "Download",
	}, records[0].Map())
}

func TestHTTPSessionStatus(t *testing.T) {
	server := newConsoleServer(t)
	tel := &telemetry.Recorder{}
	session := newTestSession(t, tel)

	_, err := session.Navigate(context.Background(), server.URL+"/broken")
	var transport *TransportError
	require.True(t, errors.As(err, &transport))
	require.Equal(t, http.StatusInternalServerError, transport.Status)
	require.Nil(t, session.CurrentPage())
	require.Len(t, tel.Find("warning"), 1)
}

func TestHTTPSessionCanceled(t *testing.T) {
	server := newConsoleServer(t)
	session := newTestSession(t, &telemetry.Recorder{})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := session.Navigate(ctx, server.URL+"/apps/publish/")
	var transport *TransportError
	require.True(t, errors.As(err, &transport))
	require.ErrorIs(t, err, context.Canceled)
}
