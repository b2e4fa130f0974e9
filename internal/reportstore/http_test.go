package reportstore

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"playconsole-backend/internal/components/telemetry"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestHandler(t *testing.T) {
	store, err := Open(":memory:")
	if err != nil {
		t.Fatal(err)
	}
	defer store.Close()

	at := time.Date(2013, time.March, 1, 0, 0, 0, 0, time.UTC)
	require.NoError(t, store.Save(context.Background(), Report{
		Kind:        "sales_report",
		Key:         "2013-02",
		FetchedAt:   at,
		ContentKind: "csv",
		Source:      "https://example.com/sales",
		Body:        []byte("a\n1\n"),
	}))

	server := httptest.NewServer(NewHandler(store, &telemetry.Recorder{}))
	defer server.Close()

	res, err := http.Get(server.URL + "/reports/sales_report")
	require.NoError(t, err)
	defer res.Body.Close()
	require.Equal(t, http.StatusOK, res.StatusCode)

	var summaries []reportSummary
	require.NoError(t, json.NewDecoder(res.Body).Decode(&summaries))
	require.Equal(t, []reportSummary{{
		Kind:        "sales_report",
		Key:         "2013-02",
		FetchedAt:   "2013-03-01T00:00:00Z",
		ContentKind: "csv",
		Source:      "https://example.com/sales",
		Size:        4,
	}}, summaries)

	res, err = http.Get(server.URL + "/reports/sales_report/2013-02")
	require.NoError(t, err)
	defer res.Body.Close()
	require.Equal(t, "text/csv; charset=utf-8", res.Header.Get("content-type"))
	body, err := io.ReadAll(res.Body)
	require.NoError(t, err)
	require.Equal(t, "a\n1\n", string(body))

	res, err = http.Get(server.URL + "/reports/sales_report/2013-01")
	require.NoError(t, err)
	defer res.Body.Close()
	require.Equal(t, http.StatusNotFound, res.StatusCode)
}
