package reportstore

import (
	"encoding/json"
	"errors"
	"net/http"
	"playconsole-backend/internal/components/telemetry"
	"time"
)

const report_http_serve = "http.serve"

type reportSummary struct {
	Kind        string `json:"kind"`
	Key         string `json:"key"`
	FetchedAt   string `json:"fetched_at"`
	ContentKind string `json:"content_kind"`
	Source      string `json:"source"`
	Size        int    `json:"size"`
}

var contentTypes = map[string]string{
	"csv":  "text/csv; charset=utf-8",
	"zip":  "application/zip",
	"html": "text/html; charset=utf-8",
}

// NewHandler serves the stored reports read only:
//
//	GET /reports/{kind}        latest version of every report of a kind
//	GET /reports/{kind}/{key}  body of the latest version of a report
func NewHandler(store Store, tel telemetry.API) http.Handler {
	tel = telemetry.NewScopedAPI("reportstore", tel)
	mux := http.NewServeMux()

	mux.HandleFunc("GET /reports/{kind}", func(w http.ResponseWriter, r *http.Request) {
		reports, err := store.List(r.Context(), r.PathValue("kind"))
		if err != nil {
			tel.ReportBroken(report_http_serve, err, r.URL.Path)
			http.Error(w, "failed to list reports", http.StatusInternalServerError)
			return
		}

		summaries := make([]reportSummary, len(reports))
		for i, report := range reports {
			summaries[i] = reportSummary{
				Kind:        report.Kind,
				Key:         report.Key,
				FetchedAt:   report.FetchedAt.UTC().Format(time.RFC3339),
				ContentKind: report.ContentKind,
				Source:      report.Source,
				Size:        len(report.Body),
			}
		}
		w.Header().Set("content-type", "application/json")
		err = json.NewEncoder(w).Encode(summaries)
		if err != nil {
			tel.ReportWarning(report_http_serve, err, r.URL.Path)
		}
	})

	mux.HandleFunc("GET /reports/{kind}/{key}", func(w http.ResponseWriter, r *http.Request) {
		report, err := store.Latest(r.Context(), r.PathValue("kind"), r.PathValue("key"))
		if errors.Is(err, ErrNotFound) {
			http.NotFound(w, r)
			return
		}
		if err != nil {
			tel.ReportBroken(report_http_serve, err, r.URL.Path)
			http.Error(w, "failed to read report", http.StatusInternalServerError)
			return
		}

		contentType, ok := contentTypes[report.ContentKind]
		if !ok {
			contentType = "application/octet-stream"
		}
		w.Header().Set("content-type", contentType)
		_, err = w.Write(report.Body)
		if err != nil {
			tel.ReportWarning(report_http_serve, err, r.URL.Path)
		}
	})

	return mux
}
