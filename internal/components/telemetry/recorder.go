package telemetry

import "sync"

type Report struct {
	Kind   string
	Id     string
	Params []any
}

// Recorder is an API that keeps every report in memory, tests use it to
// assert that a component reported what it should have.
type Recorder struct {
	lock    sync.Mutex
	Reports []Report
}

func (r *Recorder) add(kind, id string, params []any) {
	r.lock.Lock()
	defer r.lock.Unlock()
	r.Reports = append(r.Reports, Report{Kind: kind, Id: id, Params: params})
}

func (r *Recorder) ReportBroken(id string, params ...any) {
	r.add("broken", id, params)
}

func (r *Recorder) ReportWarning(id string, params ...any) {
	r.add("warning", id, params)
}

func (r *Recorder) ReportDebug(msg string, params ...any) {
	r.add("debug", msg, params)
}

func (r *Recorder) ReportCount(id string, count int64) {
	r.add("count", id, []any{count})
}

// Find returns the reports of a kind, in the order they were made.
func (r *Recorder) Find(kind string) []Report {
	r.lock.Lock()
	defer r.lock.Unlock()
	var out []Report
	for _, report := range r.Reports {
		if report.Kind == kind {
			out = append(out, report)
		}
	}
	return out
}
