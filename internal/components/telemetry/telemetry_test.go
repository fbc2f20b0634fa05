package telemetry

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"
)

type recordedReport struct {
	kind   string
	id     string
	params []any
}

type recorder struct {
	reports []recordedReport
}

func (r *recorder) ReportBroken(id string, params ...any) {
	r.reports = append(r.reports, recordedReport{kind: "broken", id: id, params: params})
}

func (r *recorder) ReportWarning(id string, params ...any) {
	r.reports = append(r.reports, recordedReport{kind: "warning", id: id, params: params})
}

func (r *recorder) ReportDebug(msg string, params ...any) {
	r.reports = append(r.reports, recordedReport{kind: "debug", id: msg, params: params})
}

func (r *recorder) ReportCount(id string, count int64) {
	r.reports = append(r.reports, recordedReport{kind: "count", id: id, params: []any{count}})
}

func TestScopedAPI(t *testing.T) {
	rec := &recorder{}
	outer := NewScopedAPI("collector", rec)
	inner := NewScopedAPI("weibo_scraper", outer)

	inner.ReportBroken("client.fetch-page", "boom")
	inner.ReportCount("comments", 3)

	require.Len(t, rec.reports, 2)
	require.Equal(t, "collector: weibo_scraper: client.fetch-page", rec.reports[0].id)
	require.Equal(t, []any{"boom"}, rec.reports[0].params)
	require.Equal(t, "count", rec.reports[1].kind)
	require.Equal(t, []any{int64(3)}, rec.reports[1].params)
}

func TestFormatHeaders(t *testing.T) {
	require.Equal(t, "", formatHeaders(http.Header{}))

	headers := http.Header{}
	headers.Add("User-Agent", "Mozilla/5.0")
	headers.Add("Accept", "application/json")
	headers.Add("Accept", "text/plain")
	require.Equal(
		t,
		"Accept: application/json\nAccept: text/plain\nUser-Agent: Mozilla/5.0",
		formatHeaders(headers),
	)
}
