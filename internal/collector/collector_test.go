package collector

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"weibo-analysis/internal/archive"
	"weibo-analysis/internal/comments"
	"weibo-analysis/internal/components/failure"
	"weibo-analysis/internal/components/telemetry"
	"weibo-analysis/internal/scrapers/weibo"

	"github.com/stretchr/testify/require"
)

type fakeFetcher struct {
	pages   []weibo.Page
	failAt  int
	failErr error
	cursors []int64
	// beforePage runs before every fetch when set
	beforePage func(page int)
}

func (f *fakeFetcher) FetchPage(_ context.Context, _ string, page int, cursor int64) (weibo.Page, error) {
	if f.beforePage != nil {
		f.beforePage(page)
	}
	f.cursors = append(f.cursors, cursor)
	if page == f.failAt {
		return weibo.Page{}, f.failErr
	}
	if page > len(f.pages) {
		return weibo.Page{}, nil
	}
	return f.pages[page-1], nil
}

func testConfig(t testing.TB) Config {
	return Config{
		Config:   weibo.Config{Cookie: "SUB=test"},
		PostID:   "4936",
		MaxPages: 5,
		Output:   filepath.Join(t.TempDir(), "comments.csv"),
	}.WithDefaults()
}

func page(ids ...string) weibo.Page {
	p := weibo.Page{MaxID: int64(len(ids))}
	for _, id := range ids {
		p.Comments = append(p.Comments, comments.Comment{ID: id, Text: "comment " + id})
	}
	return p
}

func TestRunStopsAtEmptyPage(t *testing.T) {
	cfg := testConfig(t)
	fetcher := &fakeFetcher{pages: []weibo.Page{page("1", "2"), page("3")}}
	c, err := newCollector(cfg, fetcher, telemetry.SlogAPI{})
	require.NoError(t, err)

	result, err := c.Run(context.Background())
	require.NoError(t, err)
	require.Equal(t, 3, result.Pages)
	require.Equal(t, 3, result.Comments)
	require.Equal(t, []int64{0, 2, 1}, fetcher.cursors)

	loaded, err := comments.Load(cfg.Output)
	require.NoError(t, err)
	require.Len(t, loaded, 3)
}

func TestRunPageLimit(t *testing.T) {
	cfg := testConfig(t)
	cfg.MaxPages = 2
	fetcher := &fakeFetcher{pages: []weibo.Page{page("1"), page("2"), page("3")}}
	c, err := newCollector(cfg, fetcher, telemetry.SlogAPI{})
	require.NoError(t, err)

	result, err := c.Run(context.Background())
	require.NoError(t, err)
	require.Equal(t, 2, result.Pages)
	require.Len(t, fetcher.cursors, 2)
}

func TestRunEmptyFirstPage(t *testing.T) {
	cfg := testConfig(t)
	c, err := newCollector(cfg, &fakeFetcher{}, telemetry.SlogAPI{})
	require.NoError(t, err)

	result, err := c.Run(context.Background())
	require.NoError(t, err)
	require.Equal(t, 0, result.Comments)

	contents, err := os.ReadFile(cfg.Output)
	require.NoError(t, err)
	require.Equal(t, "comment_id,author_handle,text,timestamp,like_count\n", string(contents))
}

func TestRunKeepsCommittedPages(t *testing.T) {
	testCases := []struct {
		name string
		err  error
	}{
		{name: "network", err: failure.Network("collect page 2", fmt.Errorf("connection reset"))},
		{name: "auth", err: failure.Auth("collect page 2", fmt.Errorf("login required"))},
	}

	for _, test := range testCases {
		cfg := testConfig(t)
		fetcher := &fakeFetcher{
			pages:   []weibo.Page{page("1", "2"), page("3")},
			failAt:  2,
			failErr: test.err,
		}
		c, err := newCollector(cfg, fetcher, telemetry.SlogAPI{})
		require.NoError(t, err)

		result, err := c.Run(context.Background())
		require.ErrorIs(t, err, failure.KindOf(test.err), test.name)
		require.Equal(t, "collect page 2", failure.StageOf(err), test.name)
		require.Contains(t, err.Error(), "1 pages committed", test.name)
		require.Equal(t, 1, result.Pages, test.name)

		loaded, err := comments.Load(cfg.Output)
		require.NoError(t, err, test.name)
		require.Equal(t, []string{"1", "2"}, []string{loaded[0].ID, loaded[1].ID}, test.name)
		require.Len(t, loaded, 2, test.name)
	}
}

func TestRunWithArchive(t *testing.T) {
	cfg := testConfig(t)
	cfg.Archive = filepath.Join(t.TempDir(), "archive.db")
	fetcher := &fakeFetcher{pages: []weibo.Page{page("1", "2")}}

	for i := 0; i < 2; i++ {
		c, err := newCollector(cfg, fetcher, telemetry.SlogAPI{})
		require.NoError(t, err)
		_, err = c.Run(context.Background())
		require.NoError(t, err)
	}

	store, err := archive.Open(context.Background(), cfg.Archive)
	require.NoError(t, err)
	defer store.Close()

	count, err := store.Count(context.Background())
	require.NoError(t, err)
	require.Equal(t, 4, count)
	distinct, err := store.DistinctComments(context.Background())
	require.NoError(t, err)
	require.Equal(t, 2, distinct)

	loaded, err := comments.Load(cfg.Output)
	require.NoError(t, err)
	require.Len(t, loaded, 4)
}

func TestRunArchiveFailureLeavesTableCommitted(t *testing.T) {
	cfg := testConfig(t)
	cfg.Archive = filepath.Join(t.TempDir(), "archive.db")
	fetcher := &fakeFetcher{
		pages: []weibo.Page{page("1", "2"), page("3")},
		beforePage: func(page int) {
			if page != 2 {
				return
			}
			db, err := sql.Open("sqlite", cfg.Archive)
			require.NoError(t, err)
			defer db.Close()
			_, err = db.Exec("drop table comments")
			require.NoError(t, err)
		},
	}
	c, err := newCollector(cfg, fetcher, telemetry.SlogAPI{})
	require.NoError(t, err)

	result, err := c.Run(context.Background())
	require.ErrorIs(t, err, failure.ErrData)
	require.Equal(t, "collect page 2", failure.StageOf(err))
	require.Contains(t, err.Error(), "1 pages committed")
	require.Equal(t, 1, result.Pages)

	// the page the archive rejected never reached the table
	loaded, err := comments.Load(cfg.Output)
	require.NoError(t, err)
	require.Len(t, loaded, 2)
}

func TestValidate(t *testing.T) {
	testCases := []struct {
		name   string
		modify func(cfg *Config)
	}{
		{name: "missing post", modify: func(cfg *Config) { cfg.PostID = "" }},
		{name: "missing cookie", modify: func(cfg *Config) { cfg.Cookie = "" }},
		{name: "negative pages", modify: func(cfg *Config) { cfg.MaxPages = -1 }},
		{name: "negative retries", modify: func(cfg *Config) { cfg.RetryCount = -2 }},
		{name: "negative rate", modify: func(cfg *Config) { cfg.RequestsPerSecond = -3 }},
	}

	for _, test := range testCases {
		cfg := testConfig(t)
		test.modify(&cfg)
		_, err := New(cfg, telemetry.SlogAPI{}, nil)
		require.ErrorIs(t, err, failure.ErrConfig, test.name)
	}

	cfg := testConfig(t)
	cfg.RequestsPerSecond = weibo.NoRateLimit
	_, err := New(cfg, telemetry.SlogAPI{}, nil)
	require.NoError(t, err)
}

func TestRunAgainstServer(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Query().Get("page") {
		case "1":
			fmt.Fprint(w, `{"ok":1,"data":{"data":[{"idstr":"10","text":"好","user":{"screen_name":"a"}}],"max_id":7}}`)
		case "2":
			w.WriteHeader(http.StatusForbidden)
		}
	}))
	defer server.Close()

	cfg := testConfig(t)
	cfg.BaseUrl = server.URL
	cfg.DisableCloudflareBypass = true
	cfg.RequestsPerSecond = 1000
	cfg.RetryWaitMillis = 1

	c, err := New(cfg, telemetry.SlogAPI{}, nil)
	require.NoError(t, err)
	result, err := c.Run(context.Background())
	require.ErrorIs(t, err, failure.ErrAuth)
	require.Equal(t, 1, result.Comments)

	loaded, err := comments.Load(cfg.Output)
	require.NoError(t, err)
	require.Equal(t, []comments.Comment{{ID: "10", Author: "a", Text: "好"}}, loaded)
}
