package comments

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"weibo-analysis/internal/components/failure"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
)

func intPtr(n int) *int {
	return &n
}

func TestWriterRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data", "comments.csv")

	w, err := OpenWriter(path, false)
	require.NoError(t, err)
	first := []Comment{
		{ID: "1", Author: "小明", Text: "太棒了，为中国加油！", Timestamp: "2023-08-12T10:00:00+08:00", LikeCount: intPtr(12)},
		{ID: "2", Author: "bob", Text: "line one\nline \"two\"", Timestamp: "刚刚"},
	}
	require.NoError(t, w.WritePage(first))
	require.NoError(t, w.Close())

	loaded, err := Load(path)
	require.NoError(t, err)
	if diff := cmp.Diff(first, loaded); diff != "" {
		t.Fatalf("round trip mismatch (-want +got):\n%s", diff)
	}
}

func TestWriterAppendsWithoutSecondHeader(t *testing.T) {
	path := filepath.Join(t.TempDir(), "comments.csv")

	for _, id := range []string{"1", "1"} {
		w, err := OpenWriter(path, false)
		require.NoError(t, err)
		require.NoError(t, w.WritePage([]Comment{{ID: id, Text: "hi"}}))
		require.NoError(t, w.Close())
	}

	contents, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Equal(t, 1, strings.Count(string(contents), "comment_id"))

	// duplicates across runs are kept
	loaded, err := Load(path)
	require.NoError(t, err)
	require.Len(t, loaded, 2)
}

func TestWriterTruncate(t *testing.T) {
	path := filepath.Join(t.TempDir(), "comments.csv")
	w, err := OpenWriter(path, false)
	require.NoError(t, err)
	require.NoError(t, w.WritePage([]Comment{{ID: "old", Text: "old"}}))
	require.NoError(t, w.Close())

	w, err = OpenWriter(path, true)
	require.NoError(t, err)
	require.NoError(t, w.Close())

	contents, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Equal(t, "comment_id,author_handle,text,timestamp,like_count\n", string(contents))
}

func TestLoadFailures(t *testing.T) {
	dir := t.TempDir()
	write := func(name, contents string) string {
		path := filepath.Join(dir, name)
		require.NoError(t, os.WriteFile(path, []byte(contents), 0600))
		return path
	}

	testCases := []struct {
		name string
		path string
	}{
		{name: "missing", path: filepath.Join(dir, "missing.csv")},
		{name: "empty file", path: write("empty.csv", "")},
		{name: "header only", path: write("header.csv", "comment_id,author_handle,text,timestamp,like_count\n")},
		{name: "no text column", path: write("notext.csv", "comment_id,author_handle\n1,bob\n")},
		{name: "bad like count", path: write("likes.csv", "comment_id,text,like_count\n1,hi,many\n")},
	}

	for _, test := range testCases {
		_, err := Load(test.path)
		require.ErrorIs(t, err, failure.ErrData, test.name)
		require.Equal(t, "load", failure.StageOf(err), test.name)
	}
}

func TestReadLegacyAndBOM(t *testing.T) {
	loaded, err := Read(strings.NewReader("comment\n太棒了\n\n加油\n"))
	require.NoError(t, err)
	require.Equal(t, []Comment{{Text: "太棒了"}, {Text: "加油"}}, loaded)

	loaded, err = Read(strings.NewReader("\ufeffcomment_id,text\n7,好\n"))
	require.NoError(t, err)
	require.Equal(t, []Comment{{ID: "7", Text: "好"}}, loaded)
}

func TestReadShortRows(t *testing.T) {
	loaded, err := Read(strings.NewReader("comment_id,author_handle,text,timestamp,like_count\n1,bob\n"))
	require.NoError(t, err)
	require.Equal(t, []Comment{{ID: "1", Author: "bob"}}, loaded)
}
