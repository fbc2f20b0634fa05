// Package comments holds the comment record shared by the collector and the
// analyzer and the delimited table both of them agree on.
package comments

// Comment is one scraped comment, immutable once written.
type Comment struct {
	ID     string
	Author string
	// Text is the raw comment body, it may contain html markup and emoticon markers.
	Text string
	// Timestamp is RFC3339 when the source format was recognized, verbatim otherwise.
	Timestamp string
	// LikeCount is nil when the source did not report likes.
	LikeCount *int
}

const (
	ColumnID        = "comment_id"
	ColumnAuthor    = "author_handle"
	ColumnText      = "text"
	ColumnTimestamp = "timestamp"
	ColumnLikeCount = "like_count"

	// legacy tables only have a single `comment` column
	columnLegacyText = "comment"
)

// Header is the column order of every table the collector writes.
var Header = []string{
	ColumnID,
	ColumnAuthor,
	ColumnText,
	ColumnTimestamp,
	ColumnLikeCount,
}
