// Package textproc turns raw comment text into tokens: it strips markup and
// noise, segments chinese and latin text into words and drops stop words.
package textproc

import (
	"regexp"
	"strings"
	"unicode"
	"weibo-analysis/pkg/htmlutil"

	"golang.org/x/net/html"
	"golang.org/x/text/unicode/norm"
	"golang.org/x/text/width"
)

// Rules selects which kinds of noise survive cleaning, the zero value strips
// everything.
type Rules struct {
	KeepURLs        bool `json:"keep_urls"`
	KeepMentions    bool `json:"keep_mentions"`
	KeepEmoticons   bool `json:"keep_emoticons"`
	KeepPunctuation bool `json:"keep_punctuation"`
}

var (
	urlRegex      = regexp.MustCompile(`(?i)\b(?:https?://|www\.)[^\s\p{Han}]+`)
	mentionRegex  = regexp.MustCompile(`@[\p{L}\p{N}_\-]+`)
	emoticonRegex = regexp.MustCompile(`\[[^\[\]\s]{1,12}\]`)
)

func dropNoiseRune(r rune, keepPunctuation bool) bool {
	if unicode.Is(unicode.Variation_Selector, r) {
		return true
	}
	if keepPunctuation {
		return false
	}
	return unicode.IsPunct(r) || unicode.IsSymbol(r)
}

// Clean removes markup and noise from `text` according to `rules`. The
// result is folded to half-width, NFKC normalized and has single spaces
// between words.
func Clean(text string, rules Rules) string {
	if htmlutil.HasMarkup(text) {
		stripped, err := htmlutil.StripTags(text)
		if err == nil {
			text = stripped
		}
	} else {
		text = html.UnescapeString(text)
	}
	text = htmlutil.RemoveNonPrintable(text)
	text = width.Fold.String(text)
	text = norm.NFKC.String(text)

	if !rules.KeepURLs {
		text = urlRegex.ReplaceAllString(text, " ")
	}
	if !rules.KeepMentions {
		text = mentionRegex.ReplaceAllString(text, " ")
	}
	if !rules.KeepEmoticons {
		text = emoticonRegex.ReplaceAllString(text, " ")
	}

	text = strings.Map(func(r rune) rune {
		if dropNoiseRune(r, rules.KeepPunctuation) {
			return ' '
		}
		return r
	}, text)

	return htmlutil.CollapseWhitespace(text)
}
