package htmlutil

import (
	"bytes"
	"regexp"
	"strings"
	"unicode"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
)

func GetText(node *html.Node) string {
	var buffer bytes.Buffer
	getTextRecursive(node, &buffer)
	return buffer.String()
}

func getTextRecursive(node *html.Node, buffer *bytes.Buffer) {
	if node == nil {
		return
	}
	switch node.Type {
	case html.TextNode:
		buffer.WriteString(node.Data)
		return
	case html.ElementNode:
		// emoticons are rendered as <img alt="[哈哈]">, the alt is the only text they have
		if node.Data == "img" {
			for _, a := range node.Attr {
				if a.Key == "alt" {
					buffer.WriteString(a.Val)
				}
			}
			return
		}
		if node.Data == "br" {
			buffer.WriteByte(' ')
			return
		}
	}
	child := node.FirstChild
	for child != nil {
		getTextRecursive(child, buffer)
		child = child.NextSibling
	}
}

var tagRegex = regexp.MustCompile(`<[a-zA-Z/!][^>]*>`)

// HasMarkup reports whether `s` looks like it contains html tags.
func HasMarkup(s string) bool {
	return tagRegex.MatchString(s)
}

// StripTags returns the text content of an html fragment, entities are
// decoded and emoticon images are replaced by their alt text.
func StripTags(fragment string) (string, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(fragment))
	if err != nil {
		return "", err
	}
	var out strings.Builder
	for _, n := range doc.Find("body").Nodes {
		out.WriteString(GetText(n))
	}
	return out.String(), nil
}

var innerWhitespace = regexp.MustCompile(`\s\s+`)

func RemoveNonPrintable(s string) string {
	newStr := strings.Builder{}
	for _, c := range s {
		if unicode.IsPrint(c) || unicode.IsSpace(c) {
			newStr.WriteRune(c)
		}
	}
	return newStr.String()
}

// CollapseWhitespace trims `s` and replaces every run of whitespace with a single space.
func CollapseWhitespace(s string) string {
	s = strings.TrimSpace(s)
	s = strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return ' '
		}
		return r
	}, s)
	return innerWhitespace.ReplaceAllString(s, " ")
}
