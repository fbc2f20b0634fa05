package textproc

import (
	"bufio"
	"embed"
	"fmt"
	"io"
	"io/fs"
	"os"
	"strings"
)

//go:embed stopwords/*.txt
var stopWordsFS embed.FS

// StopWords is a set of lowercased stop words.
type StopWords map[string]bool

func (s StopWords) Contains(word string) bool {
	return s[word] || s[strings.ToLower(word)]
}

func readStopWords(r io.Reader, into StopWords) error {
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		word := strings.TrimSpace(scanner.Text())
		if word == "" || strings.HasPrefix(word, "//") {
			continue
		}
		into[strings.ToLower(word)] = true
	}
	return scanner.Err()
}

// LoadStopWords combines the embedded chinese and english lists with the
// words of `extraFile`, one per line. `extraFile` may be empty.
func LoadStopWords(extraFile string) (StopWords, error) {
	combined := StopWords{}

	err := fs.WalkDir(stopWordsFS, "stopwords", func(path string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return err
		}
		f, err := stopWordsFS.Open(path)
		if err != nil {
			return err
		}
		defer f.Close()
		return readStopWords(f, combined)
	})
	if err != nil {
		return nil, fmt.Errorf("load embedded stop words: %w", err)
	}

	if extraFile == "" {
		return combined, nil
	}
	f, err := os.Open(extraFile)
	if err != nil {
		return nil, fmt.Errorf("load stop words: %w", err)
	}
	defer f.Close()
	err = readStopWords(f, combined)
	if err != nil {
		return nil, fmt.Errorf("load stop words %s: %w", extraFile, err)
	}
	return combined, nil
}
