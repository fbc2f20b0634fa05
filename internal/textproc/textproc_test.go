package textproc

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"unicode"

	"github.com/stretchr/testify/require"
)

// dictSegmenter does forward maximum matching over a fixed dictionary,
// unknown han runes become single words and latin runs stay whole.
type dictSegmenter struct {
	words map[string]bool
}

func newDictSegmenter(words ...string) dictSegmenter {
	s := dictSegmenter{words: map[string]bool{}}
	for _, w := range words {
		s.words[w] = true
	}
	return s
}

func (s dictSegmenter) Cut(text string) []string {
	runes := []rune(text)
	var out []string
	for i := 0; i < len(runes); {
		if !unicode.Is(unicode.Han, runes[i]) {
			j := i
			for j < len(runes) && !unicode.Is(unicode.Han, runes[j]) {
				j++
			}
			out = append(out, string(runes[i:j]))
			i = j
			continue
		}
		end := i + 1
		for j := len(runes); j > i+1; j-- {
			if s.words[string(runes[i:j])] {
				end = j
				break
			}
		}
		out = append(out, string(runes[i:end]))
		i = end
	}
	return out
}

func testStopWords(t testing.TB) StopWords {
	t.Helper()
	stop, err := LoadStopWords("")
	require.NoError(t, err)
	return stop
}

func TestClean(t *testing.T) {
	testCases := []struct {
		name     string
		rules    Rules
		input    string
		expected string
	}{
		{
			name:     "markup and emoticon",
			input:    `<span>太棒了<img alt="[心]" src="x.png"></span><br/>加油`,
			expected: "太棒了 加油",
		},
		{
			name:     "emoticon kept",
			rules:    Rules{KeepEmoticons: true},
			input:    `太棒了[心]`,
			expected: "太棒了 心",
		},
		{
			name:     "url",
			input:    "看这个 https://t.cn/A6abc好",
			expected: "看这个 好",
		},
		{
			name:     "url kept",
			rules:    Rules{KeepURLs: true, KeepPunctuation: true},
			input:    "看 https://t.cn/A6abc",
			expected: "看 https://t.cn/A6abc",
		},
		{
			name:     "mention",
			input:    "回复@小明_2:说得对",
			expected: "回复 说得对",
		},
		{
			name:     "full width",
			input:    "ＡＢＣ　１２３",
			expected: "ABC 123",
		},
		{
			name:     "punctuation and emoji",
			input:    "加油！！！😀👍🏻 中国❤️",
			expected: "加油 中国",
		},
		{
			name:     "punctuation kept",
			rules:    Rules{KeepPunctuation: true},
			input:    "好！",
			expected: "好!",
		},
		{
			name:     "entities",
			input:    "a &amp; b",
			expected: "a b",
		},
		{
			name:     "empty",
			input:    "   ",
			expected: "",
		},
	}

	for _, test := range testCases {
		require.Equal(t, test.expected, Clean(test.input, test.rules), test.name)
	}
}

func TestTokenize(t *testing.T) {
	tokenizer := NewTokenizer(newDictSegmenter("太棒", "中国", "加油"), testStopWords(t), Rules{})

	testCases := []struct {
		input    string
		expected []string
	}{
		{input: "太棒了，为中国加油！", expected: []string{"太棒", "中国", "加油"}},
		{input: "I love 中国 2023 a The", expected: []string{"love", "中国"}},
		{input: "OK中国", expected: []string{"OK", "中国"}},
		{input: "<b>不</b>好", expected: []string{"不", "好"}},
		{input: "", expected: []string{}},
		{input: "！！！", expected: []string{}},
	}

	for _, test := range testCases {
		require.Equal(t, test.expected, tokenizer.Tokenize(test.input), test.input)
	}
}

func TestTokenizeIdempotent(t *testing.T) {
	seg, err := DefaultSegmenter()
	require.NoError(t, err)

	tokenizers := map[string]*Tokenizer{
		"dict": NewTokenizer(newDictSegmenter("太棒", "中国", "加油"), testStopWords(t), Rules{}),
		"gse":  NewTokenizer(seg, testStopWords(t), Rules{}),
	}
	inputs := []string{
		"太棒了，为中国加油！",
		`<span>今天的比赛真精彩<img alt="[赞]"></span> @小明 http://t.cn/abc`,
		"I love China, 中国队2023年夺冠！！",
		"ＡＢＣ全角测试１２３",
		"不喜欢这个结果，太失望了😞",
	}

	for name, tokenizer := range tokenizers {
		for _, input := range inputs {
			once := tokenizer.Tokenize(input)
			twice := tokenizer.Tokenize(strings.Join(once, " "))
			require.Equal(t, once, twice, "%s: %s", name, input)
		}
	}
}

func TestTokenizeGse(t *testing.T) {
	seg, err := DefaultSegmenter()
	require.NoError(t, err)
	tokenizer := NewTokenizer(seg, testStopWords(t), Rules{})

	text := "太棒了为中国加油"
	tokens := tokenizer.Tokenize(text)
	require.NotEmpty(t, tokens)
	for _, token := range tokens {
		require.Contains(t, text, token)
	}
	require.Equal(t, [][]string{tokens, {}}, tokenizer.TokenizeAll([]string{text, ""}))
}

func TestLoadStopWords(t *testing.T) {
	stop := testStopWords(t)
	require.True(t, stop.Contains("的"))
	require.True(t, stop.Contains("The"))
	require.False(t, stop.Contains("不"))
	require.False(t, stop.Contains("// common chinese function words, negations are kept on purpose"))

	extra := filepath.Join(t.TempDir(), "extra.txt")
	require.NoError(t, os.WriteFile(extra, []byte("// mine\n哈哈哈\n  Foo  \n"), 0600))
	stop, err := LoadStopWords(extra)
	require.NoError(t, err)
	require.True(t, stop.Contains("哈哈哈"))
	require.True(t, stop.Contains("foo"))
	require.True(t, stop.Contains("的"))

	_, err = LoadStopWords(filepath.Join(t.TempDir(), "missing.txt"))
	require.Error(t, err)
}
