package sentiment

import (
	"testing"
	"weibo-analysis/internal/textproc"

	"github.com/stretchr/testify/require"
)

func gseTokenizer(t testing.TB) *textproc.Tokenizer {
	t.Helper()
	seg, err := textproc.DefaultSegmenter()
	require.NoError(t, err)
	stop, err := textproc.LoadStopWords("")
	require.NoError(t, err)
	return textproc.NewTokenizer(seg, stop, textproc.Rules{})
}

func defaultModel(t testing.TB) (*Model, *textproc.Tokenizer) {
	t.Helper()
	tok := gseTokenizer(t)
	model, err := TrainDefault(tok)
	require.NoError(t, err)
	return model, tok
}

func TestCorpus(t *testing.T) {
	pos, neg, err := Corpus()
	require.NoError(t, err)
	require.Greater(t, len(pos), 300)
	require.Greater(t, len(neg), 300)

	seen := map[string]bool{}
	for _, line := range append(pos, neg...) {
		require.False(t, seen[line], line)
		seen[line] = true
	}
}

// none of these comments are part of the corpus.
var heldOut = []struct {
	text     string
	positive bool
}{
	{text: "今天天气不错，心情很好", positive: true},
	{text: "这家餐厅很好吃，推荐", positive: true},
	{text: "非常喜欢这个演员，演技很好", positive: true},
	{text: "快递很快，东西也很好", positive: true},
	{text: "太感人了，看哭了好几次", positive: true},
	{text: "比赛很精彩，中国队好样的", positive: true},
	{text: "物超所值，很满意这次购物", positive: true},
	{text: "歌很好听，支持你", positive: true},
	{text: "孩子们玩得很开心", positive: true},
	{text: "风景很美，下次还要来", positive: true},
	{text: "服务很周到，体验很好", positive: true},
	{text: "祝你生日快乐，天天开心", positive: true},
	{text: "做工精致，颜色也好看", positive: true},
	{text: "为你点赞，太厉害了", positive: true},
	{text: "这个博主很用心，内容很棒", positive: true},
	{text: "东西太差了，再也不买了", positive: false},
	{text: "服务态度恶劣，很生气", positive: false},
	{text: "这电影太无聊了，浪费时间", positive: false},
	{text: "质量很差，用一天就坏了", positive: false},
	{text: "裁判太黑了，气死我了", positive: false},
	{text: "味道难吃，还很贵", positive: false},
	{text: "物流慢得要死，差评", positive: false},
	{text: "剧情太烂了，弃剧", positive: false},
	{text: "很失望，和图片完全不一样", positive: false},
	{text: "手机卡得要死，后悔买了", positive: false},
	{text: "又输了，太让人失望了", positive: false},
	{text: "客服不理人，太差劲了", positive: false},
	{text: "心情很差，什么都不想做", positive: false},
	{text: "太恶心了，举报", positive: false},
	{text: "酒店又脏又吵，不推荐", positive: false},
}

func TestHeldOutAccuracy(t *testing.T) {
	model, tok := defaultModel(t)

	pos, neg, err := Corpus()
	require.NoError(t, err)
	corpus := map[string]bool{}
	for _, line := range append(pos, neg...) {
		corpus[line] = true
	}

	correct := 0
	for _, test := range heldOut {
		require.False(t, corpus[test.text], test.text)

		score := model.Score(tok.Tokenize(test.text))
		require.GreaterOrEqual(t, score, 0.0)
		require.LessOrEqual(t, score, 1.0)
		if (score > 0.5) == test.positive {
			correct++
		} else {
			t.Logf("misclassified %q: %.3f", test.text, score)
		}
	}
	accuracy := float64(correct) / float64(len(heldOut))
	require.GreaterOrEqual(t, accuracy, 0.8)
}

func TestEverydayPositive(t *testing.T) {
	model, tok := defaultModel(t)
	require.Greater(t, model.Score(tok.Tokenize("今天天气不错，心情很好")), 0.5)
	require.Greater(t, model.Score(tok.Tokenize("太棒了，为中国加油")), 0.5)
	require.Less(t, model.Score(tok.Tokenize("太失望了，垃圾")), 0.5)
}

func TestUnknownTokensFollowThePrior(t *testing.T) {
	model, _ := defaultModel(t)
	// the classes are nearly balanced so the prior is close to neutral
	require.InDelta(t, 0.5, model.Score([]string{"qwertyuiop", "zxcv"}), 0.02)
}

func TestScoreAll(t *testing.T) {
	model, _ := defaultModel(t)

	scores := model.ScoreAll([][]string{{"加油"}, {}, nil, {"垃圾"}}, 0.42)
	require.Len(t, scores, 4)
	require.Equal(t, 0.42, scores[1])
	require.Equal(t, 0.42, scores[2])
	require.Greater(t, scores[0], scores[3])
}

func TestTrainCharacterFeatures(t *testing.T) {
	model, err := Train(
		[][]string{{"好看"}},
		[][]string{{"难看"}},
	)
	require.NoError(t, err)
	// only the character 好 is known
	require.Greater(t, model.Score([]string{"好玩"}), 0.5)
	require.Less(t, model.Score([]string{"难受"}), 0.5)

	_, err = Train(nil, [][]string{{"x"}})
	require.Error(t, err)
}
