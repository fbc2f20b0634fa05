// Package analyzer runs the analysis of a comment table: tokenization,
// sentiment, word frequencies and topics, and writes every artifact into the
// output directory.
package analyzer

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"weibo-analysis/internal/comments"
	"weibo-analysis/internal/components/assert"
	"weibo-analysis/internal/components/failure"
	"weibo-analysis/internal/components/telemetry"
	"weibo-analysis/internal/figures"
	"weibo-analysis/internal/sentiment"
	"weibo-analysis/internal/textproc"
	"weibo-analysis/internal/topics"
	"weibo-analysis/internal/wordfreq"
	"weibo-analysis/pkg/fsutil"
)

const (
	report_analyzer_run      = "analyzer.run"
	report_analyzer_artifact = "analyzer.artifact"
	report_analyzer_font     = "analyzer.font"
)

// fontCandidates are tried when no font is configured.
var fontCandidates = figures.SystemFonts

const (
	FileSentiment = "sentiment.png"
	FileWordCloud = "wordcloud.png"
	FileTopics    = "topics.txt"
	FileScores    = "scores.csv"
	FileWordFreq  = "wordfreq.csv"
)

// TopicFile is the name of the bar chart of topic `i`.
func TopicFile(i int) string {
	return fmt.Sprintf("topic_%d.png", i)
}

var errEmptyCorpus = errors.New("no tokens left after cleaning")

type ArtifactFailure struct {
	Artifact string
	Err      error
}

type Report struct {
	Comments    int
	Tokens      [][]string
	Scores      []float64
	Frequencies wordfreq.Table
	Topics      []topics.Topic
	// Artifacts are the paths of every file written, in the order they were written.
	Artifacts []string
	Failures  []ArtifactFailure
}

func (r *Report) written(path string) {
	r.Artifacts = append(r.Artifacts, path)
}

type Analyzer struct {
	cfg       Config
	tokenizer *textproc.Tokenizer
	model     *sentiment.Model
	renderer  *figures.Renderer
	tel       telemetry.API
}

// New prepares an analyzer, loading the segmenter dictionary, the stop words
// and the font, and trains the sentiment model with the same tokenizer.
func New(cfg Config, tel telemetry.API) (*Analyzer, error) {
	seg, err := textproc.DefaultSegmenter()
	if err != nil {
		return nil, err
	}
	return newAnalyzer(cfg, seg, tel)
}

func newAnalyzer(cfg Config, seg textproc.Segmenter, tel telemetry.API) (*Analyzer, error) {
	assert.NotNil(tel)

	cfg = cfg.WithDefaults()
	err := cfg.Validate()
	if err != nil {
		return nil, err
	}

	stop, err := textproc.LoadStopWords(cfg.StopWordsFile)
	if err != nil {
		return nil, failure.Config("analyze", err)
	}
	tokenizer := textproc.NewTokenizer(seg, stop, cfg.Clean)
	model, err := sentiment.TrainDefault(tokenizer)
	if err != nil {
		return nil, err
	}
	scoped := telemetry.NewScopedAPI("analyzer", tel)
	renderer, err := openRenderer(cfg.FontPath, scoped)
	if err != nil {
		return nil, failure.Config("analyze", err)
	}

	return &Analyzer{
		cfg:       cfg,
		tokenizer: tokenizer,
		model:     model,
		renderer:  renderer,
		tel:       scoped,
	}, nil
}

func openRenderer(fontPath string, tel telemetry.API) (*figures.Renderer, error) {
	if fontPath != "" {
		return figures.NewRenderer(fontPath)
	}
	renderer, found := figures.NewSystemRenderer(fontCandidates)
	if found == "" {
		tel.ReportWarning(report_analyzer_font, "no font with chinese glyphs found, chinese text will not render, set font_path")
		return renderer, nil
	}
	tel.ReportDebug("using system font", found)
	return renderer, nil
}

func (a *Analyzer) path(name string) string {
	return filepath.Join(a.cfg.OutputDir, name)
}

// artifact runs `produce` and records its outcome, a failure does not stop
// the remaining artifacts.
func (a *Analyzer) artifact(report *Report, name string, produce func() error) error {
	err := produce()
	if err == nil {
		return nil
	}
	if failure.KindOf(err) == nil {
		err = failure.Data("analyze "+name, err)
	}
	a.tel.ReportWarning(report_analyzer_artifact, name, err)
	report.Failures = append(report.Failures, ArtifactFailure{Artifact: name, Err: err})
	return err
}

// Run analyzes the input table. A table that cannot be loaded fails the
// whole run before anything is written, every other failure is reported
// after all remaining artifacts were attempted and joined into the error.
func (a *Analyzer) Run(ctx context.Context) (Report, error) {
	var report Report

	rows, err := comments.Load(a.cfg.Input)
	if err != nil {
		return report, err
	}
	report.Comments = len(rows)
	a.tel.ReportDebug(report_analyzer_run, "loaded comments", len(rows))

	err = os.MkdirAll(a.cfg.OutputDir, 0777)
	if err != nil {
		return report, failure.Config("analyze", fmt.Errorf("create output directory: %w", err))
	}

	texts := make([]string, len(rows))
	for i, r := range rows {
		texts[i] = r.Text
	}
	report.Tokens = a.tokenizer.TokenizeAll(texts)
	report.Scores = a.model.ScoreAll(report.Tokens, *a.cfg.NeutralScore)

	var errs []error
	steps := []struct {
		name string
		run  func() error
	}{
		{name: "scores", run: func() error { return a.writeScores(&report, rows) }},
		{name: "sentiment", run: func() error { return a.writeSentiment(&report) }},
		{name: "wordfreq", run: func() error { return a.writeWordFreq(&report) }},
		{name: "wordcloud", run: func() error { return a.writeWordCloud(&report) }},
		{name: "topics", run: func() error { return a.writeTopics(&report) }},
	}
	for _, step := range steps {
		if ctx.Err() != nil {
			return report, ctx.Err()
		}
		err := a.artifact(&report, step.name, step.run)
		if err != nil {
			errs = append(errs, err)
		}
	}

	a.tel.ReportCount(report_analyzer_run, int64(len(report.Artifacts)))
	return report, errors.Join(errs...)
}

func writeCsv(path string, header []string, rows [][]string) error {
	return fsutil.WriteAtomic(path, func(w io.Writer) error {
		out := csv.NewWriter(w)
		err := out.Write(header)
		if err != nil {
			return err
		}
		err = out.WriteAll(rows)
		if err != nil {
			return err
		}
		return out.Error()
	})
}

// rows of legacy tables have no id, their 1 based row number is used instead.
func (a *Analyzer) writeScores(report *Report, rows []comments.Comment) error {
	records := make([][]string, len(rows))
	for i, r := range rows {
		id := r.ID
		if id == "" {
			id = strconv.Itoa(i + 1)
		}
		records[i] = []string{id, strconv.FormatFloat(report.Scores[i], 'f', 6, 64)}
	}
	path := a.path(FileScores)
	err := writeCsv(path, []string{comments.ColumnID, "score"}, records)
	if err != nil {
		return err
	}
	report.written(path)
	return nil
}

func (a *Analyzer) writeSentiment(report *Report) error {
	path := a.path(FileSentiment)
	err := a.renderer.SentimentHistogram(path, report.Scores)
	if err != nil {
		return err
	}
	report.written(path)
	return nil
}

func (a *Analyzer) writeWordFreq(report *Report) error {
	report.Frequencies = wordfreq.Count(report.Tokens)

	records := make([][]string, len(report.Frequencies))
	for i, e := range report.Frequencies {
		records[i] = []string{e.Token, strconv.Itoa(e.Count)}
	}
	path := a.path(FileWordFreq)
	err := writeCsv(path, []string{"token", "count"}, records)
	if err != nil {
		return err
	}
	report.written(path)
	return nil
}

func (a *Analyzer) writeWordCloud(report *Report) error {
	if len(report.Frequencies) == 0 {
		return failure.Data("analyze wordcloud", errEmptyCorpus)
	}
	path := a.path(FileWordCloud)
	err := a.renderer.WordCloud(path, report.Frequencies, a.cfg.WordCloud)
	if err != nil {
		return err
	}
	report.written(path)
	return nil
}

func (a *Analyzer) writeTopics(report *Report) error {
	model, err := topics.Fit(report.Tokens, a.cfg.Topics)
	if errors.Is(err, topics.ErrEmptyCorpus) {
		return failure.Data("analyze topics", errEmptyCorpus)
	}
	if err != nil {
		return err
	}
	report.Topics = model.Topics

	path := a.path(FileTopics)
	err = fsutil.WriteFileAtomic(path, []byte(model.Format()))
	if err != nil {
		return err
	}
	report.written(path)

	var errs []error
	for _, topic := range model.Topics {
		path := a.path(TopicFile(topic.Index))
		err := a.renderer.TopicChart(path, topic)
		if err != nil {
			errs = append(errs, fmt.Errorf("topic %d: %w", topic.Index, err))
			continue
		}
		report.written(path)
	}
	a.removeStaleTopicCharts(len(model.Topics))
	return errors.Join(errs...)
}

// charts of a previous run with more topics would otherwise look current.
func (a *Analyzer) removeStaleTopicCharts(numTopics int) {
	for i := numTopics; ; i++ {
		path := a.path(TopicFile(i))
		err := os.Remove(path)
		if os.IsNotExist(err) {
			return
		}
		if err != nil {
			a.tel.ReportWarning(report_analyzer_artifact, "remove stale topic chart", path, err)
			return
		}
	}
}
