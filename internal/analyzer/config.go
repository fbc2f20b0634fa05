package analyzer

import (
	"errors"
	"fmt"
	"weibo-analysis/internal/components/failure"
	"weibo-analysis/internal/figures"
	"weibo-analysis/internal/sentiment"
	"weibo-analysis/internal/textproc"
	"weibo-analysis/internal/topics"
)

const (
	DefaultInput     = "data/sample_comments.csv"
	DefaultOutputDir = "figures"
)

type Config struct {
	Input     string `json:"input"`
	OutputDir string `json:"output_dir"`
	// FontPath is a truetype/opentype font with chinese glyphs.
	FontPath      string `json:"font_path"`
	StopWordsFile string `json:"stop_words_file"`
	// NeutralScore is the score of comments without tokens, nil means 0.5.
	NeutralScore *float64                 `json:"neutral_score"`
	Clean        textproc.Rules           `json:"clean"`
	Topics       topics.Config            `json:"topics"`
	WordCloud    figures.WordCloudOptions `json:"word_cloud"`
}

func (c Config) WithDefaults() Config {
	if c.Input == "" {
		c.Input = DefaultInput
	}
	if c.OutputDir == "" {
		c.OutputDir = DefaultOutputDir
	}
	if c.NeutralScore == nil {
		neutral := sentiment.DefaultNeutral
		c.NeutralScore = &neutral
	}
	c.Topics = c.Topics.WithDefaults()
	c.WordCloud = c.WordCloud.WithDefaults()
	return c
}

// Validate reports invalid values as failure.ErrConfig, it expects defaults
// to be applied.
func (c Config) Validate() error {
	var errs []error
	if c.Input == "" {
		errs = append(errs, fmt.Errorf("input path is required"))
	}
	if c.OutputDir == "" {
		errs = append(errs, fmt.Errorf("output directory is required"))
	}
	if c.NeutralScore != nil && (*c.NeutralScore < 0 || *c.NeutralScore > 1) {
		errs = append(errs, fmt.Errorf("neutral score must be within [0, 1], got %v", *c.NeutralScore))
	}
	err := c.Topics.Validate()
	if err != nil {
		errs = append(errs, err)
	}
	err = c.WordCloud.Validate()
	if err != nil {
		errs = append(errs, err)
	}
	if len(errs) > 0 {
		return failure.Config("analyze", errors.Join(errs...))
	}
	return nil
}
