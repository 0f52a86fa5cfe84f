package sentiment

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/jonreiter/govader"
	"github.com/russross/blackfriday/v2"
)

var (
	mdLinkPattern = regexp.MustCompile(`\[(.*?)\]\((https?:\/\/[^\s\)]+)\)`)
	urlPattern    = regexp.MustCompile(`https?://\S+|www\.\S+`)
	tagPattern    = regexp.MustCompile(`<[^>]+>`)
)

// VADER scores text with the VADER lexicon. The polarity components map
// directly onto the stored distribution: Pos/Neg/Neu are proportions of the
// text carrying each polarity, so they are non-negative by construction.
//
// The analyzer itself is read-only per call and shared across workers.
type VADER struct {
	analyzer *govader.SentimentIntensityAnalyzer
}

// NewVADER constructs the default classifier.
func NewVADER() *VADER {
	return &VADER{analyzer: govader.NewSentimentIntensityAnalyzer()}
}

// Classify normalizes the text to plain prose and runs VADER over it.
// Texts that are empty after normalization (pure markup, links only) fail
// with ErrClassification.
func (v *VADER) Classify(ctx context.Context, text string) (Scores, error) {
	if err := ctx.Err(); err != nil {
		return Scores{}, err
	}

	plain := NormalizeText(text)
	if plain == "" {
		return Scores{}, fmt.Errorf("%w: empty text after normalization", ErrClassification)
	}

	s := v.analyzer.PolarityScores(plain)
	return Scores{
		Positive: s.Positive,
		Negative: s.Negative,
		Neutral:  s.Neutral,
		Compound: s.Compound,
	}, nil
}

// NormalizeText flattens markdown and markup into plain prose: renders
// markdown, drops tags, keeps link texts while removing the URLs themselves,
// and collapses whitespace. Bare URLs carry no sentiment and only dilute the
// lexicon hits.
func NormalizeText(input string) string {
	rendered := blackfriday.Run([]byte(input), blackfriday.WithNoExtensions())
	s := tagPattern.ReplaceAllString(string(rendered), " ")
	s = mdLinkPattern.ReplaceAllString(s, "$1")
	s = urlPattern.ReplaceAllString(s, "")
	return strings.Join(strings.Fields(s), " ")
}
