// Package sentiment defines the classification boundary consumed by the
// ingestion pipeline and provides the default VADER-backed implementation.
// The pipeline only depends on the Classifier interface; the model behind it
// is a pluggable collaborator.
package sentiment

import (
	"context"
	"errors"
)

// ErrClassification is returned when a text cannot be scored. The pipeline
// skips the post and never stores a partially scored record.
var ErrClassification = errors.New("sentiment classification failed")

// Scores is the sentiment distribution assigned to a text: non-negative
// relative weights per class. They are not required to sum to 1.
type Scores struct {
	Positive float64 `json:"positive"`
	Negative float64 `json:"negative"`
	Neutral  float64 `json:"neutral"`
	// Compound is the normalized overall polarity in [-1, 1], kept for the
	// ad-hoc analyze endpoint.
	Compound float64 `json:"compound"`
}

// Label returns the dominant class name; ties resolve to neutral.
func (s Scores) Label() string {
	switch {
	case s.Positive > s.Negative && s.Positive > s.Neutral:
		return "positive"
	case s.Negative > s.Positive && s.Negative > s.Neutral:
		return "negative"
	default:
		return "neutral"
	}
}

// Classifier scores a message body. Implementations must return non-negative
// component weights or an error; there is no partial result.
type Classifier interface {
	Classify(ctx context.Context, text string) (Scores, error)
}
