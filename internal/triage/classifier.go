// Package triage classifies free-text symptom descriptions and routes them
// either to escalation or to a self-service slot suggestion.
package triage

import (
	"context"
	"regexp"
	"strings"
)

type Urgency string

const (
	UrgencyRoutine Urgency = "routine"
	UrgencyUrgent  Urgency = "urgent"
)

func (u Urgency) Valid() bool {
	return u == UrgencyRoutine || u == UrgencyUrgent
}

type Classification struct {
	Urgency                 Urgency `json:"urgency"`
	SuggestedSpecialization string  `json:"suggested_specialization,omitempty"`
}

// Classifier is the natural-language capability behind triage. priorTurns
// holds the earlier patient messages of the same conversation, oldest first.
type Classifier interface {
	Classify(ctx context.Context, text string, priorTurns []string) (Classification, error)
}

// ======================================================
// KEYWORDS
// ======================================================

var urgentPhrases = []string{
	"severe pain",
	"bleeding",
	"trauma",
	"swelling",
	"knocked out",
	"broken jaw",
	"can't breathe",
	"cannot breathe",
	"high fever",
	"pus",
}

// urgentPatterns match whole words only, so "pushed" is not "pus".
var urgentPatterns = func() []*regexp.Regexp {
	out := make([]*regexp.Regexp, 0, len(urgentPhrases))
	for _, phrase := range urgentPhrases {
		out = append(out, regexp.MustCompile(`\b`+regexp.QuoteMeta(phrase)+`\b`))
	}
	return out
}()

var specializationHints = []struct {
	specialization string
	words          []string
}{
	{"Oral Surgeon", []string{"wisdom", "extraction", "jaw", "implant", "impacted"}},
	{"Orthodontist", []string{"braces", "aligner", "crooked", "bite", "retainer"}},
	{"General Dentist", []string{"cleaning", "checkup", "check-up", "cavity", "filling", "toothache", "sensitivity"}},
}

// KeywordClassifier matches fixed phrases. It is the offline fallback when
// no model is configured or the model call fails.
type KeywordClassifier struct{}

func NewKeywordClassifier() *KeywordClassifier {
	return &KeywordClassifier{}
}

func (KeywordClassifier) Classify(_ context.Context, text string, priorTurns []string) (Classification, error) {
	current := strings.ToLower(text)
	history := strings.ToLower(strings.Join(priorTurns, "\n"))

	out := Classification{Urgency: UrgencyRoutine}

	for _, re := range urgentPatterns {
		if re.MatchString(current) || re.MatchString(history) {
			out.Urgency = UrgencyUrgent
			break
		}
	}

	// the latest turn wins over history for the specialist hint
	if spec := matchSpecialization(current); spec != "" {
		out.SuggestedSpecialization = spec
	} else {
		out.SuggestedSpecialization = matchSpecialization(history)
	}

	return out, nil
}

func matchSpecialization(text string) string {
	if text == "" {
		return ""
	}
	for _, hint := range specializationHints {
		for _, w := range hint.words {
			if strings.Contains(text, w) {
				return hint.specialization
			}
		}
	}
	return ""
}

var _ Classifier = (*KeywordClassifier)(nil)
