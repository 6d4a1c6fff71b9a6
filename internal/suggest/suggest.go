// Package suggest produces machine-suggested culture spans for a task text.
// The model is treated as an untrusted collaborator: its output is parsed
// defensively, every candidate must be located verbatim in the task text,
// and anything unlocatable is discarded rather than guessed at.
package suggest

import (
	"context"
	"strings"

	"culturemark/api/internal/span"
	"culturemark/api/internal/util"
)

// Candidate is one span proposal from the provider, before it has been
// anchored to the document.
type Candidate struct {
	Text         string `json:"text"`
	CultureProxy string `json:"cultureProxy"`
	Comment      string `json:"comment"`
}

// Provider returns span candidates for a task text.
type Provider interface {
	Suggest(ctx context.Context, text string) ([]Candidate, error)
}

type Service struct {
	provider Provider
}

func NewService(provider Provider) *Service {
	return &Service{provider: provider}
}

// Suggestions asks the provider for candidates and anchors them to the task
// text. The returned annotations carry global offsets and still need to pass
// the overlap filter before being stored.
func (s *Service) Suggestions(ctx context.Context, taskID, userEmail, text string) ([]span.TextAnnotation, error) {
	candidates, err := s.provider.Suggest(ctx, text)
	if err != nil {
		return nil, err
	}
	return Locate(taskID, userEmail, text, candidates), nil
}

// Locate anchors candidates to the document by exact substring match.
// Repeated candidate texts bind to successive occurrences; candidates whose
// text does not appear verbatim are dropped.
func Locate(taskID, userEmail, text string, candidates []Candidate) []span.TextAnnotation {
	located := make([]span.TextAnnotation, 0, len(candidates))
	searchFrom := map[string]int{}

	for _, c := range candidates {
		needle := strings.TrimSpace(c.Text)
		if needle == "" {
			continue
		}

		from := searchFrom[needle]
		idx := -1
		if from <= len(text) {
			idx = strings.Index(text[from:], needle)
		}
		if idx < 0 {
			// fall back to the first occurrence before giving up
			idx = strings.Index(text, needle)
			from = 0
		}
		if idx < 0 {
			continue
		}

		start := from + idx
		end := start + len(needle)
		searchFrom[needle] = end

		located = append(located, span.TextAnnotation{
			ID:        util.NewID("sug"),
			TaskID:    taskID,
			UserEmail: userEmail,
			Start:     start,
			End:       end,
			Text:      needle,
			Type:      span.TypeSuggested,
			Subtype:   span.SubtypeCulture,
			Culture: &span.CultureJudgment{
				CultureProxy: c.CultureProxy,
				Comment:      c.Comment,
			},
		})
	}
	return located
}
