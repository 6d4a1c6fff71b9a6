package span

import (
	"sort"
	"sync"
	"time"

	"culturemark/api/internal/segment"
)

// conflictsManual reports whether candidate [s, e) is blocked by existing
// annotation a under the manual-creation rule: either bound falls inside
// a's half-open range. Touching boundaries are allowed.
func conflictsManual(s, e int, a TextAnnotation) bool {
	if s >= a.Start && s < a.End {
		return true
	}
	if e > a.Start && e <= a.End {
		return true
	}
	return false
}

// intersects is the interval-intersection test used when filtering suggested
// spans against existing annotations.
func intersects(s, e int, a TextAnnotation) bool {
	return s < a.End && e > a.Start
}

// Store holds the annotation working set for one (task, user) pairing.
// Switching tasks discards the store and a fresh one is loaded from
// persistence; there is one logical writer, the mutex only guards against
// concurrent HTTP handlers.
type Store struct {
	mu     sync.Mutex
	text   []TextAnnotation
	images map[int][]ImageAnnotation
}

// NewStore creates a store seeded with the records loaded from persistence.
func NewStore(text []TextAnnotation, images []ImageAnnotation) *Store {
	s := &Store{
		text:   append([]TextAnnotation(nil), text...),
		images: make(map[int][]ImageAnnotation),
	}
	for _, img := range images {
		s.images[img.ParagraphIndex] = append(s.images[img.ParagraphIndex], img)
	}
	return s
}

// AddManual inserts a manually created annotation after the overlap gate.
// A conflicting candidate returns ErrOverlap; callers treat that as a
// silently dropped selection, not a hard failure.
func (s *Store) AddManual(a TextAnnotation) error {
	if err := a.Validate(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.text {
		if conflictsManual(a.Start, a.End, existing) {
			return ErrOverlap
		}
	}
	a.Type = TypeManual
	s.text = append(s.text, a)
	return nil
}

// AddSuggested filters a batch of suggested annotations against the current
// list and inserts the survivors, returning them. Each candidate is also
// checked against earlier survivors of the same batch, so a batch cannot
// introduce overlaps among its own members.
func (s *Store) AddSuggested(batch []TextAnnotation) []TextAnnotation {
	s.mu.Lock()
	defer s.mu.Unlock()
	accepted := make([]TextAnnotation, 0, len(batch))
	for _, candidate := range batch {
		if candidate.Validate() != nil {
			continue
		}
		blocked := false
		for _, existing := range s.text {
			if intersects(candidate.Start, candidate.End, existing) {
				blocked = true
				break
			}
		}
		for _, prior := range accepted {
			if blocked {
				break
			}
			if intersects(candidate.Start, candidate.End, prior) {
				blocked = true
			}
		}
		if blocked {
			continue
		}
		candidate.Type = TypeSuggested
		accepted = append(accepted, candidate)
	}
	s.text = append(s.text, accepted...)
	return accepted
}

// Update replaces judgment fields of the annotation with the given ID.
// Bounds are never changed by an edit, so overlap is not re-validated.
func (s *Store) Update(id string, subtype Subtype, culture *CultureJudgment, issue *IssueJudgment) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.text {
		if s.text[i].ID != id {
			continue
		}
		s.text[i].Subtype = subtype
		s.text[i].Culture = culture
		s.text[i].Issue = issue
		s.text[i].UpdatedAt = time.Now()
		return true
	}
	return false
}

// List returns a copy of the text annotations ordered by start offset.
func (s *Store) List() []TextAnnotation {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := append([]TextAnnotation(nil), s.text...)
	sort.Slice(out, func(i, j int) bool { return out[i].Start < out[j].Start })
	return out
}

// AddImage inserts an image annotation into its paragraph-index bucket.
// Image regions have no overlap policy: several cultural markers may
// legitimately describe overlapping regions.
func (s *Store) AddImage(a ImageAnnotation) error {
	if err := a.Validate(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.images[a.ParagraphIndex] = append(s.images[a.ParagraphIndex], a)
	return nil
}

// UpdateImage replaces judgment fields of an image annotation by ID.
func (s *Store) UpdateImage(id string, subtype Subtype, culture *CultureJudgment, issue *IssueJudgment, presence string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	for idx, bucket := range s.images {
		for i := range bucket {
			if bucket[i].ID != id {
				continue
			}
			bucket[i].Subtype = subtype
			bucket[i].Culture = culture
			bucket[i].Issue = issue
			bucket[i].Presence = presence
			bucket[i].UpdatedAt = time.Now()
			s.images[idx] = bucket
			return true
		}
	}
	return false
}

// ImagesFor returns a copy of the image annotations for a paragraph index.
// The result is never nil so it serializes as an empty array.
func (s *Store) ImagesFor(paragraphIndex int) []ImageAnnotation {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]ImageAnnotation, 0, len(s.images[paragraphIndex]))
	return append(out, s.images[paragraphIndex]...)
}

// AllImages returns every image annotation, bucket order by paragraph index.
func (s *Store) AllImages() []ImageAnnotation {
	s.mu.Lock()
	defer s.mu.Unlock()
	indexes := make([]int, 0, len(s.images))
	for idx := range s.images {
		indexes = append(indexes, idx)
	}
	sort.Ints(indexes)
	out := make([]ImageAnnotation, 0)
	for _, idx := range indexes {
		out = append(out, s.images[idx]...)
	}
	return out
}

// ForParagraph filters annotations to those entirely inside the paragraph
// and rebases them to paragraph-local offsets for display. An annotation
// straddling a paragraph boundary appears in neither paragraph's view.
func ForParagraph(annotations []TextAnnotation, p segment.Paragraph) []TextAnnotation {
	out := make([]TextAnnotation, 0)
	for _, a := range annotations {
		if a.Start < p.Offset || a.End > p.End() {
			continue
		}
		local := a
		local.Start -= p.Offset
		local.End -= p.Offset
		out = append(out, local)
	}
	return out
}

// Globalize converts a paragraph-local selection to document-global bounds.
// The store only ever holds global offsets.
func Globalize(p segment.Paragraph, start, end int) (int, int) {
	return p.Offset + start, p.Offset + end
}
