package suggest

import (
	"context"
	"testing"

	"culturemark/api/internal/span"
)

const sampleText = "They shared pan de muerto at the ofrenda, then more pan de muerto later."

func TestLocateAnchorsVerbatim(t *testing.T) {
	got := Locate("t1", "a@example.com", sampleText, []Candidate{
		{Text: "pan de muerto", CultureProxy: "food"},
		{Text: "ofrenda", CultureProxy: "custom"},
	})
	if len(got) != 2 {
		t.Fatalf("expected 2 located spans, got %d", len(got))
	}

	first := got[0]
	if sampleText[first.Start:first.End] != "pan de muerto" {
		t.Errorf("offsets do not recover the phrase: [%d, %d)", first.Start, first.End)
	}
	if first.Type != span.TypeSuggested {
		t.Errorf("located spans must be typed as suggestions, got %q", first.Type)
	}
	if first.Culture == nil || first.Culture.CultureProxy != "food" {
		t.Errorf("culture payload lost: %+v", first.Culture)
	}
}

func TestLocateDiscardsUnlocatable(t *testing.T) {
	got := Locate("t1", "a@example.com", sampleText, []Candidate{
		{Text: "bread of the dead"}, // paraphrase, not in the text
		{Text: "ofrenda"},
		{Text: "   "},
	})
	if len(got) != 1 {
		t.Fatalf("expected only the verbatim match, got %d", len(got))
	}
	if got[0].Text != "ofrenda" {
		t.Errorf("unexpected survivor: %q", got[0].Text)
	}
}

func TestLocateRepeatedPhraseBindsSuccessiveOccurrences(t *testing.T) {
	got := Locate("t1", "a@example.com", sampleText, []Candidate{
		{Text: "pan de muerto"},
		{Text: "pan de muerto"},
	})
	if len(got) != 2 {
		t.Fatalf("expected 2 located spans, got %d", len(got))
	}
	if got[0].Start == got[1].Start {
		t.Errorf("repeated candidates should bind distinct occurrences: %d and %d", got[0].Start, got[1].Start)
	}
	for _, a := range got {
		if sampleText[a.Start:a.End] != "pan de muerto" {
			t.Errorf("offsets drifted: [%d, %d)", a.Start, a.End)
		}
	}
}

func TestParseCandidates(t *testing.T) {
	reply := "```json\n[{\"text\": \"ofrenda\", \"cultureProxy\": \"custom\", \"comment\": \"altar\"}]\n```"
	candidates, err := ParseCandidates(reply)
	if err != nil {
		t.Fatal(err)
	}
	if len(candidates) != 1 || candidates[0].Text != "ofrenda" {
		t.Errorf("unexpected candidates: %+v", candidates)
	}
}

func TestParseCandidatesRejectsGarbage(t *testing.T) {
	if _, err := ParseCandidates("I could not find any culture markers."); err == nil {
		t.Error("prose reply should fail to parse")
	}
	candidates, err := ParseCandidates("")
	if err != nil || candidates != nil {
		t.Errorf("empty reply should yield nothing: %v %v", candidates, err)
	}
}

type stubProvider struct {
	candidates []Candidate
}

func (s stubProvider) Suggest(_ context.Context, _ string) ([]Candidate, error) {
	return s.candidates, nil
}

func TestServiceSuggestions(t *testing.T) {
	svc := NewService(stubProvider{candidates: []Candidate{
		{Text: "ofrenda", CultureProxy: "custom"},
		{Text: "not present anywhere"},
	}})

	got, err := svc.Suggestions(context.Background(), "t1", "a@example.com", sampleText)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 1 {
		t.Fatalf("expected 1 suggestion, got %d", len(got))
	}
	if got[0].TaskID != "t1" || got[0].UserEmail != "a@example.com" {
		t.Errorf("ownership fields wrong: %+v", got[0])
	}
	if err := got[0].Validate(); err != nil {
		t.Errorf("suggestion should validate: %v", err)
	}
}
