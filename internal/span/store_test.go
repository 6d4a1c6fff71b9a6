package span

import (
	"errors"
	"testing"

	"culturemark/api/internal/segment"
)

func culture() *CultureJudgment {
	return &CultureJudgment{CultureProxy: "region", Comment: "test"}
}

func manual(id string, start, end int) TextAnnotation {
	return TextAnnotation{
		ID:      id,
		TaskID:  "task_1",
		Start:   start,
		End:     end,
		Subtype: SubtypeCulture,
		Culture: culture(),
	}
}

func TestAddManualRejectsOverlap(t *testing.T) {
	store := NewStore(nil, nil)
	if err := store.AddManual(manual("a1", 10, 20)); err != nil {
		t.Fatalf("first annotation: %v", err)
	}

	// start 15 falls inside [10, 20)
	if err := store.AddManual(manual("a2", 15, 25)); !errors.Is(err, ErrOverlap) {
		t.Errorf("expected ErrOverlap for [15,25), got %v", err)
	}
	// end 15 falls inside [10, 20)
	if err := store.AddManual(manual("a3", 5, 15)); !errors.Is(err, ErrOverlap) {
		t.Errorf("expected ErrOverlap for [5,15), got %v", err)
	}
	// adjacency is not overlap
	if err := store.AddManual(manual("a4", 20, 30)); err != nil {
		t.Errorf("touching range [20,30) should be accepted, got %v", err)
	}
	if err := store.AddManual(manual("a5", 0, 10)); err != nil {
		t.Errorf("touching range [0,10) should be accepted, got %v", err)
	}
}

func TestManualOverlapLeavesStoreUnchanged(t *testing.T) {
	store := NewStore(nil, nil)
	if err := store.AddManual(manual("a1", 10, 20)); err != nil {
		t.Fatal(err)
	}
	_ = store.AddManual(manual("a2", 15, 25))
	if got := len(store.List()); got != 1 {
		t.Errorf("expected 1 annotation after rejected insert, got %d", got)
	}
}

func TestManualPairwiseDisjoint(t *testing.T) {
	store := NewStore(nil, nil)
	ranges := [][2]int{{0, 5}, {5, 9}, {20, 30}, {12, 20}, {9, 12}}
	for i, r := range ranges {
		a := manual(string(rune('a'+i)), r[0], r[1])
		if err := store.AddManual(a); err != nil {
			t.Fatalf("range %v: %v", r, err)
		}
	}
	list := store.List()
	for i := range list {
		for j := i + 1; j < len(list); j++ {
			if intersects(list[i].Start, list[i].End, list[j]) {
				t.Errorf("annotations %s and %s overlap", list[i].ID, list[j].ID)
			}
		}
	}
}

func TestAddSuggestedFiltersAgainstExisting(t *testing.T) {
	store := NewStore([]TextAnnotation{manual("m1", 0, 5)}, nil)
	batch := []TextAnnotation{
		suggested("s1", 3, 8),
		suggested("s2", 10, 15),
	}
	accepted := store.AddSuggested(batch)
	if len(accepted) != 1 || accepted[0].ID != "s2" {
		t.Fatalf("expected only s2 accepted, got %+v", accepted)
	}
	if accepted[0].Type != TypeSuggested {
		t.Errorf("accepted suggestion should carry type %q, got %q", TypeSuggested, accepted[0].Type)
	}
}

func TestAddSuggestedFiltersWithinBatch(t *testing.T) {
	store := NewStore(nil, nil)
	batch := []TextAnnotation{
		suggested("s1", 0, 10),
		suggested("s2", 5, 15), // overlaps s1 within the same batch
		suggested("s3", 10, 20),
	}
	accepted := store.AddSuggested(batch)
	if len(accepted) != 2 {
		t.Fatalf("expected 2 accepted, got %d", len(accepted))
	}
	if accepted[0].ID != "s1" || accepted[1].ID != "s3" {
		t.Errorf("expected s1 and s3, got %s and %s", accepted[0].ID, accepted[1].ID)
	}
}

func suggested(id string, start, end int) TextAnnotation {
	a := manual(id, start, end)
	a.Type = TypeSuggested
	return a
}

func TestUpdateSwapsPayload(t *testing.T) {
	store := NewStore(nil, nil)
	if err := store.AddManual(manual("a1", 0, 4)); err != nil {
		t.Fatal(err)
	}

	issue := &IssueJudgment{IssueCategory: "stereotype", IssueDescription: "overgeneralized"}
	if !store.Update("a1", SubtypeIssue, nil, issue) {
		t.Fatal("update by id failed")
	}
	got := store.List()[0]
	if got.Subtype != SubtypeIssue || got.Issue == nil || got.Culture != nil {
		t.Errorf("update did not swap payload: %+v", got)
	}

	if store.Update("missing", SubtypeIssue, nil, issue) {
		t.Error("update of unknown id should report false")
	}
}

func TestValidatePayloadShape(t *testing.T) {
	a := manual("a1", 0, 4)
	a.Issue = &IssueJudgment{IssueCategory: "x"}
	if err := a.Validate(); err == nil {
		t.Error("culture annotation with issue fields should be invalid")
	}

	b := manual("b1", 4, 4)
	if err := b.Validate(); !errors.Is(err, ErrInvalidRange) {
		t.Errorf("zero-width range should be ErrInvalidRange, got %v", err)
	}
}

func TestForParagraphRebasesAndFilters(t *testing.T) {
	p := segment.Paragraph{Text: "This is paragraph two.", Offset: 14}
	annotations := []TextAnnotation{
		manual("inside", 19, 21),   // within [14, 36)
		manual("before", 0, 5),     // earlier paragraph
		manual("straddle", 30, 40), // crosses the paragraph end
		manual("edge", 14, 36),     // exactly the paragraph bounds
	}
	got := ForParagraph(annotations, p)
	if len(got) != 2 {
		t.Fatalf("expected 2 local annotations, got %d", len(got))
	}
	if got[0].ID != "inside" || got[0].Start != 5 || got[0].End != 7 {
		t.Errorf("inside: got %+v", got[0])
	}
	if got[1].ID != "edge" || got[1].Start != 0 || got[1].End != 22 {
		t.Errorf("edge: got %+v", got[1])
	}
}

func TestGlobalizeRoundTrip(t *testing.T) {
	p := segment.Paragraph{Text: "hello world", Offset: 40}
	s, e := Globalize(p, 6, 11)
	if s != 46 || e != 51 {
		t.Fatalf("expected [46,51), got [%d,%d)", s, e)
	}
	local := ForParagraph([]TextAnnotation{manual("a", s, e)}, p)
	if len(local) != 1 || local[0].Start != 6 || local[0].End != 11 {
		t.Errorf("round trip failed: %+v", local)
	}
}

func TestImageBucketsIndependent(t *testing.T) {
	store := NewStore(nil, nil)
	pin := func(id string, idx int) ImageAnnotation {
		return ImageAnnotation{
			ID: id, TaskID: "task_1", ParagraphIndex: idx,
			Shape: ShapeRect, X: 10, Y: 10, Width: 20, Height: 20,
			Subtype: SubtypeCulture, Culture: culture(),
		}
	}
	// overlapping regions in one bucket are fine
	if err := store.AddImage(pin("i1", 0)); err != nil {
		t.Fatal(err)
	}
	if err := store.AddImage(pin("i2", 0)); err != nil {
		t.Fatal(err)
	}
	if err := store.AddImage(pin("i3", 2)); err != nil {
		t.Fatal(err)
	}
	if got := len(store.ImagesFor(0)); got != 2 {
		t.Errorf("bucket 0: expected 2, got %d", got)
	}
	if got := len(store.ImagesFor(1)); got != 0 {
		t.Errorf("bucket 1: expected 0, got %d", got)
	}
	if got := len(store.AllImages()); got != 3 {
		t.Errorf("all: expected 3, got %d", got)
	}
	if !store.UpdateImage("i3", SubtypeIssue, nil, &IssueJudgment{IssueCategory: "misattribution"}, "present") {
		t.Error("update image failed")
	}
}

func TestNormalizeRegionClickBecomesPin(t *testing.T) {
	x, y, w, h := NormalizeRegion(50, 50, 0.2, 0.4)
	if w != 5 || h != 5 {
		t.Errorf("expected 5x5 pin, got %gx%g", w, h)
	}
	if x != 47.5 || y != 47.5 {
		t.Errorf("pin should center on click point, got (%g, %g)", x, y)
	}
}

func TestNormalizeRegionClampsToBounds(t *testing.T) {
	x, y, w, h := NormalizeRegion(99, 99, 0, 0)
	if x+w > 100 || y+h > 100 {
		t.Errorf("region exceeds canvas: x=%g w=%g y=%g h=%g", x, w, y, h)
	}
	x, y, w, h = NormalizeRegion(0.5, 0.5, 0.1, 0.1)
	if x < 0 || y < 0 {
		t.Errorf("region has negative origin: (%g, %g)", x, y)
	}
	if w != 5 || h != 5 {
		t.Errorf("clamped click should stay 5x5, got %gx%g", w, h)
	}
}

func TestNormalizeRegionRealDragUntouched(t *testing.T) {
	x, y, w, h := NormalizeRegion(10, 20, 30, 15)
	if x != 10 || y != 20 || w != 30 || h != 15 {
		t.Errorf("real drag should pass through, got (%g,%g %gx%g)", x, y, w, h)
	}
}
