package segment

import (
	"strings"
	"testing"
)

func TestSplitBlankLineDelimited(t *testing.T) {
	text := "Hello world.\n\nThis is paragraph two.\n\n\nThird."
	got := Split(text)

	want := []Paragraph{
		{Text: "Hello world.", Offset: 0},
		{Text: "This is paragraph two.", Offset: 14},
		{Text: "Third.", Offset: 39},
	}
	if len(got) != len(want) {
		t.Fatalf("expected %d paragraphs, got %d", len(want), len(got))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("paragraph %d: expected %+v, got %+v", i, want[i], got[i])
		}
	}
}

func TestSplitOffsetsRecoverOriginalText(t *testing.T) {
	cases := []string{
		"single paragraph, no blank lines",
		"a\n\nb\n\nc",
		"repeated\n\nrepeated\n\nrepeated",
		"  \n\nleading blank piece\n\n  \n\ntrailing",
		"tab\n\t\nseparated",
	}
	for _, text := range cases {
		prev := -1
		for _, p := range Split(text) {
			if p.Offset <= prev {
				t.Errorf("Split(%q): offsets not increasing (%d after %d)", text, p.Offset, prev)
			}
			prev = p.Offset
			if text[p.Offset:p.End()] != p.Text {
				t.Errorf("Split(%q): offset %d does not recover %q", text, p.Offset, p.Text)
			}
		}
	}
}

func TestSplitRepeatedParagraphsGetDistinctOffsets(t *testing.T) {
	text := "same\n\nsame"
	got := Split(text)
	if len(got) != 2 {
		t.Fatalf("expected 2 paragraphs, got %d", len(got))
	}
	if got[0].Offset != 0 || got[1].Offset != 6 {
		t.Errorf("expected offsets 0 and 6, got %d and %d", got[0].Offset, got[1].Offset)
	}
}

func TestSplitDegenerateInputs(t *testing.T) {
	if got := Split(""); len(got) != 0 {
		t.Errorf("empty text: expected no paragraphs, got %d", len(got))
	}
	if got := Split("   \n \n\t "); len(got) != 0 {
		t.Errorf("whitespace text: expected no paragraphs, got %d", len(got))
	}
	got := Split("no blank lines here\nstill the same paragraph")
	if len(got) != 1 || got[0].Offset != 0 {
		t.Fatalf("expected single whole-text paragraph, got %+v", got)
	}
}

func TestSplitLengthsBoundedByOriginal(t *testing.T) {
	text := "one\n\ntwo\n\n\n  \n\nthree four five"
	total := 0
	for _, p := range Split(text) {
		total += len(p.Text)
	}
	if total > len(text) {
		t.Errorf("paragraph lengths sum %d exceeds text length %d", total, len(text))
	}
}

func TestImageAndAudioPairing(t *testing.T) {
	images := []string{"a.png", "b.png"}
	if got := ImageFor(images, 0); got != "a.png" {
		t.Errorf("index 0: got %q", got)
	}
	if got := ImageFor(images, 3); got != "b.png" {
		t.Errorf("index 3 should wrap to b.png, got %q", got)
	}
	if got := ImageFor(nil, 0); got != "" {
		t.Errorf("no images: got %q", got)
	}

	audio := []string{"a.mp3"}
	if got := AudioFor(audio, 0); got != "a.mp3" {
		t.Errorf("audio index 0: got %q", got)
	}
	if got := AudioFor(audio, 1); got != "" {
		t.Errorf("audio does not wrap, got %q", got)
	}
}

func TestJoinRoundTripsThroughSplit(t *testing.T) {
	texts := []string{"First.", "Second.", "Third."}
	joined := Join(texts)
	got := Split(joined)
	if len(got) != len(texts) {
		t.Fatalf("expected %d paragraphs, got %d", len(texts), len(got))
	}
	for i, p := range got {
		if p.Text != texts[i] {
			t.Errorf("paragraph %d: expected %q, got %q", i, texts[i], p.Text)
		}
		if !strings.Contains(joined, p.Text) {
			t.Errorf("paragraph %d missing from joined text", i)
		}
	}
}
