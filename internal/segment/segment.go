// Package segment splits task text into paragraphs while tracking each
// paragraph's character offset in the original text.
package segment

import (
	"regexp"
	"strings"
)

var blankLine = regexp.MustCompile(`\n\s*\n`)

// Paragraph is a non-empty slice of a task's text together with the index
// in the original text where it begins.
type Paragraph struct {
	Text   string `json:"text"`
	Offset int    `json:"offset"`
}

// Split breaks text into blank-line-delimited paragraphs. Empty and
// whitespace-only pieces are dropped. Offsets are recovered by searching the
// original text starting after the previous match, so repeated paragraph
// text resolves to distinct positions. A piece that cannot be located is
// skipped; that should not happen for pieces produced from the same string.
func Split(text string) []Paragraph {
	pieces := blankLine.Split(text, -1)
	paragraphs := make([]Paragraph, 0, len(pieces))
	searchFrom := 0
	for _, piece := range pieces {
		if strings.TrimSpace(piece) == "" {
			continue
		}
		at := strings.Index(text[searchFrom:], piece)
		if at < 0 {
			continue
		}
		offset := searchFrom + at
		paragraphs = append(paragraphs, Paragraph{Text: piece, Offset: offset})
		searchFrom = offset + len(piece)
	}
	return paragraphs
}

// End returns the offset one past the last character of the paragraph.
func (p Paragraph) End() int {
	return p.Offset + len(p.Text)
}

// ImageFor pairs paragraph index i with an image URL, wrapping around when
// there are fewer images than paragraphs.
func ImageFor(images []string, i int) string {
	if len(images) == 0 || i < 0 {
		return ""
	}
	return images[i%len(images)]
}

// AudioFor pairs paragraph index i with an audio URL. Unlike images there is
// no wrap-around; an out-of-range index has no audio.
func AudioFor(audio []string, i int) string {
	if i < 0 || i >= len(audio) {
		return ""
	}
	return audio[i]
}

// Join reassembles paragraph texts with a blank-line separator. This is the
// canonical inverse used when an import carries paragraphs instead of the
// raw text.
func Join(paragraphs []string) string {
	return strings.Join(paragraphs, "\n\n")
}
