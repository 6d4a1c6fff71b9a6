// Package span holds the annotation data model: character-range judgments on
// task text and normalized region judgments on task images, together with
// the overlap policy and the paragraph-local/document-global offset mapping.
package span

import (
	"errors"
	"fmt"
	"time"
)

type AnnotationType string

const (
	TypeManual    AnnotationType = "manual"
	TypeSuggested AnnotationType = "ai"
)

type Subtype string

const (
	SubtypeCulture Subtype = "culture"
	SubtypeIssue   Subtype = "issue"
)

type Shape string

const (
	ShapeRect   Shape = "rect"
	ShapeCircle Shape = "circle"
)

var (
	ErrOverlap      = errors.New("span overlaps an existing annotation")
	ErrInvalidRange = errors.New("invalid span range")
)

// CultureJudgment carries the fields of a culture-marker annotation.
type CultureJudgment struct {
	CultureProxy           string `json:"cultureProxy,omitempty"`
	Comment                string `json:"comment,omitempty"`
	Important              bool   `json:"important"`
	IsRelevant             bool   `json:"isRelevant"`
	RelevantJustification  string `json:"relevantJustification,omitempty"`
	IsSupported            bool   `json:"isSupported"`
	SupportedJustification string `json:"supportedJustification,omitempty"`
}

// IssueJudgment carries the fields of an issue annotation.
type IssueJudgment struct {
	IssueCategory    string `json:"issueCategory"`
	IssueDescription string `json:"issueDescription,omitempty"`
}

// TextAnnotation is a judgment attached to a half-open character range
// [Start, End) of a task's full text. Offsets are always document-global;
// Text is a snapshot of the substring at creation time and is not re-derived
// if the task text later changes.
type TextAnnotation struct {
	ID        string           `json:"id"`
	TaskID    string           `json:"taskId"`
	UserEmail string           `json:"userEmail"`
	Start     int              `json:"start"`
	End       int              `json:"end"`
	Text      string           `json:"text"`
	Type      AnnotationType   `json:"type"`
	Subtype   Subtype          `json:"subtype"`
	Culture   *CultureJudgment `json:"culture,omitempty"`
	Issue     *IssueJudgment   `json:"issue,omitempty"`
	UpdatedAt time.Time        `json:"updatedAt"`
}

// ImageAnnotation is a judgment attached to a region of the image shown with
// a paragraph. Coordinates are percentages (0-100) of the rendered image box,
// never pixels, so the region stays valid across render sizes.
type ImageAnnotation struct {
	ID             string           `json:"id"`
	TaskID         string           `json:"taskId"`
	UserEmail      string           `json:"userEmail"`
	ParagraphIndex int              `json:"paragraphIndex"`
	Shape          Shape            `json:"shape"`
	X              float64          `json:"x"`
	Y              float64          `json:"y"`
	Width          float64          `json:"width"`
	Height         float64          `json:"height"`
	Presence       string           `json:"presence,omitempty"`
	Subtype        Subtype          `json:"subtype"`
	Culture        *CultureJudgment `json:"culture,omitempty"`
	Issue          *IssueJudgment   `json:"issue,omitempty"`
	UpdatedAt      time.Time        `json:"updatedAt"`
}

// Validate checks the range and that exactly the payload matching the
// subtype is set. A culture annotation must not carry issue fields and vice
// versa.
func (a TextAnnotation) Validate() error {
	if a.Start < 0 || a.End <= a.Start {
		return fmt.Errorf("%w: [%d, %d)", ErrInvalidRange, a.Start, a.End)
	}
	return validatePayload(a.Subtype, a.Culture, a.Issue)
}

func (a ImageAnnotation) Validate() error {
	if a.Shape != ShapeRect && a.Shape != ShapeCircle {
		return fmt.Errorf("unknown shape %q", a.Shape)
	}
	return validatePayload(a.Subtype, a.Culture, a.Issue)
}

func validatePayload(subtype Subtype, culture *CultureJudgment, issue *IssueJudgment) error {
	switch subtype {
	case SubtypeCulture:
		if culture == nil {
			return errors.New("culture annotation missing culture judgment")
		}
		if issue != nil {
			return errors.New("culture annotation carries issue fields")
		}
	case SubtypeIssue:
		if issue == nil {
			return errors.New("issue annotation missing issue judgment")
		}
		if culture != nil {
			return errors.New("issue annotation carries culture fields")
		}
	default:
		return fmt.Errorf("unknown subtype %q", subtype)
	}
	return nil
}
