package report

import (
	"strings"
	"testing"
	"time"
)

func TestRenderHTML(t *testing.T) {
	html, err := RenderHTML(TemplateData{
		ProjectTitle: "Pilot Project",
		Description:  "First run",
		GeneratedAt:  time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC),
		TaskCount:    3,
		Rows: []AnnotatorRow{
			{Email: "a@example.com", CompletedTasks: 2, TextAnnotations: 14, ImageAnnotations: 3},
		},
	})
	if err != nil {
		t.Fatal(err)
	}

	for _, want := range []string{"Pilot Project", "a@example.com", "3 tasks", "14"} {
		if !strings.Contains(html, want) {
			t.Errorf("report html missing %q", want)
		}
	}
}

func TestRenderHTMLEscapesContent(t *testing.T) {
	html, err := RenderHTML(TemplateData{
		ProjectTitle: `<script>alert("x")</script>`,
		GeneratedAt:  time.Now(),
	})
	if err != nil {
		t.Fatal(err)
	}
	if strings.Contains(html, "<script>alert") {
		t.Error("title should be escaped")
	}
}

func TestRenderHTMLEmptyRows(t *testing.T) {
	html, err := RenderHTML(TemplateData{ProjectTitle: "Empty", GeneratedAt: time.Now()})
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(html, "No annotator activity yet.") {
		t.Error("empty report should show the placeholder row")
	}
}

func TestSanitizeFilename(t *testing.T) {
	cases := map[string]string{
		"Pilot Project":    "Pilot-Project",
		"weird/chars: yes": "weirdchars-yes",
		"":                 "report",
	}
	for in, want := range cases {
		if got := sanitizeFilename(in); got != want {
			t.Errorf("sanitizeFilename(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestPercentEncodeForDataURL(t *testing.T) {
	if got := percentEncodeForDataURL("a b"); got != "a%20b" {
		t.Errorf("space should encode as %%20, got %q", got)
	}
	if got := percentEncodeForDataURL("<p>"); got != "%3Cp%3E" {
		t.Errorf("angle brackets should percent-encode, got %q", got)
	}
}
