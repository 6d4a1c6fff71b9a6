package report

import (
	"bytes"
	"html/template"
	"time"
)

// TemplateData holds the data for the project report template.
type TemplateData struct {
	ProjectTitle string
	Description  string
	GeneratedAt  time.Time
	TaskCount    int
	Rows         []AnnotatorRow
}

// AnnotatorRow summarizes one annotator's progress in the project.
type AnnotatorRow struct {
	Email            string
	CompletedTasks   int
	TextAnnotations  int
	ImageAnnotations int
}

var reportTemplate = template.Must(template.New("report").Funcs(template.FuncMap{
	"formatDate": func(t time.Time) string {
		return t.Format("2006-01-02 15:04")
	},
}).Parse(reportTemplateHTML))

// RenderHTML renders the project report template.
func RenderHTML(data TemplateData) (string, error) {
	var buf bytes.Buffer
	if err := reportTemplate.Execute(&buf, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}

const reportTemplateHTML = `<!DOCTYPE html>
<html>
<head>
  <meta charset="UTF-8">
  <title>{{.ProjectTitle}} - Annotation Report</title>
  <style>
    body { font-family: Arial, sans-serif; line-height: 1.6; max-width: 800px; margin: 2rem auto; }
    h1 { border-bottom: 2px solid #333; padding-bottom: 0.5rem; }
    .meta { color: #666; font-size: 0.9em; margin-bottom: 2rem; }
    table { width: 100%; border-collapse: collapse; }
    th, td { text-align: left; padding: 0.5rem; border-bottom: 1px solid #ddd; }
    th { background: #f5f5f5; }
  </style>
</head>
<body>
  <h1>{{.ProjectTitle}}</h1>
  {{if .Description}}<p>{{.Description}}</p>{{end}}
  <p class="meta">Generated {{formatDate .GeneratedAt}} · {{.TaskCount}} tasks</p>
  <table>
    <tr><th>Annotator</th><th>Completed tasks</th><th>Text annotations</th><th>Image annotations</th></tr>
    {{range .Rows}}
    <tr><td>{{.Email}}</td><td>{{.CompletedTasks}}</td><td>{{.TextAnnotations}}</td><td>{{.ImageAnnotations}}</td></tr>
    {{else}}
    <tr><td colspan="4">No annotator activity yet.</td></tr>
    {{end}}
  </table>
</body>
</html>
`
