// Package report renders per-project progress reports as PDF.
package report

import (
	"context"
	"fmt"
	"time"
)

// DataStore is the slice of storage the report needs.
type DataStore interface {
	GetProjectInfo(ctx context.Context, projectID string) (ProjectInfo, error)
	ListAnnotatorRows(ctx context.Context, projectID string) ([]AnnotatorRow, error)
}

type ProjectInfo struct {
	Title       string
	Description string
	TaskCount   int
}

type Result struct {
	Data     []byte
	Filename string
	MimeType string
}

type Service struct {
	store DataStore
}

func NewService(store DataStore) *Service {
	return &Service{store: store}
}

// Generate builds the project report and renders it to PDF.
func (s *Service) Generate(ctx context.Context, projectID string) (*Result, error) {
	info, err := s.store.GetProjectInfo(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("get project info: %w", err)
	}

	rows, err := s.store.ListAnnotatorRows(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("list annotator rows: %w", err)
	}

	html, err := RenderHTML(TemplateData{
		ProjectTitle: info.Title,
		Description:  info.Description,
		GeneratedAt:  time.Now(),
		TaskCount:    info.TaskCount,
		Rows:         rows,
	})
	if err != nil {
		return nil, fmt.Errorf("render report template: %w", err)
	}

	pdfData, err := renderPDF(html)
	if err != nil {
		return nil, err
	}

	return &Result{
		Data:     pdfData,
		Filename: sanitizeFilename(info.Title) + ".pdf",
		MimeType: "application/pdf",
	}, nil
}
