package api

import "github.com/starford/doclife/internal/models"

// ApplyRequest is the request body for POST /api/apply.
type ApplyRequest struct {
	Range  string `json:"range" example:"main..HEAD"`
	DryRun bool   `json:"dry_run" example:"false"`
}

// FoldersRequest is the request body for POST /api/folders.
type FoldersRequest struct {
	Dir string `json:"dir" example:"docs/design" validate:"required"`
}

// DocumentListResponse wraps the managed document listing.
type DocumentListResponse struct {
	Documents []string `json:"documents" validate:"required"`
	Total     int      `json:"total" example:"12" validate:"required"`
}

// ScanResponse is the full per-document scan (aliased from the domain layer).
type ScanResponse = models.ScanResult

// ReportResponse is the aggregated report (aliased from the domain layer).
type ReportResponse = models.Report

// ApplyResponse is the outcome of a plan or apply (aliased from the domain layer).
type ApplyResponse = models.ApplyResult
