// Package analysis tracks the processing state of uploaded documents. Each
// record is keyed by an analysis id assigned at upload time; pipeline stages
// merge partial field updates into it as they progress.
package analysis

import "context"

// Processing statuses written by the extraction pipeline.
const (
	StatusTextExtractionComplete = "TEXT_EXTRACTION_COMPLETE"
	StatusFailed                 = "FAILED"
)

// Record is the stored state of one analysis.
type Record struct {
	AnalysisID           string `json:"analysisId"`
	Status               string `json:"status"`
	LastUpdatedTimestamp string `json:"lastUpdatedTimestamp"`
	ErrorDetails         string `json:"errorDetails,omitempty"`
	S3Key                string `json:"s3Key,omitempty"`
	FileName             string `json:"fileName,omitempty"`
	UserID               string `json:"userId,omitempty"`
	UserSelectedState    string `json:"userSelectedState,omitempty"`
}

// Update carries the fields to merge into a record. Empty fields are left
// untouched; the store stamps lastUpdatedTimestamp on every apply.
type Update struct {
	Status            string
	ErrorDetails      string
	S3Key             string
	FileName          string
	UserID            string
	UserSelectedState string
}

// RecordStore persists analysis records with partial-field merge semantics.
type RecordStore interface {
	// Apply merges the non-empty fields of u into the record identified by
	// analysisID, creating it if absent.
	Apply(ctx context.Context, analysisID string, u Update) error
}
