package application

import (
	"time"

	"github.com/supportops/operations-service/internal/domain"
)

// SearchCommand starts a worksheet search from a raw comma-separated query
type SearchCommand struct {
	Query string `json:"query" binding:"required"`
}

// PendingEditCommand sets one pending stock edit. Value is kept as a raw
// string; eligibility is only decided when the bulk update runs.
type PendingEditCommand struct {
	Value string `json:"value"`
}

// WorksheetDTO is the API view of a reconciliation worksheet
type WorksheetDTO struct {
	ID           string            `json:"id"`
	State        string            `json:"state"`
	LastSearch   string            `json:"lastSearch"`
	Products     []domain.Product  `json:"products"`
	PendingEdits map[string]string `json:"pendingEdits"`
	UpdatedAt    time.Time         `json:"updatedAt"`
}

// ToWorksheetDTO converts a worksheet to its API view
func ToWorksheetDTO(w *domain.Worksheet) *WorksheetDTO {
	products := w.Products
	if products == nil {
		products = []domain.Product{}
	}
	edits := w.PendingEdits
	if edits == nil {
		edits = map[string]string{}
	}
	return &WorksheetDTO{
		ID:           w.ID,
		State:        string(w.State),
		LastSearch:   w.LastSearch,
		Products:     products,
		PendingEdits: edits,
		UpdatedAt:    w.UpdatedAt,
	}
}

// BulkUpdateReportDTO is the per-batch accounting of a sequential stock
// update run
type BulkUpdateReportDTO struct {
	Attempted  int      `json:"attempted"`
	Succeeded  int      `json:"succeeded"`
	Failed     int      `json:"failed"`
	FailedSKUs []string `json:"failedSkus,omitempty"`
}

// CreateSessionCommand opens a verification session
type CreateSessionCommand struct {
	Mode string `json:"mode" binding:"required,oneof=local remote"`
}

// Submission sources accepted by the verification workflow
const (
	SourceManual = "manual"
	SourceScan   = "scan"
)

// SubmitCodeCommand submits one code for classification
type SubmitCodeCommand struct {
	Code   string `json:"code" binding:"required,verification_code"`
	Source string `json:"source" binding:"omitempty,oneof=manual scan"`
}

// SessionDTO is the API view of a verification session
type SessionDTO struct {
	ID         string              `json:"id"`
	Mode       string              `json:"mode"`
	Records    []domain.ScanRecord `json:"records"`
	LastResult *domain.ScanRecord  `json:"lastResult,omitempty"`
	CreatedAt  time.Time           `json:"createdAt"`
	UpdatedAt  time.Time           `json:"updatedAt"`
}

// ToSessionDTO converts a session to its API view
func ToSessionDTO(s *domain.Session) *SessionDTO {
	records := s.Records
	if records == nil {
		records = []domain.ScanRecord{}
	}
	return &SessionDTO{
		ID:         s.ID,
		Mode:       string(s.Mode),
		Records:    records,
		LastResult: s.LastResult(),
		CreatedAt:  s.CreatedAt,
		UpdatedAt:  s.UpdatedAt,
	}
}

// SessionReportDTO is the printable projection of a session's scan log
type SessionReportDTO struct {
	SessionID string              `json:"sessionId"`
	Mode      string              `json:"mode"`
	Total     int                 `json:"total"`
	Lines     []domain.ReportLine `json:"lines"`
}

// OpenOrdersSummaryDTO is the dashboard view of open orders per
// marketplace account
type OpenOrdersSummaryDTO struct {
	Total     int                     `json:"total"`
	ByAccount []domain.OpenOrderCount `json:"byAccount"`
}
