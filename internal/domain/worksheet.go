package domain

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Errors for the stock reconciliation domain
var (
	ErrWorksheetNotFound = errors.New("worksheet not found")
	ErrWorksheetBusy     = errors.New("worksheet update already in progress")
	ErrNoProducts        = errors.New("worksheet has no products to update")
	ErrProductNotInSheet = errors.New("product is not part of the worksheet")
	ErrEmptyQuery        = errors.New("search query contains no SKU codes")
	ErrInvalidQuantity   = errors.New("quantity is not a non-negative integer")
	ErrNoEligibleEdits   = errors.New("worksheet has no eligible stock edits")
	ErrInvalidTransition = errors.New("invalid worksheet state transition")
)

// WorksheetState represents the lifecycle state of a reconciliation worksheet
type WorksheetState string

const (
	WorksheetStateIdle       WorksheetState = "idle"
	WorksheetStateSearching  WorksheetState = "searching"
	WorksheetStateDisplaying WorksheetState = "displaying"
	WorksheetStateUpdating   WorksheetState = "updating"
)

// Worksheet is a stock reconciliation working set: the last executed
// search, the products it returned, and the operator's pending stock
// edits keyed by SKU. Pending edits are stored as raw strings so that
// in-progress input survives a reload; eligibility is decided only
// when a bulk update starts.
type Worksheet struct {
	ID           string            `bson:"_id" json:"id"`
	State        WorksheetState    `bson:"state" json:"state"`
	LastSearch   string            `bson:"lastSearch" json:"lastSearch"`
	Products     []Product         `bson:"products" json:"products"`
	PendingEdits map[string]string `bson:"pendingEdits" json:"pendingEdits"`
	CreatedAt    time.Time         `bson:"createdAt" json:"createdAt"`
	UpdatedAt    time.Time         `bson:"updatedAt" json:"updatedAt"`

	// prevSearch holds the query to restore when a search fails.
	prevSearch string
}

// NewWorksheet creates an empty worksheet in the idle state
func NewWorksheet() *Worksheet {
	now := time.Now().UTC()
	return &Worksheet{
		ID:           fmt.Sprintf("WS-%s", uuid.New().String()[:8]),
		State:        WorksheetStateIdle,
		PendingEdits: make(map[string]string),
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

// ParseSearchQuery splits a raw comma-separated query into SKU codes.
// Each part is trimmed and empty parts are dropped.
func ParseSearchQuery(query string) []string {
	parts := strings.Split(query, ",")
	skus := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		skus = append(skus, p)
	}
	return skus
}

// BeginSearch moves the worksheet into the searching state. A search may
// start from any state except updating.
func (w *Worksheet) BeginSearch(query string) error {
	if w.State == WorksheetStateUpdating {
		return ErrWorksheetBusy
	}
	w.State = WorksheetStateSearching
	w.prevSearch = w.LastSearch
	w.LastSearch = query
	w.UpdatedAt = time.Now().UTC()
	return nil
}

// SetResults records the products returned for the last search and moves
// the worksheet into the displaying state. Results are sorted by SKU with
// numeric awareness. Pending edits for SKUs no longer present are kept;
// they are filtered at bulk-update time.
func (w *Worksheet) SetResults(products []Product) error {
	if w.State != WorksheetStateSearching {
		return ErrInvalidTransition
	}
	SortProductsBySKU(products)
	w.Products = products
	w.State = WorksheetStateDisplaying
	w.UpdatedAt = time.Now().UTC()
	return nil
}

// FailSearch returns the worksheet to its previous displayable state
// after a failed search. The worksheet keeps showing its previous
// results, so the failed query does not stick as the last search.
func (w *Worksheet) FailSearch() {
	w.LastSearch = w.prevSearch
	if len(w.Products) > 0 {
		w.State = WorksheetStateDisplaying
	} else {
		w.State = WorksheetStateIdle
	}
	w.UpdatedAt = time.Now().UTC()
}

// SetPendingEdit stores the raw edit value for a SKU. The SKU must belong
// to a displayed product. An empty value removes the edit.
func (w *Worksheet) SetPendingEdit(sku, value string) error {
	if !w.hasProduct(sku) {
		return ErrProductNotInSheet
	}
	if w.PendingEdits == nil {
		w.PendingEdits = make(map[string]string)
	}
	if value == "" {
		delete(w.PendingEdits, sku)
	} else {
		w.PendingEdits[sku] = value
	}
	w.UpdatedAt = time.Now().UTC()
	return nil
}

// RemovePendingEdit drops the pending edit for a SKU, if any
func (w *Worksheet) RemovePendingEdit(sku string) {
	delete(w.PendingEdits, sku)
	w.UpdatedAt = time.Now().UTC()
}

// StockEdit is a pending edit that passed eligibility checks
type StockEdit struct {
	SKU      string
	Quantity int
}

// ParseQuantity parses a raw pending-edit value into a stock quantity.
// A value is eligible when, after trimming, it is a non-empty base-10
// integer greater than or equal to zero. Fractional or malformed values
// are rejected rather than coerced.
func ParseQuantity(value string) (int, error) {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return 0, ErrInvalidQuantity
	}
	n, err := strconv.Atoi(trimmed)
	if err != nil || n < 0 {
		return 0, ErrInvalidQuantity
	}
	return n, nil
}

// EligibleEdits returns the pending edits that parse to valid quantities,
// in the worksheet's display order. Edits for SKUs that are no longer
// displayed and edits with ineligible values are skipped.
func (w *Worksheet) EligibleEdits() []StockEdit {
	edits := make([]StockEdit, 0, len(w.PendingEdits))
	for _, p := range w.Products {
		raw, ok := w.PendingEdits[p.SKU]
		if !ok {
			continue
		}
		qty, err := ParseQuantity(raw)
		if err != nil {
			continue
		}
		edits = append(edits, StockEdit{SKU: p.SKU, Quantity: qty})
	}
	return edits
}

// BeginUpdate moves the worksheet into the updating state
func (w *Worksheet) BeginUpdate() error {
	if w.State == WorksheetStateUpdating {
		return ErrWorksheetBusy
	}
	if w.State != WorksheetStateDisplaying || len(w.Products) == 0 {
		return ErrNoProducts
	}
	w.State = WorksheetStateUpdating
	w.UpdatedAt = time.Now().UTC()
	return nil
}

// FinishUpdate returns the worksheet to the displaying state
func (w *Worksheet) FinishUpdate() {
	w.State = WorksheetStateDisplaying
	w.UpdatedAt = time.Now().UTC()
}

// ApplyStock records a confirmed stock quantity on the displayed product
// and drops its pending edit
func (w *Worksheet) ApplyStock(sku string, quantity int) {
	for i := range w.Products {
		if w.Products[i].SKU == sku {
			w.Products[i].StockAmount = quantity
			break
		}
	}
	delete(w.PendingEdits, sku)
	w.UpdatedAt = time.Now().UTC()
}

// Clear resets the worksheet to its initial state. Clearing an already
// empty worksheet is a no-op.
func (w *Worksheet) Clear() {
	w.State = WorksheetStateIdle
	w.LastSearch = ""
	w.prevSearch = ""
	w.Products = nil
	w.PendingEdits = make(map[string]string)
	w.UpdatedAt = time.Now().UTC()
}

func (w *Worksheet) hasProduct(sku string) bool {
	for i := range w.Products {
		if w.Products[i].SKU == sku {
			return true
		}
	}
	return false
}
