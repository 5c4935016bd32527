package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestParseSearchQuery tests comma-separated query parsing
func TestParseSearchQuery(t *testing.T) {
	tests := []struct {
		name     string
		query    string
		expected []string
	}{
		{
			name:     "Single SKU",
			query:    "ABC-123",
			expected: []string{"ABC-123"},
		},
		{
			name:     "Multiple SKUs with whitespace",
			query:    " ABC-1 , ABC-2 ,ABC-3",
			expected: []string{"ABC-1", "ABC-2", "ABC-3"},
		},
		{
			name:     "Empty parts dropped",
			query:    "ABC-1,, ,ABC-2,",
			expected: []string{"ABC-1", "ABC-2"},
		},
		{
			name:     "Empty query",
			query:    "",
			expected: []string{},
		},
		{
			name:     "Only separators",
			query:    ", , ,",
			expected: []string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, ParseSearchQuery(tt.query))
		})
	}
}

// TestSortProductsBySKU tests numeric-aware SKU ordering
func TestSortProductsBySKU(t *testing.T) {
	products := []Product{
		{SKU: "SKU-10"},
		{SKU: "SKU-2"},
		{SKU: "SKU-1"},
	}

	SortProductsBySKU(products)

	assert.Equal(t, "SKU-1", products[0].SKU)
	assert.Equal(t, "SKU-2", products[1].SKU)
	assert.Equal(t, "SKU-10", products[2].SKU)
}

// TestParseQuantity tests pending-edit eligibility parsing
func TestParseQuantity(t *testing.T) {
	tests := []struct {
		name      string
		value     string
		expected  int
		expectErr bool
	}{
		{name: "Plain integer", value: "42", expected: 42},
		{name: "Zero", value: "0", expected: 0},
		{name: "Trimmed integer", value: " 7 ", expected: 7},
		{name: "Empty", value: "", expectErr: true},
		{name: "Whitespace only", value: "   ", expectErr: true},
		{name: "Non-numeric", value: "abc", expectErr: true},
		{name: "Fractional not coerced", value: "3.5", expectErr: true},
		{name: "Negative", value: "-1", expectErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			qty, err := ParseQuantity(tt.value)
			if tt.expectErr {
				assert.ErrorIs(t, err, ErrInvalidQuantity)
			} else {
				require.NoError(t, err)
				assert.Equal(t, tt.expected, qty)
			}
		})
	}
}

func displayingWorksheet(t *testing.T, products ...Product) *Worksheet {
	t.Helper()
	w := NewWorksheet()
	require.NoError(t, w.BeginSearch("whatever"))
	require.NoError(t, w.SetResults(products))
	return w
}

// TestWorksheetSearchLifecycle tests search state transitions
func TestWorksheetSearchLifecycle(t *testing.T) {
	w := NewWorksheet()
	assert.Equal(t, WorksheetStateIdle, w.State)

	require.NoError(t, w.BeginSearch("SKU-1, SKU-2"))
	assert.Equal(t, WorksheetStateSearching, w.State)
	assert.Equal(t, "SKU-1, SKU-2", w.LastSearch)

	require.NoError(t, w.SetResults([]Product{{SKU: "SKU-2"}, {SKU: "SKU-1"}}))
	assert.Equal(t, WorksheetStateDisplaying, w.State)
	assert.Equal(t, "SKU-1", w.Products[0].SKU)
}

// TestWorksheetFailSearch tests recovery after a failed search
func TestWorksheetFailSearch(t *testing.T) {
	w := NewWorksheet()
	require.NoError(t, w.BeginSearch("SKU-1"))
	w.FailSearch()
	assert.Equal(t, WorksheetStateIdle, w.State)
	assert.Empty(t, w.LastSearch)

	w = displayingWorksheet(t, Product{SKU: "SKU-1"})
	require.NoError(t, w.BeginSearch("SKU-2"))
	w.FailSearch()
	assert.Equal(t, WorksheetStateDisplaying, w.State)
	assert.Equal(t, "whatever", w.LastSearch)
}

// TestWorksheetPendingEdits tests pending edit bookkeeping
func TestWorksheetPendingEdits(t *testing.T) {
	w := displayingWorksheet(t, Product{SKU: "SKU-1"}, Product{SKU: "SKU-2"})

	require.NoError(t, w.SetPendingEdit("SKU-1", "10"))
	require.NoError(t, w.SetPendingEdit("SKU-2", "abc"))
	assert.Len(t, w.PendingEdits, 2)

	// Unknown SKU is rejected
	assert.ErrorIs(t, w.SetPendingEdit("SKU-9", "5"), ErrProductNotInSheet)

	// Empty value removes the edit
	require.NoError(t, w.SetPendingEdit("SKU-2", ""))
	assert.Len(t, w.PendingEdits, 1)
}

// TestWorksheetEligibleEdits tests edit filtering and ordering
func TestWorksheetEligibleEdits(t *testing.T) {
	w := displayingWorksheet(t,
		Product{SKU: "SKU-1"},
		Product{SKU: "SKU-2"},
		Product{SKU: "SKU-10"},
	)

	require.NoError(t, w.SetPendingEdit("SKU-10", "3"))
	require.NoError(t, w.SetPendingEdit("SKU-1", "  5 "))
	require.NoError(t, w.SetPendingEdit("SKU-2", "oops"))

	edits := w.EligibleEdits()
	require.Len(t, edits, 2)
	// Display order, not insertion order
	assert.Equal(t, StockEdit{SKU: "SKU-1", Quantity: 5}, edits[0])
	assert.Equal(t, StockEdit{SKU: "SKU-10", Quantity: 3}, edits[1])
}

// TestWorksheetUpdateLifecycle tests bulk update state transitions
func TestWorksheetUpdateLifecycle(t *testing.T) {
	w := NewWorksheet()
	assert.ErrorIs(t, w.BeginUpdate(), ErrNoProducts)

	w = displayingWorksheet(t, Product{SKU: "SKU-1", StockAmount: 2})
	require.NoError(t, w.SetPendingEdit("SKU-1", "8"))

	require.NoError(t, w.BeginUpdate())
	assert.Equal(t, WorksheetStateUpdating, w.State)
	assert.ErrorIs(t, w.BeginUpdate(), ErrWorksheetBusy)
	assert.ErrorIs(t, w.BeginSearch("SKU-2"), ErrWorksheetBusy)

	w.ApplyStock("SKU-1", 8)
	assert.Equal(t, 8, w.Products[0].StockAmount)
	assert.Empty(t, w.PendingEdits)

	w.FinishUpdate()
	assert.Equal(t, WorksheetStateDisplaying, w.State)
}

// TestWorksheetClear tests idempotent reset
func TestWorksheetClear(t *testing.T) {
	w := displayingWorksheet(t, Product{SKU: "SKU-1"})
	require.NoError(t, w.SetPendingEdit("SKU-1", "4"))

	w.Clear()
	assert.Equal(t, WorksheetStateIdle, w.State)
	assert.Empty(t, w.LastSearch)
	assert.Empty(t, w.Products)
	assert.Empty(t, w.PendingEdits)

	// Clearing again is a no-op
	w.Clear()
	assert.Equal(t, WorksheetStateIdle, w.State)
}
