package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestNewSession tests mode validation on session creation
func TestNewSession(t *testing.T) {
	tests := []struct {
		name      string
		mode      VerificationMode
		expectErr bool
	}{
		{name: "Local mode", mode: ModeLocal},
		{name: "Remote mode", mode: ModeRemote},
		{name: "Unknown mode", mode: VerificationMode("hybrid"), expectErr: true},
		{name: "Empty mode", mode: VerificationMode(""), expectErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, err := NewSession(tt.mode)
			if tt.expectErr {
				assert.ErrorIs(t, err, ErrInvalidMode)
				assert.Nil(t, s)
			} else {
				require.NoError(t, err)
				assert.Equal(t, tt.mode, s.Mode)
				assert.NotEmpty(t, s.ID)
				assert.Empty(t, s.Records)
			}
		})
	}
}

// TestClassifyOrderStatus tests status text classification
func TestClassifyOrderStatus(t *testing.T) {
	tests := []struct {
		name     string
		status   string
		expected ScanOutcome
	}{
		{name: "Paid", status: "Pago", expected: OutcomeSuccess},
		{name: "Cancelled", status: "Cancelado", expected: OutcomeError},
		{name: "Cancelled uppercase", status: "PEDIDO CANCELADO", expected: OutcomeError},
		{name: "Error", status: "Erro de integração", expected: OutcomeError},
		{name: "Error embedded", status: "processado com ERRO", expected: OutcomeError},
		{name: "Shipped", status: "Enviado", expected: OutcomeSuccess},
		{name: "Empty", status: "", expected: OutcomeSuccess},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, ClassifyOrderStatus(tt.status))
		})
	}
}

// TestSessionAppend tests newest-first log ordering
func TestSessionAppend(t *testing.T) {
	s, err := NewSession(ModeLocal)
	require.NoError(t, err)

	s.Append(ScanRecord{Code: "CODE-1", Status: StatusChecked, Outcome: OutcomeSuccess})
	s.Append(ScanRecord{Code: "CODE-2", Status: StatusChecked, Outcome: OutcomeSuccess})
	s.Append(ScanRecord{Code: "CODE-3", Status: StatusDuplicate, Outcome: OutcomeError})

	require.Len(t, s.Records, 3)
	assert.Equal(t, "CODE-3", s.Records[0].Code)
	assert.Equal(t, "CODE-2", s.Records[1].Code)
	assert.Equal(t, "CODE-1", s.Records[2].Code)
}

// TestSessionHasCode tests duplicate detection
func TestSessionHasCode(t *testing.T) {
	s, err := NewSession(ModeLocal)
	require.NoError(t, err)

	assert.False(t, s.HasCode("CODE-1"))
	s.Append(ScanRecord{Code: "CODE-1", Status: StatusChecked, Outcome: OutcomeSuccess})
	assert.True(t, s.HasCode("CODE-1"))
	assert.False(t, s.HasCode("CODE-2"))
}

// TestSessionRemoveAt tests per-index record removal
func TestSessionRemoveAt(t *testing.T) {
	s, err := NewSession(ModeLocal)
	require.NoError(t, err)
	s.Append(ScanRecord{Code: "CODE-1", Status: StatusChecked, Outcome: OutcomeSuccess})
	s.Append(ScanRecord{Code: "CODE-2", Status: StatusChecked, Outcome: OutcomeSuccess})
	s.Append(ScanRecord{Code: "CODE-3", Status: StatusChecked, Outcome: OutcomeSuccess})

	require.NoError(t, s.RemoveAt(1))
	require.Len(t, s.Records, 2)
	assert.Equal(t, "CODE-3", s.Records[0].Code)
	assert.Equal(t, "CODE-1", s.Records[1].Code)

	assert.ErrorIs(t, s.RemoveAt(-1), ErrRecordOutOfRange)
	assert.ErrorIs(t, s.RemoveAt(2), ErrRecordOutOfRange)
}

// TestSessionClear tests log reset
func TestSessionClear(t *testing.T) {
	s, err := NewSession(ModeRemote)
	require.NoError(t, err)
	s.Append(ScanRecord{Code: "CODE-1", Status: StatusNotFound, Outcome: OutcomeError})

	s.Clear()
	assert.Empty(t, s.Records)

	s.Clear()
	assert.Empty(t, s.Records)
}

// TestSessionReport tests numbered newest-first projection
func TestSessionReport(t *testing.T) {
	s, err := NewSession(ModeRemote)
	require.NoError(t, err)
	s.Append(ScanRecord{Code: "CODE-1", Status: StatusChecked, Outcome: OutcomeSuccess})
	s.Append(ScanRecord{Code: "CODE-2", Status: "Cancelado", Outcome: OutcomeError})

	lines := s.Report()
	require.Len(t, lines, 2)
	assert.Equal(t, 1, lines[0].Number)
	assert.Equal(t, "CODE-2", lines[0].Code)
	assert.Equal(t, "Cancelado", lines[0].Status)
	assert.Equal(t, OutcomeError, lines[0].Outcome)
	assert.False(t, lines[0].At.IsZero())
	assert.Equal(t, 2, lines[1].Number)
	assert.Equal(t, "CODE-1", lines[1].Code)
	assert.Equal(t, StatusChecked, lines[1].Status)
}

// TestSessionLastResult tests the most-recent-scan view
func TestSessionLastResult(t *testing.T) {
	s, err := NewSession(ModeLocal)
	require.NoError(t, err)
	assert.Nil(t, s.LastResult())

	s.Append(ScanRecord{Code: "CODE-1", Status: StatusChecked, Outcome: OutcomeSuccess})
	s.Append(ScanRecord{Code: "CODE-2", Status: StatusDuplicate, Outcome: OutcomeError})

	last := s.LastResult()
	require.NotNil(t, last)
	assert.Equal(t, "CODE-2", last.Code)
}
