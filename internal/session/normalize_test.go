package session_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"weddingplan/internal/session"
)

func TestTitleCase_Idempotent(t *testing.T) {
	once := session.TitleCase("el cortijo de los caballos")
	assert.Equal(t, "El Cortijo De Los Caballos", once)
	assert.Equal(t, once, session.TitleCase(once))
}

func TestTitleCase_LowersShouting(t *testing.T) {
	assert.Equal(t, "Jane's Catering", session.TitleCase("  JANE'S CATERING "))
}

func TestNormalizeNumber(t *testing.T) {
	tests := []struct {
		in   string
		want float64
	}{
		{"1500", 1500},
		{"1,500.50", 1500.5},
		{" 2 000 ", 2000},
		{"-12.5", -12.5},
		{"abc", 0},
		{"", 0},
		{"12abc", 0},
		{"NaN", 0},
		{"Inf", 0},
		{"-Inf", 0},
		{"infinity", 0},
		{"1e400", 0},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, session.NormalizeNumber(tt.in))
		})
	}
}

func TestNormalizeEmail(t *testing.T) {
	assert.Equal(t, "jane@catering.es", session.NormalizeEmail("  Jane@Catering.ES "))
}

func TestFormatDateInput(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"", ""},
		{"2025", "2025"},
		{"20250", "2025-0"},
		{"202501", "2025-01"},
		{"2025011", "2025-01-1"},
		{"20250115", "2025-01-15"},
		{"2025-01-15", "2025-01-15"},
		{"2025/01/15 extra 99", "2025-01-15"},
		{"202501159999", "2025-01-15"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, session.FormatDateInput(tt.in))
		})
	}
}

func TestNormalizeBool(t *testing.T) {
	assert.True(t, session.NormalizeBool("Yes"))
	assert.True(t, session.NormalizeBool("true"))
	assert.False(t, session.NormalizeBool("no"))
	assert.False(t, session.NormalizeBool("maybe"))
}
