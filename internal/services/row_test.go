package services

import (
	"testing"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Text returns a string cell.
func Text(s string) Cell { return Cell{text: s} }

// Number returns a numeric cell.
func Number(f float64) Cell { return Cell{num: f, isNum: true} }

func TestRow_UnmarshalMixedCells(t *testing.T) {
	var rows []Row
	require.NoError(t, json.Unmarshal([]byte(`[{"sicilNo": 1001, "fullName": " Ali Veli ", "durationMin": 90.5, "x": null, "y": true}]`), &rows))
	require.Len(t, rows, 1)
	r := rows[0]
	assert.Equal(t, "1001", r.Str("sicilNo"))
	assert.Equal(t, "Ali Veli", r.Str("fullName"))
	assert.Equal(t, "90.5", r.Str("durationMin"))
	assert.Equal(t, "", r.Str("x"))
	assert.Equal(t, "true", r.Str("y"))
	assert.Equal(t, "", r.Str("missing"))

	f, ok := r["durationMin"].Float()
	assert.True(t, ok)
	assert.Equal(t, 90.5, f)
}

func TestCell_Float(t *testing.T) {
	f, ok := Text("45,5").Float()
	assert.True(t, ok)
	assert.Equal(t, 45.5, f)

	_, ok = Text("abc").Float()
	assert.False(t, ok)
	_, ok = Text("").Float()
	assert.False(t, ok)
}

func TestParseDate(t *testing.T) {
	tests := []struct {
		in      Cell
		want    string
		wantErr bool
	}{
		{Text("2024-03-15"), "2024-03-15", false},
		{Text("15.03.2024"), "2024-03-15", false},
		{Text("5.3.2024"), "2024-03-05", false},
		{Text("15/03/2024"), "2024-03-15", false},
		{Text("2024-03-15T00:00:00Z"), "2024-03-15", false},
		{Number(45366), "2024-03-15", false},
		{Text("45366"), "2024-03-15", false},
		{Number(1), "1899-12-31", false},
		{Text(""), "", true},
		{Text("yarın"), "", true},
		{Number(0), "", true},
	}
	for _, tt := range tests {
		got, err := ParseDate(tt.in)
		if tt.wantErr {
			assert.Error(t, err, "input %v", tt.in)
			continue
		}
		require.NoError(t, err, "input %v", tt.in)
		assert.Equal(t, tt.want, got, "input %v", tt.in)
	}
}

func TestParseClock(t *testing.T) {
	tests := []struct {
		in      Cell
		want    string
		wantErr bool
	}{
		{Text("09:30"), "09:30", false},
		{Text("9:05"), "09:05", false},
		{Text("14:45:00"), "14:45", false},
		{Number(0.5), "12:00", false},
		{Number(0.75), "18:00", false},
		{Number(45366.375), "09:00", false},
		{Text("0.25"), "06:00", false},
		{Text(""), "", false},
		{Text("25:00"), "", true},
		{Number(-1), "", true},
	}
	for _, tt := range tests {
		got, err := ParseClock(tt.in)
		if tt.wantErr {
			assert.Error(t, err, "input %v", tt.in)
			continue
		}
		require.NoError(t, err, "input %v", tt.in)
		assert.Equal(t, tt.want, got, "input %v", tt.in)
	}
}
