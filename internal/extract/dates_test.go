package extract

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeDate(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"full with offset", "D:20240115093045+02'00'", "2024-01-15T09:30:45+02:00"},
		{"full utc marker", "D:20240115093045Z", "2024-01-15T09:30:45Z"},
		{"no offset", "D:20240115093045", "2024-01-15T09:30:45Z"},
		{"date only", "D:20240115", "2024-01-15T00:00:00Z"},
		{"year month", "D:202401", "2024-01-01T00:00:00Z"},
		{"year only", "D:2024", "2024-01-01T00:00:00Z"},
		{"no prefix", "20240115093045", "2024-01-15T09:30:45Z"},
		{"already iso", "2024-01-15T09:30:45Z", "2024-01-15T09:30:45Z"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := NormalizeDate(tt.in)
			require.NotNil(t, got)
			assert.Equal(t, tt.want, *got)
		})
	}
}

func TestNormalizeDate_NulPaddedBuffer(t *testing.T) {
	buf := make([]byte, 256)
	copy(buf, "D:20240115093045Z")

	got := NormalizeDate(string(buf))
	require.NotNil(t, got)
	assert.Equal(t, "2024-01-15T09:30:45Z", *got)

	assert.Nil(t, NormalizeDate(string(make([]byte, 256))))
}

func TestNormalizeDate_Unrecognizable(t *testing.T) {
	for _, in := range []string{"", "   ", "not a date", "D:garbage"} {
		assert.Nil(t, NormalizeDate(in), "input %q", in)
	}
}
