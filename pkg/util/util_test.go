package util

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncodeSHA1(t *testing.T) {
	assert.Equal(t, "da39a3ee5e6b4b0d3255bfef95601890afd80709", EncodeSHA1(""))
	assert.Equal(t, "a9993e364706816aba3e25717850c26c9cd0d89d", EncodeSHA1("abc"))
}

func TestParseDuration(t *testing.T) {
	tests := []struct {
		in   string
		want time.Duration
	}{
		{"30s", 30 * time.Second},
		{"2d", 48 * time.Hour},
		{"15", 15 * time.Second},
		{" 10m ", 10 * time.Minute},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseDuration(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	_, err := ParseDuration("xd")
	assert.Error(t, err)
}

func TestSanitizePathSegment(t *testing.T) {
	assert.Equal(t, "Week 1_ Intro_Basics", SanitizePathSegment("Week 1: Intro/Basics"))
	assert.Equal(t, "_", SanitizePathSegment("  "))
	assert.Equal(t, "_", SanitizePathSegment(".."))
}

func TestJoinContentPath(t *testing.T) {
	assert.Equal(t, "/data/Algebra/slides/old/a.pdf", JoinContentPath("/data", "Algebra", "/slides/old/", "a.pdf"))
	assert.Equal(t, "/data/x/etc", JoinContentPath("/data", "x", "/../etc/"))
}

func TestSliceHelpers(t *testing.T) {
	assert.True(t, InSlice([]int64{1, 2, 3}, 2))
	assert.False(t, InSlice([]int64{}, 2))
	assert.Equal(t, []int64{3, 1, 2}, Unique([]int64{3, 1, 3, 2, 1}))
}
