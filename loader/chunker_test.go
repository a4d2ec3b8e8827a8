package loader

import (
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"voicerag/types"
)

func numberedWords(n int) string {
	words := make([]string, n)
	for i := range words {
		words[i] = fmt.Sprintf("w%d", i)
	}
	return strings.Join(words, " ")
}

func TestSplitChunkCount(t *testing.T) {
	tests := []struct {
		words, size, overlap, want int
	}{
		{0, 500, 50, 0},
		{1, 500, 50, 1},
		{10, 500, 50, 1},
		{450, 500, 50, 1},
		{451, 500, 50, 2},
		{1200, 500, 50, 3},
		{100, 10, 0, 10},
		{101, 10, 0, 11},
		{25, 10, 9, 25},
	}
	for _, tt := range tests {
		t.Run(fmt.Sprintf("%d/%d/%d", tt.words, tt.size, tt.overlap), func(t *testing.T) {
			chunks, err := Split(numberedWords(tt.words), tt.size, tt.overlap)
			require.NoError(t, err)
			assert.Len(t, chunks, tt.want)
		})
	}
}

func TestSplitWindowsAndOverlap(t *testing.T) {
	chunks, err := Split(numberedWords(1200), DefaultChunkSize, DefaultOverlap)
	require.NoError(t, err)
	require.Len(t, chunks, 3)

	ranges := [][2]int{{0, 500}, {450, 950}, {900, 1200}}
	for i, r := range ranges {
		words := strings.Fields(chunks[i])
		assert.LessOrEqual(t, len(words), DefaultChunkSize)
		assert.Equal(t, fmt.Sprintf("w%d", r[0]), words[0])
		assert.Equal(t, fmt.Sprintf("w%d", r[1]-1), words[len(words)-1])
	}

	for i := 1; i < len(chunks); i++ {
		prev := strings.Fields(chunks[i-1])
		cur := strings.Fields(chunks[i])
		assert.Equal(t, prev[len(prev)-DefaultOverlap:], cur[:DefaultOverlap])
	}
}

func TestSplitNormalizesWhitespace(t *testing.T) {
	chunks, err := Split("  alpha\tbeta\n\ngamma   ", 500, 50)
	require.NoError(t, err)
	assert.Equal(t, []string{"alpha beta gamma"}, chunks)
}

func TestSplitEmpty(t *testing.T) {
	chunks, err := Split(" \n\t ", 500, 50)
	require.NoError(t, err)
	assert.Empty(t, chunks)
}

func TestSplitRejectsBadConfig(t *testing.T) {
	for _, c := range [][2]int{{500, 500}, {500, 600}, {0, 0}, {10, -1}} {
		_, err := Split("some text", c[0], c[1])
		require.Error(t, err)
		assert.True(t, errors.Is(err, types.ErrInvalidChunkConfig), "%v", c)
	}
}
