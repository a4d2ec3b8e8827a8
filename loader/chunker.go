package loader

import (
	"fmt"
	"strings"

	"voicerag/types"
)

const (
	DefaultChunkSize = 500
	DefaultOverlap   = 50
)

// Split cuts text into word windows of chunkSize words. Each window starts
// chunkSize-overlap words after the previous one, so neighbours share overlap
// words and the last window may be shorter.
func Split(text string, chunkSize, overlap int) ([]string, error) {
	if chunkSize <= 0 || overlap < 0 || overlap >= chunkSize {
		return nil, fmt.Errorf("%w: chunk size %d, overlap %d", types.ErrInvalidChunkConfig, chunkSize, overlap)
	}

	words := strings.Fields(text)
	step := chunkSize - overlap

	chunks := make([]string, 0, (len(words)+step-1)/step)
	for start := 0; start < len(words); start += step {
		end := min(start+chunkSize, len(words))
		chunks = append(chunks, strings.Join(words[start:end], " "))
	}
	return chunks, nil
}
