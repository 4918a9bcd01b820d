package domain

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKind(t *testing.T) {
	tests := []struct {
		err  error
		want string
	}{
		{fmt.Errorf("%w: report.pdf", ErrNotFound), "NotFound"},
		{fmt.Errorf("load: %w", fmt.Errorf("%w: .txt", ErrUnsupportedFormat)), "UnsupportedFormat"},
		{fmt.Errorf("%w: timeout", ErrEmbeddingService), "EmbeddingServiceError"},
		{ErrEmptyIndex, "EmptyIndex"},
		{errors.New("boom"), "Internal"},
	}
	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			assert.Equal(t, tt.want, Kind(tt.err))
		})
	}
}

func TestChunkCore(t *testing.T) {
	c := Chunk{Text: "你好世界abc", OverlapStart: 2}
	assert.Equal(t, "世界abc", c.Core())

	c.OverlapStart = 10
	assert.Equal(t, "", c.Core())
}
