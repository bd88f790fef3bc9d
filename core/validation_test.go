package core

import (
	"errors"
	"testing"
)

func TestValidateChunk(t *testing.T) {
	tests := []struct {
		name    string
		chunk   *Chunk
		wantErr error
	}{
		{
			name:    "valid chunk",
			chunk:   &Chunk{Text: "본문", Order: 0, Source: "abc"},
			wantErr: nil,
		},
		{
			name:    "valid chunk without source",
			chunk:   &Chunk{Text: "text", Order: 3},
			wantErr: nil,
		},
		{
			name:    "nil chunk",
			chunk:   nil,
			wantErr: ErrInvalidChunk,
		},
		{
			name:    "empty text",
			chunk:   &Chunk{Text: "", Order: 0},
			wantErr: ErrEmptyContent,
		},
		{
			name:    "negative order",
			chunk:   &Chunk{Text: "x", Order: -1},
			wantErr: ErrNegativeOrder,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateChunk(tt.chunk)
			if tt.wantErr == nil {
				if err != nil {
					t.Errorf("ValidateChunk() unexpected error = %v", err)
				}
				return
			}
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("ValidateChunk() error = %v, want %v", err, tt.wantErr)
			}
			if !errors.Is(err, ErrInvalidChunk) {
				t.Errorf("ValidateChunk() error should wrap ErrInvalidChunk")
			}
		})
	}
}

func TestValidateChunks(t *testing.T) {
	ok := []Chunk{{Text: "a", Order: 0}, {Text: "b", Order: 1}}
	if err := ValidateChunks(ok); err != nil {
		t.Errorf("ValidateChunks() unexpected error = %v", err)
	}

	gap := []Chunk{{Text: "a", Order: 0}, {Text: "b", Order: 2}}
	if err := ValidateChunks(gap); !errors.Is(err, ErrInvalidChunk) {
		t.Errorf("ValidateChunks() error = %v, want ErrInvalidChunk", err)
	}

	if err := ValidateChunks(nil); err != nil {
		t.Errorf("ValidateChunks(nil) unexpected error = %v", err)
	}
}
