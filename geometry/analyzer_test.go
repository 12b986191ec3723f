package geometry

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSupportedUploadExtension(t *testing.T) {
	tests := []struct {
		filename string
		expected bool
	}{
		{"cube.stl", true},
		{"CUBE.STL", true},
		{"model.obj", true},
		{"scan.ply", true},
		{"part.step", true},
		{"part.stp", true},
		{"bracket.iges", true},
		{"bracket.igs", true},
		{"print.3mf", true},
		{"archive.zip", false},
		{"malware.exe", false},
		{"noextension", false},
		{"", false},
	}

	for _, tt := range tests {
		t.Run(tt.filename, func(t *testing.T) {
			assert.Equal(t, tt.expected, SupportedUploadExtension(tt.filename))
		})
	}
}

func TestUnavailableAnalyzer(t *testing.T) {
	analysis, err := UnavailableAnalyzer{}.Analyze([]byte("solid cube"), "cube.stl")
	assert.Nil(t, analysis)
	assert.ErrorIs(t, err, ErrAnalyzerUnavailable)
}
