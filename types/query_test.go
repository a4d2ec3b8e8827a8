package types

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChatParamsValidate(t *testing.T) {
	errs := Validate(&ChatParams{})
	require.Len(t, errs, 1)
	assert.Equal(t, "failed on 'required' tag", errs["Query"])

	assert.Empty(t, Validate(&ChatParams{Query: "hi"}))
}

func TestDocTypeFromName(t *testing.T) {
	tests := []struct {
		name string
		want DocType
		ok   bool
	}{
		{"report.PDF", DocPDF, true},
		{"notes.docx", DocDOCX, true},
		{"a.b.txt", DocTXT, true},
		{"song.mp3", "", false},
		{"noext", "", false},
	}
	for _, tt := range tests {
		got, ok := DocTypeFromName(tt.name)
		assert.Equal(t, tt.ok, ok, tt.name)
		assert.Equal(t, tt.want, got, tt.name)
	}
}
