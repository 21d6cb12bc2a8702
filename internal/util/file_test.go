package util

import (
	"bytes"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var pngHeader = []byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1a, '\n', 0, 0, 0, 0x0d, 'I', 'H', 'D', 'R'}

func TestSniffMimeTypeKeepsContent(t *testing.T) {
	payload := append(append([]byte{}, pngHeader...), bytes.Repeat([]byte{1}, 2000)...)

	mime, r, err := SniffMimeType(bytes.NewReader(payload), AllowedImageTypes)
	require.NoError(t, err)
	assert.Equal(t, "image/png", mime)

	got, err := io.ReadAll(r)
	require.NoError(t, err)
	assert.Equal(t, payload, got)
}

func TestSniffMimeTypeRejects(t *testing.T) {
	_, _, err := SniffMimeType(bytes.NewReader([]byte("plain text")), AllowedImageTypes)
	assert.Error(t, err)
}

func TestHasAllowedExtension(t *testing.T) {
	assert.True(t, HasAllowedExtension("diagram.PNG", AllowedImageExtensions))
	assert.False(t, HasAllowedExtension("notes.pdf", AllowedImageExtensions))
}
