package tui

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPrintBanner(t *testing.T) {
	var buf bytes.Buffer
	PrintBanner(&buf, "1.2.3")

	out := buf.String()
	assert.Contains(t, out, "v1.2.3")
	assert.Contains(t, out, `\_/`)
}

func TestNewRenderer(t *testing.T) {
	render := NewRenderer(60)
	out, err := render("**Golden hour** on the pier.")
	require.NoError(t, err)
	assert.Contains(t, out, "Golden hour")
}
