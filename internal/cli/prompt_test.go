package cli

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPrompter_Ask(t *testing.T) {
	var out bytes.Buffer
	p := NewPrompter(strings.NewReader("  me@example.com \nhunter22"), &out)

	email, err := p.Ask("Email:")
	require.NoError(t, err)
	assert.Equal(t, "me@example.com", email)
	assert.Contains(t, out.String(), "Email:")

	// Not a terminal, so the secret is read as a plain line.
	password, err := p.AskSecret("Password:")
	require.NoError(t, err)
	assert.Equal(t, "hunter22", password)

	_, err = p.Ask("More:")
	assert.ErrorIs(t, err, ErrNoInput)
}
