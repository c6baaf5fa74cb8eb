package main

import (
	"testing"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseFlags(t *testing.T) {
	opts, err := parseFlags([]string{"--env", "console.env", "-q", "?status=pending", "--repl"})
	require.NoError(t, err)
	assert.Equal(t, "console.env", opts.EnvPath)
	assert.Equal(t, "?status=pending", opts.InitialQuery)
	assert.True(t, opts.Repl)
}

func TestParseFlagsHelpAndErrors(t *testing.T) {
	_, err := parseFlags([]string{"--help"})
	assert.ErrorIs(t, err, pflag.ErrHelp)

	_, err = parseFlags([]string{"extra"})
	assert.ErrorContains(t, err, "unexpected argument: extra")

	_, err = parseFlags([]string{"--bogus"})
	assert.Error(t, err)
}
