package main

import (
	"bytes"
	"testing"

	"github.com/giovaniif/vending/infra/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPrintStock(t *testing.T) {
	var out bytes.Buffer

	require.NoError(t, printStock(&out, config.DefaultMachine()))

	text := out.String()
	assert.Contains(t, text, "  1. Cola - £1.50\n")
	assert.Contains(t, text, "  3. Sprite - £1.00\n")
	assert.Contains(t, text, "  £2.00 x 10\n")
	assert.Contains(t, text, "  £0.01 x 10\n")
	assert.Contains(t, text, "Collected: £0.00\n")
}

func TestVersionCommand(t *testing.T) {
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetArgs([]string{"version"})
	defer rootCmd.SetArgs(nil)

	require.NoError(t, rootCmd.Execute())
	assert.Equal(t, "vending version dev\n", out.String())
}
