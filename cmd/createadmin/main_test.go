package main

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func envWith(vals map[string]string) func(string) string {
	return func(k string) string { return vals[k] }
}

func TestReadPassword_FromEnv(t *testing.T) {
	p, err := readPassword(envWith(map[string]string{"ADMIN_PASSWORD": "s3cret"}), strings.NewReader("ignored\n"))
	require.NoError(t, err)
	assert.Equal(t, "s3cret", p)
}

func TestReadPassword_FromStdin(t *testing.T) {
	p, err := readPassword(envWith(nil), strings.NewReader("from-pipe\r\nsecond line\n"))
	require.NoError(t, err)
	assert.Equal(t, "from-pipe", p)

	p, err = readPassword(envWith(nil), strings.NewReader("no-newline"))
	require.NoError(t, err)
	assert.Equal(t, "no-newline", p)
}

func TestReadPassword_Missing(t *testing.T) {
	_, err := readPassword(envWith(nil), strings.NewReader(""))
	assert.ErrorContains(t, err, "ADMIN_PASSWORD")
}
