package readthrough_test

import (
	"errors"
	"io"
	"strings"
	"testing"

	"marketscope/readthrough"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMissThenHit(t *testing.T) {
	rt := readthrough.New(t.TempDir(), "IN-")

	_, _, err := rt.Get("https://api.example.com/v1/search?q=top")
	assert.True(t, errors.Is(err, readthrough.ErrMiss))

	body := io.NopCloser(strings.NewReader(`{"ok":true}`))
	r, hash, err := rt.Set("https://api.example.com/v1/search?q=top", body)
	require.NoError(t, err)
	stored, err := io.ReadAll(r)
	require.NoError(t, err)
	assert.Equal(t, `{"ok":true}`, string(stored))

	r2, hash2, err := rt.Get("https://api.example.com/v1/search?q=top")
	require.NoError(t, err)
	defer r2.Close()
	assert.Equal(t, hash, hash2)
	cached, err := io.ReadAll(r2)
	require.NoError(t, err)
	assert.Equal(t, `{"ok":true}`, string(cached))
}

func TestDistinctKeysDistinctFiles(t *testing.T) {
	rt := readthrough.New(t.TempDir(), "")

	_, hashA, err := rt.Set("a", io.NopCloser(strings.NewReader("A")))
	require.NoError(t, err)
	_, hashB, err := rt.Set("b", io.NopCloser(strings.NewReader("B")))
	require.NoError(t, err)
	assert.NotEqual(t, hashA, hashB)

	r, _, err := rt.Get("a")
	require.NoError(t, err)
	defer r.Close()
	got, _ := io.ReadAll(r)
	assert.Equal(t, "A", string(got))
}
