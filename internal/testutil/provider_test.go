package testutil

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/folio/internal/vfs"
)

func TestCountingProvider_CountsEveryRead(t *testing.T) {
	p := NewCountingProvider(map[string]string{"a.txt": "alpha"})
	ctx := context.Background()

	data, err := p.Read(ctx, vfs.NewID("a.txt"))
	require.NoError(t, err)
	assert.Equal(t, "alpha", string(data))

	_, err = p.Read(ctx, vfs.NewID("a.txt"))
	require.NoError(t, err)

	_, err = p.Read(ctx, vfs.NewID("missing.txt"))
	assert.True(t, vfs.IsNotFound(err))

	assert.Equal(t, 2, p.Count("a.txt"))
	assert.Equal(t, map[string]int{"a.txt": 2, "missing.txt": 1}, p.Counts())
}

func TestCountingProvider_Put(t *testing.T) {
	p := NewCountingProvider(nil)
	p.Put("b.txt", []byte("beta"))

	data, err := p.Read(context.Background(), vfs.NewID("b.txt"))
	require.NoError(t, err)
	assert.Equal(t, "beta", string(data))
}

func TestCountingProvider_CountsAreCopied(t *testing.T) {
	p := NewCountingProvider(nil)
	counts := p.Counts()
	counts["x"] = 9
	assert.Equal(t, 0, p.Count("x"))
}
