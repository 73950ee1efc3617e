package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecordRender_ListRenders(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	in := []Render{
		{Token: "b", Page: "home", Seq: 2, Passes: 2, Stable: true, Size: 10, Fingerprint: "f2"},
		{Token: "a", Page: "about", Seq: 1, Passes: 1, Stable: true, Size: 5, Fingerprint: "f1"},
		{Token: "c", Page: "home", Seq: 3, Passes: 5, Stable: false, Size: 0, Fingerprint: "f3", Error: "boom"},
	}
	for _, r := range in {
		require.NoError(t, s.RecordRender(ctx, r))
	}

	all, err := s.ListRenders(ctx, "")
	require.NoError(t, err)
	assert.Equal(t, []Render{in[1], in[0], in[2]}, all)

	home, err := s.ListRenders(ctx, "home")
	require.NoError(t, err)
	assert.Equal(t, []Render{in[0], in[2]}, home)
}

func TestRecordRender_Idempotent(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	r := Render{Token: "tok", Page: "home", Seq: 1, Passes: 1, Stable: true, Fingerprint: "f"}
	require.NoError(t, s.RecordRender(ctx, r))

	dup := r
	dup.Passes = 4
	require.NoError(t, s.RecordRender(ctx, dup))

	got, err := s.ListRenders(ctx, "home")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, 1, got[0].Passes, "first record wins")
}

func TestRecordRender_EmptyToken(t *testing.T) {
	s := createTestStore(t)
	assert.Error(t, s.RecordRender(context.Background(), Render{Page: "home"}))
}

func TestListRenders_SameSeqOrderedByToken(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.RecordRender(ctx, Render{Token: "z", Page: "p", Seq: 1}))
	require.NoError(t, s.RecordRender(ctx, Render{Token: "m", Page: "p", Seq: 1}))

	got, err := s.ListRenders(ctx, "p")
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "m", got[0].Token)
	assert.Equal(t, "z", got[1].Token)
}

func TestLastSeq(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	seq, err := s.LastSeq(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(0), seq)

	require.NoError(t, s.RecordRender(ctx, Render{Token: "a", Page: "p", Seq: 7}))
	require.NoError(t, s.RecordRender(ctx, Render{Token: "b", Page: "p", Seq: 3}))

	seq, err = s.LastSeq(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(7), seq)
}
