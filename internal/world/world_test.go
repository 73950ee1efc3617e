package world

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	promtestutil "github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/folio/internal/compiler"
	"github.com/roach88/folio/internal/engine"
	"github.com/roach88/folio/internal/ir"
	"github.com/roach88/folio/internal/memo"
	"github.com/roach88/folio/internal/testutil"
	"github.com/roach88/folio/internal/vfs"
)

func fixedClock() time.Time { return testutil.FixedDate }

func newWorld(t *testing.T, main string, p *testutil.CountingProvider, opts ...Option) *World {
	t.Helper()
	opts = append([]Option{WithClock(fixedClock), WithProvider(p)}, opts...)
	w := New("main.fol", opts...)
	w.WriteSource("main.fol", main)
	return w
}

func render(t *testing.T, w *World) string {
	t.Helper()
	out, err := w.Render(context.Background())
	require.NoError(t, err)
	return string(out)
}

// ============================================================================
// Memoization across and within builds
// ============================================================================

func TestUnchangedInputIsReusedAcrossBuilds(t *testing.T) {
	p := testutil.NewCountingProvider(map[string]string{"part.fol": "shared text"})
	w := newWorld(t, `#include "part.fol"`, p)
	ctx := context.Background()
	part := vfs.NewID("part.fol")

	first := render(t, w)
	src1, err := w.source(ctx, part)
	require.NoError(t, err)

	second := render(t, w)
	src2, err := w.source(ctx, part)
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Same(t, src1, src2, "unchanged input must keep its derived value")
	assert.Equal(t, 1, src2.Revision())
	assert.Equal(t, 1, p.Count("part.fol"), "provider is called once across builds")
}

func TestTwoReferencesInOneBuildLoadOnce(t *testing.T) {
	p := testutil.NewCountingProvider(map[string]string{"part.fol": "x"})
	w := newWorld(t, "#include \"part.fol\"\n#include \"part.fol\"", p)

	out := render(t, w)
	assert.Contains(t, out, "x\n\nx\n")
	assert.Equal(t, 1, p.Count("part.fol"))

	stats := w.Stats()
	assert.Equal(t, 1, stats.Sources.Hits, "second include is served from the slot")
	assert.Equal(t, memo.Stats{Hits: 1, Unchanged: 1, Derived: 2}, stats.Sources)
}

func TestWriteForcesReload(t *testing.T) {
	w := newWorld(t, `#lines "data.txt"`, testutil.NewCountingProvider(nil))
	data := vfs.NewID("data.txt")

	w.Write("data.txt", []byte("one"))
	assert.Contains(t, render(t, w), "\none\n")
	assert.Equal(t, 1, w.Stats().Files.Loads())

	w.Write("data.txt", []byte("two"))
	assert.False(t, w.files.Accessed(data), "write must clear the slot immediately")

	assert.Contains(t, render(t, w), "\ntwo\n")
	stats := w.Stats().Files
	assert.Equal(t, 2, stats.Loads())
	assert.Equal(t, 2, stats.Derived)
}

func TestWriteCopiesInput(t *testing.T) {
	w := newWorld(t, `#lines "data.txt"`, testutil.NewCountingProvider(nil))
	buf := []byte("before")
	w.Write("data.txt", buf)
	copy(buf, "after!")

	assert.Contains(t, render(t, w), "\nbefore\n")
}

func TestUnchangedWriteIsNotRederived(t *testing.T) {
	w := newWorld(t, `#lines "data.txt"`, testutil.NewCountingProvider(nil))
	w.Write("data.txt", []byte("same"))
	render(t, w)
	w.Write("data.txt", []byte("same"))
	render(t, w)

	stats := w.Stats().Files
	assert.Equal(t, 2, stats.Loads())
	assert.Equal(t, 1, stats.Derived)
	assert.Equal(t, 1, stats.Unchanged)
}

func TestMissingInputErrorIsCached(t *testing.T) {
	p := testutil.NewCountingProvider(nil)
	w := newWorld(t, `#image "missing"`, p)
	ctx := context.Background()

	_, err1 := w.Render(ctx)
	require.Error(t, err1)
	assert.True(t, engine.IsResolveError(err1))
	assert.Equal(t, 1, p.Count("missing"))

	_, err2 := w.Render(ctx)
	require.Error(t, err2)
	assert.Equal(t, 1, p.Count("missing"), "a stable NotFound must not hit the provider again")

	assert.Equal(t, engine.DiagnosticsOf(err1), engine.DiagnosticsOf(err2))
	assert.Contains(t, engine.DiagnosticsOf(err2)[0].Message, "file not found: missing")
}

func TestMissingInputAppearsAfterWrite(t *testing.T) {
	p := testutil.NewCountingProvider(nil)
	w := newWorld(t, `#image "logo.png"`, p)

	_, err := w.Render(context.Background())
	require.Error(t, err)

	w.Write("logo.png", []byte("1234"))
	assert.Contains(t, render(t, w), "[image logo.png, 4 bytes]")
	assert.Equal(t, 1, p.Count("logo.png"))
}

func TestRefreshConsultsProviderAgain(t *testing.T) {
	p := testutil.NewCountingProvider(map[string]string{"data.txt": "v1"})
	w := newWorld(t, `#lines "data.txt"`, p)

	assert.Contains(t, render(t, w), "\nv1\n")
	p.Put("data.txt", []byte("v2"))
	assert.Contains(t, render(t, w), "\nv1\n", "provider results are kept until Refresh")

	w.Refresh()
	assert.Contains(t, render(t, w), "\nv2\n")
	assert.Equal(t, 2, p.Count("data.txt"))
	assert.Equal(t, 2, w.Stats().ProviderReads)
}

func TestCancelledReadIsNotRemembered(t *testing.T) {
	calls := 0
	p := vfs.ProviderFunc(func(ctx context.Context, id vfs.ID) ([]byte, error) {
		calls++
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		return []byte("v1"), nil
	})
	w := newWorld(t, `#lines "data.txt"`, nil, WithProvider(p))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := w.Render(ctx)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "context canceled")

	assert.Contains(t, render(t, w), "\nv1\n")
	assert.Equal(t, 2, calls)

	// A completed read is remembered as usual.
	render(t, w)
	assert.Equal(t, 2, calls)
}

func TestDeadlineExceededReadIsNotRemembered(t *testing.T) {
	fail := true
	p := vfs.ProviderFunc(func(ctx context.Context, id vfs.ID) ([]byte, error) {
		if fail {
			return nil, &vfs.FileError{Kind: vfs.KindIo, Path: id.Path, Err: context.DeadlineExceeded}
		}
		return []byte("late"), nil
	})
	w := newWorld(t, `#lines "data.txt"`, nil, WithProvider(p))

	_, err := w.Render(context.Background())
	require.Error(t, err)

	fail = false
	assert.Contains(t, render(t, w), "\nlate\n")
}

// ============================================================================
// Concurrency
// ============================================================================

func TestConcurrentRendersLoadOnce(t *testing.T) {
	p := testutil.NewCountingProvider(map[string]string{"a.txt": "alpha"})
	p.Slow("a.txt", 50*time.Millisecond)
	w := newWorld(t, `#lines "a.txt"`, p)

	const n = 8
	outs := make([][]byte, n)
	errs := make([]error, n)
	var wg sync.WaitGroup
	for i := range n {
		wg.Add(1)
		go func() {
			defer wg.Done()
			outs[i], errs[i] = w.Render(context.Background())
		}()
	}
	wg.Wait()

	for i := range n {
		require.NoError(t, errs[i])
		assert.Equal(t, outs[0], outs[i])
	}
	assert.Equal(t, 1, p.Count("a.txt"))
	assert.Equal(t, n, w.Stats().Builds)
}

func TestSeparateWorldsShareNothing(t *testing.T) {
	p := testutil.NewCountingProvider(map[string]string{"a.txt": "alpha"})
	w1 := newWorld(t, `#lines "a.txt"`, p)
	w2 := newWorld(t, `#lines "a.txt"`, p)

	render(t, w1)
	render(t, w2)
	assert.Equal(t, 2, p.Count("a.txt"))
}

func TestRenderInputsAreAtomic(t *testing.T) {
	w := newWorld(t, "#meta \"req.yaml\"\nhello {name}", testutil.NewCountingProvider(nil))

	const n = 6
	var wg sync.WaitGroup
	for i := range n {
		wg.Add(1)
		go func() {
			defer wg.Done()
			name := strings.Repeat("x", i+1)
			out, err := w.RenderInputs(context.Background(), Input{Path: "req.yaml", Data: []byte("name: " + name)})
			assert.NoError(t, err)
			assert.Contains(t, string(out), "\nhello "+name+"\n")
		}()
	}
	wg.Wait()
}

// ============================================================================
// Sources
// ============================================================================

func TestWriteSourceRoundTripIsByteIdentical(t *testing.T) {
	const text = "= Title <t>\nPage {page} of {pages}, see @t."
	w := New("m.fol", WithClock(fixedClock))

	w.WriteSource("m.fol", text)
	first := render(t, w)
	w.WriteSource("m.fol", text)
	second := render(t, w)

	assert.Equal(t, first, second)
	src, err := w.source(context.Background(), vfs.NewID("m.fol"))
	require.NoError(t, err)
	assert.Equal(t, 1, src.Revision(), "identical text must not be reparsed")
}

func TestWriteSourceUpdatesInPlace(t *testing.T) {
	w := Single("= One", WithClock(fixedClock))
	ctx := context.Background()
	render(t, w)
	before, err := w.source(ctx, w.Main())
	require.NoError(t, err)

	w.WriteSource("main.fol", "= Two")
	out := render(t, w)
	after, err := w.source(ctx, w.Main())
	require.NoError(t, err)

	assert.Contains(t, out, "title: Two")
	assert.Same(t, before, after)
	assert.Equal(t, 2, after.Revision())
}

func TestSourceMustBeUTF8(t *testing.T) {
	w := New("main.fol", WithClock(fixedClock))
	w.Write("main.fol", []byte{'=', ' ', 0xff})

	_, err := w.Render(context.Background())
	require.Error(t, err)
	assert.Contains(t, engine.DiagnosticsOf(err)[0].Message, "file is not valid utf-8: main.fol")
}

func TestSourcesAreNFCNormalized(t *testing.T) {
	w := Single("= Cafe\u0301", WithClock(fixedClock))
	assert.Contains(t, render(t, w), "title: Caf\u00e9\n")
}

// ============================================================================
// Rendering
// ============================================================================

func TestRenderWithData(t *testing.T) {
	w := newWorld(t, `#lines "data.txt"`, testutil.NewCountingProvider(nil))

	out, err := w.RenderWithData(context.Background(), []byte("hello"))
	require.NoError(t, err)
	assert.Equal(t, "%folio 1\ntitle: \ndate: 2024-05-06\npages: 1\n\n--- page 1 ---\nhello\n", string(out))
}

func TestRenderWithCustomDataPath(t *testing.T) {
	w := newWorld(t, `#lines "in/req.txt"`, testutil.NewCountingProvider(nil), WithDataPath("in/req.txt"))

	out, err := w.RenderWithData(context.Background(), []byte("custom"))
	require.NoError(t, err)
	assert.Contains(t, string(out), "\ncustom\n")
}

func TestMakeRegistersSourcesAndFiles(t *testing.T) {
	w := Make("main.fol", map[string][]byte{
		"main.fol":   []byte("= Doc\n#include \"ch/one.fol\"\n#lines \"notes.txt\""),
		"ch/one.fol": []byte("chapter one"),
		"notes.txt":  []byte("a note"),
	}, WithClock(fixedClock))

	out := render(t, w)
	assert.Contains(t, out, "chapter one")
	assert.Contains(t, out, "a note")
	assert.Equal(t, 2, w.Stats().Sources.Derived, "sources are parsed eagerly by Make")
}

func TestExportErrorIsReturnedVerbatim(t *testing.T) {
	errDiskFull := errors.New("disk full")
	w := Single("x", WithExporter(exporterFunc(func(*ir.Document) ([]byte, error) {
		return nil, errDiskFull
	})))

	_, err := w.Render(context.Background())
	assert.Equal(t, errDiskFull, err)
}

func TestNonConvergentDocumentStillRenders(t *testing.T) {
	d := engine.New(engine.WithMaxPasses(3), engine.WithLayouter(flipLayouter{}))
	w := Single("x", WithDriver(d), WithClock(fixedClock))

	res, err := w.Compile(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 3, res.Passes)
	assert.Equal(t, engine.PhaseExhausted, res.Phase)
	assert.Same(t, res, w.LastBuild())
	assert.Equal(t, "2024-05-06", res.Document.Date)
}

func TestLastBuildKeepsLastSuccess(t *testing.T) {
	w := Single("ok", WithClock(fixedClock))
	assert.Nil(t, w.LastBuild())

	render(t, w)
	ok := w.LastBuild()
	require.NotNil(t, ok)

	w.WriteSource("main.fol", "{broken")
	_, err := w.Render(context.Background())
	require.Error(t, err)
	assert.Same(t, ok, w.LastBuild())
}

func TestTodayIsCreationDate(t *testing.T) {
	w := Single("printed {today}", WithClock(fixedClock))
	assert.Contains(t, render(t, w), "printed 2024-05-06")
}

func TestMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMetrics().MustRegister(reg)
	p := testutil.NewCountingProvider(map[string]string{"a.txt": "a"})
	w := newWorld(t, "#lines \"a.txt\"\n#image \"gone.png\"", p, WithMetrics(m))

	_, err := w.Render(context.Background())
	require.Error(t, err)

	assert.Equal(t, 1.0, promtestutil.ToFloat64(m.reads.WithLabelValues("ok")))
	assert.Equal(t, 1.0, promtestutil.ToFloat64(m.reads.WithLabelValues("not_found")))
	assert.Equal(t, 1.0, promtestutil.ToFloat64(m.lookups.WithLabelValues("sources", "unchanged")))
	assert.Equal(t, 2.0, promtestutil.ToFloat64(m.lookups.WithLabelValues("files", "derived")))
}

type exporterFunc func(*ir.Document) ([]byte, error)

func (f exporterFunc) Export(doc *ir.Document) ([]byte, error) { return f(doc) }

// flipLayouter alternates its page count so layout never settles.
type flipLayouter struct{}

func (flipLayouter) Layout(_ context.Context, _ *compiler.Content, state *compiler.Introspection) (*compiler.Pass, error) {
	var c compiler.Constraint
	n, _ := c.Pages(state)
	return &compiler.Pass{
		Document:      &ir.Document{Pages: []ir.Page{{Number: 1}}},
		Introspection: compiler.NewIntrospection(n%2+1, nil, nil),
		Constraint:    &c,
	}, nil
}
