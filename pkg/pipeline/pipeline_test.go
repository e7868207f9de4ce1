package pipeline

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	cft "github.com/odvcencio/apitrail/pkg/classfile/classfiletest"
	"github.com/odvcencio/apitrail/pkg/discovery"
	"github.com/odvcencio/apitrail/pkg/metrics"
	"github.com/odvcencio/apitrail/pkg/object"
	"github.com/odvcencio/apitrail/pkg/report"
	"github.com/odvcencio/apitrail/pkg/surface"
)

const widgetReport = "\n+###com/example/Widget\n@1.0\n+#render()V\n+#legacy()V\n@1.1\n-#legacy()V\n@2.0\n*#render()V[deprecated]\n"

func jar(root, group, artifact, release string) string {
	return filepath.Join(root, group, artifact, release, artifact+"-"+release+".jar")
}

// buildRepo lays out com.example&lib with the Widget history and
// org.acme&tools whose only archives are broken.
func buildRepo(t *testing.T) string {
	t.Helper()
	root := t.TempDir()
	lib := func(rel string) string { return jar(root, filepath.Join("com", "example"), "lib", rel) }

	cft.WriteJar(t, lib("1.0"), cft.ClassEntry(cft.PublicClass("com/example/Widget",
		cft.PublicMethod("render", "()V"), cft.PublicMethod("legacy", "()V"))))
	cft.WriteJar(t, lib("1.1"), cft.ClassEntry(cft.PublicClass("com/example/Widget",
		cft.PublicMethod("render", "()V"))))
	cft.WriteJar(t, lib("2.0"), cft.ClassEntry(cft.PublicClass("com/example/Widget",
		cft.Method{Name: "render", Descriptor: "()V", Access: cft.AccPublic, Deprecated: true})),
		cft.Entry{Name: "com/example/Bad.class", Data: []byte{0xCA, 0xFE, 0xBA, 0xBE}})

	broken := jar(root, filepath.Join("org", "acme"), "tools", "1.0")
	require.NoError(t, os.MkdirAll(filepath.Dir(broken), 0o755))
	require.NoError(t, os.WriteFile(broken, []byte("not a jar"), 0o644))
	return root
}

func TestRunWritesReports(t *testing.T) {
	root := buildRepo(t)
	out := filepath.Join(t.TempDir(), "reports")

	sum, err := Run(context.Background(), Options{Root: root, Output: out, Workers: 2, Metrics: metrics.New()})
	require.NoError(t, err)
	assert.Equal(t, "2 components, 2 reports written, 0 failed", sum.String())
	assert.NoError(t, sum.Err())

	data, err := os.ReadFile(filepath.Join(out, "com.example&lib.txt"))
	require.NoError(t, err)
	assert.Equal(t, widgetReport, string(data))

	// Every archive of org.acme&tools failed, so its log is empty but present.
	data, err = os.ReadFile(filepath.Join(out, "org.acme&tools.txt"))
	require.NoError(t, err)
	assert.Empty(t, data)

	require.Len(t, sum.Results, 2)
	assert.Equal(t, discovery.Coordinate{Group: "com.example", Artifact: "lib"}, sum.Results[0].Coordinate)
	assert.Equal(t, 1, sum.Results[0].Stats.DecodeErrors)
	assert.Equal(t, 1, sum.Results[1].Stats.FailedArchive)
}

func TestRunIsDeterministicAcrossWorkerCounts(t *testing.T) {
	root := buildRepo(t)
	var reports []string
	for _, workers := range []int{1, 4} {
		out := t.TempDir()
		_, err := Run(context.Background(), Options{Root: root, Output: out, Workers: workers})
		require.NoError(t, err)
		data, err := os.ReadFile(filepath.Join(out, "com.example&lib.txt"))
		require.NoError(t, err)
		reports = append(reports, string(data))
	}
	assert.Equal(t, reports[0], reports[1])
}

func TestRunWithCacheMatchesUncached(t *testing.T) {
	root := buildRepo(t)
	store := object.NewStore(t.TempDir())
	for i := 0; i < 2; i++ {
		out := t.TempDir()
		sum, err := Run(context.Background(), Options{Root: root, Output: out, Workers: 2, Cache: store})
		require.NoError(t, err)
		data, err := os.ReadFile(filepath.Join(out, "com.example&lib.txt"))
		require.NoError(t, err)
		assert.Equal(t, widgetReport, string(data), "run %d", i)
		if i == 1 {
			assert.Equal(t, 3, sum.Results[0].Stats.Cached)
		}
	}
}

func TestRunDiscoveryErrorIsFatal(t *testing.T) {
	root := buildRepo(t)
	cft.WriteJar(t, filepath.Join(root, "stray", "x.jar"), cft.ClassEntry(cft.PublicClass("X")))

	out := filepath.Join(t.TempDir(), "reports")
	sum, err := Run(context.Background(), Options{Root: root, Output: out, Workers: 1})
	assert.Nil(t, sum)
	assert.True(t, discovery.IsError(err))
	_, statErr := os.Stat(out)
	assert.True(t, os.IsNotExist(statErr), "no output expected after a discovery failure")
}

func TestRunRejectsZeroWorkers(t *testing.T) {
	_, err := Run(context.Background(), Options{Root: t.TempDir(), Output: t.TempDir()})
	assert.Error(t, err)
}

func TestRunCancelled(t *testing.T) {
	root := buildRepo(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	out := t.TempDir()
	sum, err := Run(ctx, Options{Root: root, Output: out, Workers: 2})
	assert.ErrorIs(t, err, context.Canceled)
	require.NotNil(t, sum)
	assert.Equal(t, 2, sum.Failed)
	assert.ErrorIs(t, sum.Err(), context.Canceled)

	entries, err := os.ReadDir(out)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

// durationSamples returns how many component durations m observed.
func durationSamples(t *testing.T, m *metrics.Run) uint64 {
	t.Helper()
	families, err := m.Registry.Gather()
	require.NoError(t, err)
	for _, f := range families {
		if f.GetName() == "apitrail_component_duration_seconds" {
			require.Len(t, f.GetMetric(), 1)
			return f.GetMetric()[0].GetHistogram().GetSampleCount()
		}
	}
	t.Fatal("component duration histogram not registered")
	return 0
}

func TestRunCancelledSkipsDuration(t *testing.T) {
	root := buildRepo(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	m := metrics.New()
	sum, err := Run(ctx, Options{Root: root, Output: t.TempDir(), Workers: 2, Metrics: m})
	assert.ErrorIs(t, err, context.Canceled)
	require.NotNil(t, sum)
	assert.Equal(t, 2, sum.Failed)
	for _, r := range sum.Results {
		assert.False(t, r.Started, r.Coordinate.String())
	}
	assert.Equal(t, uint64(0), durationSamples(t, m))
}

func TestRunObservesStartedComponents(t *testing.T) {
	m := metrics.New()
	sum, err := Run(context.Background(), Options{Root: buildRepo(t), Output: t.TempDir(), Workers: 2, Metrics: m})
	require.NoError(t, err)
	assert.Equal(t, 2, sum.Components)
	assert.Equal(t, uint64(2), durationSamples(t, m))
}

func TestProcessComponentWriteFailureIsIsolated(t *testing.T) {
	root := buildRepo(t)
	comps, err := discovery.Discover(root, discovery.Options{})
	require.NoError(t, err)

	coord := discovery.Coordinate{Group: "com.example", Artifact: "lib"}
	missing := filepath.Join(t.TempDir(), "gone")
	res := ProcessComponent(context.Background(), &surface.Aggregator{}, missing, coord, comps[coord])

	var we *report.WriteError
	require.True(t, errors.As(res.Err, &we))
	assert.Empty(t, res.Path)
	assert.Equal(t, 3, res.Stats.Archives)
	assert.Equal(t, 1, res.Changes.Introduced)
}
