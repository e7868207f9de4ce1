package metrics

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunCounts(t *testing.T) {
	r := New()
	r.Archive(ArchiveOK)
	r.Archive(ArchiveOK)
	r.Archive(ArchiveCached)
	r.Modules(ModulePublic, 3)
	r.Modules(ModuleSkipped, 0)
	r.Component(ComponentWritten)
	r.ComponentDuration(20 * time.Millisecond)

	assert.Equal(t, 2.0, testutil.ToFloat64(r.archives.WithLabelValues(ArchiveOK)))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.archives.WithLabelValues(ArchiveCached)))
	assert.Equal(t, 3.0, testutil.ToFloat64(r.modules.WithLabelValues(ModulePublic)))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.components.WithLabelValues(ComponentWritten)))
	assert.Equal(t, 1, testutil.CollectAndCount(r.duration))
}

func TestRunsAreIndependent(t *testing.T) {
	a, b := New(), New()
	a.Archive(ArchiveError)
	assert.Equal(t, 0.0, testutil.ToFloat64(b.archives.WithLabelValues(ArchiveError)))
}

func TestNilRunIsNoop(t *testing.T) {
	var r *Run
	r.Archive(ArchiveOK)
	r.Modules(ModulePublic, 1)
	r.Component(ComponentFailed)
	r.ComponentDuration(time.Second)
	assert.NoError(t, r.WriteTextfile(filepath.Join(t.TempDir(), "m.prom")))
}

func TestWriteTextfile(t *testing.T) {
	r := New()
	r.Component(ComponentFailed)
	path := filepath.Join(t.TempDir(), "apitrail.prom")
	require.NoError(t, r.WriteTextfile(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.True(t, strings.Contains(string(data), `apitrail_components_total{result="failed"} 1`), string(data))
}
