package surface

import (
	"cmp"
	"context"
	"log/slog"
	"os"
	"slices"

	"github.com/odvcencio/apitrail/pkg/discovery"
	"github.com/odvcencio/apitrail/pkg/metrics"
	"github.com/odvcencio/apitrail/pkg/object"
)

// Aggregator builds component surfaces from archives. The zero value works:
// it logs nothing, caches nothing and records no metrics.
type Aggregator struct {
	Logger  *slog.Logger
	Cache   *object.Store
	Metrics *metrics.Run
}

// Stats summarizes one Aggregate call.
type Stats struct {
	Archives      int // archives read or served from cache
	Cached        int
	FailedArchive int
	Modules       int // public modules recorded
	Skipped       int // non-public modules
	DecodeErrors  int
}

func (a *Aggregator) logger() *slog.Logger {
	if a.Logger == nil {
		return slog.New(slog.DiscardHandler)
	}
	return a.Logger
}

// Aggregate decodes the archives of one component. Archives are processed in
// release order, then by path, so the first-seen order of types does not
// depend on the order of paths. Unreadable archives and undecodable entries
// are logged and skipped; the only error returned is ctx's.
func (a *Aggregator) Aggregate(ctx context.Context, coord discovery.Coordinate, paths []string) (*Component, Stats, error) {
	log := a.logger().With("component", coord.String())
	ordered := slices.Clone(paths)
	slices.SortFunc(ordered, func(x, y string) int {
		return cmp.Or(discovery.ReleaseOf(x).Compare(discovery.ReleaseOf(y)), cmp.Compare(x, y))
	})

	comp := NewComponent(coord)
	var st Stats
	for _, p := range ordered {
		if err := ctx.Err(); err != nil {
			return nil, st, err
		}
		release := discovery.ReleaseOf(p)
		arch, cached, err := a.load(log, p)
		if err != nil {
			st.FailedArchive++
			a.Metrics.Archive(metrics.ArchiveError)
			log.Warn("skipping archive", "archive", p, "error", err)
			continue
		}
		st.Archives++
		if cached {
			st.Cached++
			a.Metrics.Archive(metrics.ArchiveCached)
		} else {
			a.Metrics.Archive(metrics.ArchiveOK)
		}
		for _, err := range arch.Errors {
			st.DecodeErrors++
			log.Warn("skipping module", "archive", p, "error", err)
		}
		a.Metrics.Modules(metrics.ModuleError, len(arch.Errors))

		comp.AddRelease(release)
		public := 0
		for _, m := range arch.Modules {
			if !m.Public {
				continue
			}
			comp.Put(m.Name, release, m.Members)
			public++
		}
		st.Modules += public
		st.Skipped += len(arch.Modules) - public
		a.Metrics.Modules(metrics.ModulePublic, public)
		a.Metrics.Modules(metrics.ModuleSkipped, len(arch.Modules)-public)
		log.Debug("archive decoded", "archive", p, "release", release, "public", public, "cached", cached)
	}
	return comp, st, nil
}

// load returns the decoded archive at path, consulting the cache first.
func (a *Aggregator) load(log *slog.Logger, path string) (*Archive, bool, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, false, &ArchiveError{Path: path, Err: err}
	}
	var key object.Hash
	if a.Cache != nil {
		key = object.HashBytes(data)
		if a.Cache.Has(key) {
			obj, err := a.Cache.ReadArchive(key)
			if err == nil {
				return fromRecord(path, obj), true, nil
			}
			log.Warn("ignoring unreadable cache entry", "archive", path, "key", key, "error", err)
		}
	}

	arch, err := DecodeArchive(path, data)
	if err != nil {
		return nil, false, err
	}
	if a.Cache != nil && arch.Complete() {
		if err := a.Cache.WriteArchive(key, toRecord(arch)); err != nil {
			log.Warn("cache write failed", "archive", path, "error", err)
		}
	}
	return arch, false, nil
}

func toRecord(a *Archive) *object.ArchiveObj {
	obj := &object.ArchiveObj{Modules: make([]object.ModuleRecord, 0, len(a.Modules))}
	for _, m := range a.Modules {
		rec := object.ModuleRecord{Name: m.Name, Public: m.Public}
		for _, sig := range m.Members.Signatures() {
			e, _ := m.Members.Get(sig)
			rec.Members = append(rec.Members, object.MemberRecord{Signature: sig, Deprecated: e.Deprecated})
		}
		obj.Modules = append(obj.Modules, rec)
	}
	return obj
}

func fromRecord(path string, obj *object.ArchiveObj) *Archive {
	a := &Archive{Path: path, Modules: make([]Module, 0, len(obj.Modules))}
	for _, rec := range obj.Modules {
		m := NewMembers()
		for _, mem := range rec.Members {
			m.Set(mem.Signature, Entry{Deprecated: mem.Deprecated})
		}
		a.Modules = append(a.Modules, Module{Name: rec.Name, Public: rec.Public, Members: m})
	}
	return a
}

