package iceberg

import (
	"context"
	"fmt"
	"sync"
)

// Snapshot is a point-in-time view of a table: its identity and lineage plus
// the manifests describing the data files visible at that moment. Identity is
// immutable. The manifest list and the added/deleted file sets are resolved
// lazily, each at most once, and cached for the lifetime of the Snapshot;
// while resolution of either fails, nothing is cached and a later call may
// succeed.
type Snapshot struct {
	io           FileIO
	snapshotID   int64
	parentID     *int64
	timestampMS  int64
	manifestList string

	mu        sync.Mutex
	manifests []ManifestFile
	resolved  bool
	adds      []DataFile
	deletes   []DataFile
	cached    bool
}

// NewSnapshot creates a snapshot backed by a manifest-list file, decoded on
// first use.
func NewSnapshot(fio FileIO, snapshotID int64, parentID *int64, timestampMS int64, manifestList string) *Snapshot {
	return &Snapshot{
		io:           fio,
		snapshotID:   snapshotID,
		parentID:     parentID,
		timestampMS:  timestampMS,
		manifestList: manifestList,
	}
}

// NewSnapshotFromManifests creates a snapshot whose manifest list is already
// resolved. ManifestListLocation reports empty for such snapshots.
func NewSnapshotFromManifests(fio FileIO, snapshotID int64, parentID *int64, timestampMS int64, manifests []ManifestFile) *Snapshot {
	s := NewSnapshot(fio, snapshotID, parentID, timestampMS, "")
	s.manifests = manifests
	s.resolved = true
	return s
}

func (s *Snapshot) SnapshotID() int64 { return s.snapshotID }

// ParentID returns the parent snapshot's id, or nil for the root snapshot.
func (s *Snapshot) ParentID() *int64 { return s.parentID }

func (s *Snapshot) TimestampMillis() int64 { return s.timestampMS }

// ManifestListLocation returns the manifest-list file's location, or "" when
// the snapshot was constructed from an in-memory manifest list.
func (s *Snapshot) ManifestListLocation() string { return s.manifestList }

// Manifests resolves and returns the snapshot's manifest list. The first
// successful call decodes the manifest-list file; later calls return the
// cached list without touching the store.
func (s *Snapshot) Manifests(ctx context.Context) ([]ManifestFile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.manifestsLocked(ctx)
}

func (s *Snapshot) manifestsLocked(ctx context.Context) ([]ManifestFile, error) {
	if s.resolved {
		return s.manifests, nil
	}

	files, err := readManifestList(ctx, s.io.OpenInput(s.manifestList))
	if err != nil {
		return nil, err
	}

	s.manifests = files
	s.resolved = true
	return s.manifests, nil
}

// AddedFiles returns the data files this snapshot added. Computed together
// with DeletedFiles in one pass over all manifests and cached; after the
// first successful call no manifest is read again.
func (s *Snapshot) AddedFiles(ctx context.Context) ([]DataFile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.cached {
		if err := s.cacheChanges(ctx); err != nil {
			return nil, err
		}
	}
	return s.adds, nil
}

// DeletedFiles returns the data files this snapshot deleted.
func (s *Snapshot) DeletedFiles(ctx context.Context) ([]DataFile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.cached {
		if err := s.cacheChanges(ctx); err != nil {
			return nil, err
		}
	}
	return s.deletes, nil
}

// cacheChanges accumulates adds and deletes from all manifests. Manifests can
// be reused unmodified by newer snapshots, so entries are filtered by owning
// snapshot id; membership in a manifest does not mean this snapshot made the
// change. Both lists are published together, or not at all.
func (s *Snapshot) cacheChanges(ctx context.Context) error {
	manifests, err := s.manifestsLocked(ctx)
	if err != nil {
		return err
	}

	var adds, deletes []DataFile
	for _, m := range manifests {
		if err := s.collectChanges(ctx, m.Path, &adds, &deletes); err != nil {
			return err
		}
	}

	s.adds = adds
	s.deletes = deletes
	s.cached = true
	return nil
}

func (s *Snapshot) collectChanges(ctx context.Context, path string, adds, deletes *[]DataFile) (err error) {
	reader, err := OpenManifest(ctx, s.io, path)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := reader.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("failed to close reader while caching changes: %w", cerr)
		}
	}()

	added, err := reader.Added()
	if err != nil {
		return err
	}
	for _, entry := range added {
		if entry.SnapshotID == s.snapshotID {
			*adds = append(*adds, entry.DataFile.Copy())
		}
	}

	deleted, err := reader.Deleted()
	if err != nil {
		return err
	}
	for _, entry := range deleted {
		if entry.SnapshotID == s.snapshotID {
			*deletes = append(*deletes, entry.DataFile.Copy())
		}
	}

	return nil
}

func (s *Snapshot) String() string {
	return fmt.Sprintf("snapshot{id=%d, timestamp_ms=%d}", s.snapshotID, s.timestampMS)
}
