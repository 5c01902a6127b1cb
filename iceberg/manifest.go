package iceberg

import (
	"icefloe/schema"
)

// Manifest entry statuses. Existing entries were written by an earlier
// snapshot and carried forward when the manifest was reused.
const (
	StatusExisting int32 = 0
	StatusAdded    int32 = 1
	StatusDeleted  int32 = 2
)

// ManifestFile describes one manifest within a snapshot's manifest list.
type ManifestFile struct {
	Path               string
	Length             int64
	PartitionSpecID    int32
	AddedSnapshotID    int64
	AddedFilesCount    int32
	ExistingFilesCount int32
	DeletedFilesCount  int32
	Partitions         []FieldSummary
}

// FieldSummary summarizes one partition field's values across a manifest.
// Opaque to change reconciliation.
type FieldSummary struct {
	ContainsNull bool
	LowerBound   []byte
	UpperBound   []byte
}

func (f FieldSummary) copy() FieldSummary {
	return FieldSummary{
		ContainsNull: f.ContainsNull,
		LowerBound:   append([]byte(nil), f.LowerBound...),
		UpperBound:   append([]byte(nil), f.UpperBound...),
	}
}

// ManifestEntry records one data file's status within a manifest, together
// with the snapshot that made the change. A manifest can be reused unmodified
// by later snapshots, so the snapshot id on the entry, not membership in the
// manifest, identifies the change's owner.
type ManifestEntry struct {
	Status     int32
	SnapshotID int64
	DataFile   DataFile
}

// DataFile describes one physical data file tracked by a manifest.
type DataFile struct {
	FilePath      string
	FileFormat    string
	Partition     *schema.Record
	RecordCount   int64
	FileSizeBytes int64
	Metrics       FileMetrics
}

// FileMetrics holds per-column statistics keyed by field id.
type FileMetrics struct {
	ColumnSizes     map[int32]int64
	ValueCounts     map[int32]int64
	NullValueCounts map[int32]int64
	LowerBounds     map[int32][]byte
	UpperBounds     map[int32][]byte
}

// Copy returns a deep copy, so cached reconciliation results cannot alias
// buffers owned by a manifest reader.
func (d DataFile) Copy() DataFile {
	cp := d
	if d.Partition != nil {
		cp.Partition = d.Partition.Copy()
	}
	cp.Metrics = d.Metrics.copy()
	return cp
}

func (m FileMetrics) copy() FileMetrics {
	return FileMetrics{
		ColumnSizes:     copyInt64Map(m.ColumnSizes),
		ValueCounts:     copyInt64Map(m.ValueCounts),
		NullValueCounts: copyInt64Map(m.NullValueCounts),
		LowerBounds:     copyBytesMap(m.LowerBounds),
		UpperBounds:     copyBytesMap(m.UpperBounds),
	}
}

func copyInt64Map(m map[int32]int64) map[int32]int64 {
	if m == nil {
		return nil
	}
	cp := make(map[int32]int64, len(m))
	for k, v := range m {
		cp[k] = v
	}
	return cp
}

func copyBytesMap(m map[int32][]byte) map[int32][]byte {
	if m == nil {
		return nil
	}
	cp := make(map[int32][]byte, len(m))
	for k, v := range m {
		cp[k] = append([]byte(nil), v...)
	}
	return cp
}
