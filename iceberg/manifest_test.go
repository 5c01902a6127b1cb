package iceberg

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"icefloe/schema"
	"icefloe/storage"
)

func partitionedEntry(t *testing.T, snapshotID int64, path, date string) ManifestEntry {
	t.Helper()

	st := schema.NewStruct(
		schema.NestedField{ID: 1, Name: "event_date", Type: schema.StringType},
	)
	rec := schema.NewRecord(st)
	require.NoError(t, rec.SetField("event_date", date))

	return ManifestEntry{
		Status:     StatusAdded,
		SnapshotID: snapshotID,
		DataFile: DataFile{
			FilePath:      path,
			FileFormat:    "PARQUET",
			Partition:     rec,
			RecordCount:   10,
			FileSizeBytes: 1024,
			Metrics: FileMetrics{
				ColumnSizes:     map[int32]int64{1: 512},
				ValueCounts:     map[int32]int64{1: 10},
				NullValueCounts: map[int32]int64{1: 0},
				LowerBounds:     map[int32][]byte{1: []byte("2024-01-01")},
				UpperBounds:     map[int32][]byte{1: []byte("2024-12-31")},
			},
		},
	}
}

func TestManifestRoundTrip(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	store := storage.NewLocalStorage(t.TempDir())
	entries := []ManifestEntry{
		partitionedEntry(t, 7, "data/f1.parquet", "2024-03-01"),
		partitionedEntry(t, 7, "data/f2.parquet", "2024-03-02"),
		newDeleteEntry(7, "data/old.parquet"),
	}

	mf, err := WriteManifest(ctx, store, "metadata/manifest.parquet", entries)
	require.NoError(t, err)
	assert.Equal(t, "metadata/manifest.parquet", mf.Path)
	assert.Equal(t, int32(2), mf.AddedFilesCount)
	assert.Equal(t, int32(1), mf.DeletedFilesCount)
	assert.Equal(t, int32(0), mf.ExistingFilesCount)
	assert.Equal(t, int64(7), mf.AddedSnapshotID)
	assert.Greater(t, mf.Length, int64(0))

	reader, err := OpenManifest(ctx, NewFileIO(store), mf.Path)
	require.NoError(t, err)
	defer reader.Close()

	all, err := reader.Entries()
	require.NoError(t, err)
	require.Len(t, all, 3)

	added, err := reader.Added()
	require.NoError(t, err)
	require.Len(t, added, 2)
	for _, e := range added {
		assert.Equal(t, int64(7), e.SnapshotID)
		require.NotNil(t, e.DataFile.Partition)
		assert.Equal(t, int64(10), e.DataFile.RecordCount)
		assert.Equal(t, int64(512), e.DataFile.Metrics.ColumnSizes[1])
	}
	assert.Equal(t, "2024-03-01", added[0].DataFile.Partition.GetField("event_date"))

	deleted, err := reader.Deleted()
	require.NoError(t, err)
	require.Len(t, deleted, 1)
	assert.Equal(t, "data/old.parquet", deleted[0].DataFile.FilePath)

	existing, err := reader.Existing()
	require.NoError(t, err)
	assert.Empty(t, existing)
}

func TestManifestEntriesSharePartitionStruct(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	store := storage.NewLocalStorage(t.TempDir())
	entries := []ManifestEntry{
		partitionedEntry(t, 3, "data/f1.parquet", "2024-01-01"),
		partitionedEntry(t, 3, "data/f2.parquet", "2024-01-02"),
	}
	mf, err := WriteManifest(ctx, store, "metadata/manifest.parquet", entries)
	require.NoError(t, err)

	reader, err := OpenManifest(ctx, NewFileIO(store), mf.Path)
	require.NoError(t, err)
	defer reader.Close()

	all, err := reader.Entries()
	require.NoError(t, err)
	require.Len(t, all, 2)

	// One struct type backs every partition record decoded by this reader.
	assert.Same(t, all[0].DataFile.Partition.StructType(), all[1].DataFile.Partition.StructType())
}

func TestManifestListRoundTrip(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	store := storage.NewLocalStorage(t.TempDir())
	manifests := []ManifestFile{
		{
			Path:            "metadata/m1.parquet",
			Length:          2048,
			PartitionSpecID: 1,
			AddedSnapshotID: 11,
			AddedFilesCount: 3,
			Partitions: []FieldSummary{
				{ContainsNull: true, LowerBound: []byte("a"), UpperBound: []byte("z")},
			},
		},
		{
			Path:              "metadata/m2.parquet",
			Length:            1024,
			AddedSnapshotID:   12,
			DeletedFilesCount: 1,
		},
	}

	require.NoError(t, WriteManifestList(ctx, store, "metadata/list.parquet", manifests))

	got, err := readManifestList(ctx, NewFileIO(store).OpenInput("metadata/list.parquet"))
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, manifests[0].Path, got[0].Path)
	assert.Equal(t, manifests[0].Length, got[0].Length)
	assert.Equal(t, manifests[0].AddedSnapshotID, got[0].AddedSnapshotID)
	require.Len(t, got[0].Partitions, 1)
	assert.True(t, got[0].Partitions[0].ContainsNull)
	assert.Equal(t, []byte("a"), got[0].Partitions[0].LowerBound)
	assert.Equal(t, manifests[1].Path, got[1].Path)
	assert.Equal(t, manifests[1].DeletedFilesCount, got[1].DeletedFilesCount)
}

func TestManifestFileLegacyPathAlias(t *testing.T) {
	t.Parallel()

	rec := manifestFileRecord{LegacyPath: "metadata/old-name.parquet", ManifestLength: 10}
	mf := rec.toManifestFile()
	assert.Equal(t, "metadata/old-name.parquet", mf.Path)

	rec.ManifestPath = "metadata/new-name.parquet"
	assert.Equal(t, "metadata/new-name.parquet", rec.toManifestFile().Path)
}

func TestDataFileCopyIndependence(t *testing.T) {
	t.Parallel()

	entry := partitionedEntry(t, 1, "data/f.parquet", "2024-06-01")
	orig := entry.DataFile
	cp := orig.Copy()

	orig.Metrics.ColumnSizes[1] = 9999
	orig.Metrics.LowerBounds[1][0] = 'X'
	require.NoError(t, orig.Partition.SetField("event_date", "mutated"))

	assert.Equal(t, int64(512), cp.Metrics.ColumnSizes[1])
	assert.Equal(t, []byte("2024-01-01"), cp.Metrics.LowerBounds[1])
	assert.Equal(t, "2024-06-01", cp.Partition.GetField("event_date"))
}
