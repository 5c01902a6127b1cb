package iceberg

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"icefloe/schema"
	"icefloe/storage"
)

func tableSchema() *schema.StructType {
	return schema.NewStruct(
		schema.NestedField{ID: 1, Name: "id", Type: schema.LongType, Required: true},
		schema.NestedField{ID: 2, Name: "name", Type: schema.StringType},
		schema.NestedField{ID: 3, Name: "created_at", Type: schema.TimestampType},
	)
}

func TestMetadataRoundTrip(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	store := storage.NewLocalStorage(t.TempDir())
	md := NewTableMetadata("warehouse/db/events", tableSchema())
	require.NotEmpty(t, md.TableUUID)
	assert.Equal(t, 2, md.FormatVersion)
	assert.Equal(t, 3, md.LastColumnID)

	parent := int64(100)
	md.AddSnapshot(SnapshotInfo{
		SnapshotID:   100,
		TimestampMS:  1700000000000,
		ManifestList: "metadata/snap-100.parquet",
	})
	md.AddSnapshot(SnapshotInfo{
		SnapshotID:   101,
		ParentID:     &parent,
		TimestampMS:  1700000001000,
		ManifestList: "metadata/snap-101.parquet",
		Summary:      map[string]string{"added-data-files": "1"},
	})
	assert.Equal(t, int64(101), md.CurrentSnapshotID)

	path := "db/events/metadata/metadata.json"
	require.NoError(t, WriteMetadata(ctx, store, path, md))

	loaded, err := LoadMetadata(ctx, store, path)
	require.NoError(t, err)
	assert.Equal(t, md.TableUUID, loaded.TableUUID)
	assert.Equal(t, md.CurrentSnapshotID, loaded.CurrentSnapshotID)
	require.Len(t, loaded.Snapshots, 2)
	require.NotNil(t, loaded.Snapshots[1].ParentID)
	assert.Equal(t, int64(100), *loaded.Snapshots[1].ParentID)

	st, err := loaded.Schema()
	require.NoError(t, err)
	require.Equal(t, 3, st.Len())
	field, ok := st.Field("created_at")
	require.True(t, ok)
	assert.Equal(t, schema.KindTimestamp, field.Type.Kind())
}

func TestMetadataSnapshotLookup(t *testing.T) {
	t.Parallel()

	store := storage.NewLocalStorage(t.TempDir())
	fio := NewFileIO(store)
	md := NewTableMetadata("warehouse/db/events", tableSchema())

	_, err := md.CurrentSnapshot(fio)
	assert.ErrorIs(t, err, ErrNoCurrentSnapshot)

	md.AddSnapshot(SnapshotInfo{
		SnapshotID:   7,
		TimestampMS:  1700000000000,
		ManifestList: "metadata/snap-7.parquet",
	})

	snap, err := md.CurrentSnapshot(fio)
	require.NoError(t, err)
	assert.Equal(t, int64(7), snap.SnapshotID())
	assert.Equal(t, "metadata/snap-7.parquet", snap.ManifestListLocation())

	_, err = md.SnapshotByID(fio, 999)
	assert.ErrorIs(t, err, ErrSnapshotNotFound)
}

func TestMetadataCurrentSnapshotEndToEnd(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	store := storage.NewLocalStorage(t.TempDir())
	fio := NewFileIO(store)

	mf, err := WriteManifest(ctx, store, "metadata/manifest-9.parquet", []ManifestEntry{
		newAddEntry(9, "data/part-0.parquet"),
	})
	require.NoError(t, err)
	require.NoError(t, WriteManifestList(ctx, store, "metadata/snap-9.parquet", []ManifestFile{mf}))

	md := NewTableMetadata("warehouse/db/events", tableSchema())
	md.AddSnapshot(SnapshotInfo{
		SnapshotID:   9,
		TimestampMS:  1700000000000,
		ManifestList: "metadata/snap-9.parquet",
	})
	require.NoError(t, WriteMetadata(ctx, store, "metadata/metadata.json", md))

	loaded, err := LoadMetadata(ctx, store, "metadata/metadata.json")
	require.NoError(t, err)
	snap, err := loaded.CurrentSnapshot(fio)
	require.NoError(t, err)

	added, err := snap.AddedFiles(ctx)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"data/part-0.parquet"}, filePaths(added))
}

func TestLoadMetadataMissing(t *testing.T) {
	t.Parallel()

	store := storage.NewLocalStorage(t.TempDir())
	_, err := LoadMetadata(context.Background(), store, "db/missing/metadata.json")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "db/missing/metadata.json")
}
