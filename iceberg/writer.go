package iceberg

import (
	"context"
	"fmt"

	"github.com/parquet-go/parquet-go"

	"icefloe/schema"
	"icefloe/storage"
)

// WriteManifest encodes entries into a parquet manifest at path and returns
// the descriptor for the written file.
func WriteManifest(ctx context.Context, store storage.Storage, path string, entries []ManifestEntry) (ManifestFile, error) {
	recs := make([]manifestEntryRecord, 0, len(entries))
	var added, existing, deleted int32
	var addedSnapshotID int64

	for _, e := range entries {
		switch e.Status {
		case StatusAdded:
			added++
			addedSnapshotID = e.SnapshotID
		case StatusExisting:
			existing++
		case StatusDeleted:
			deleted++
		default:
			return ManifestFile{}, fmt.Errorf("unknown manifest entry status: %d", e.Status)
		}
		recs = append(recs, toEntryRecord(e))
	}

	buf := storage.NewBuffer()
	w := parquet.NewGenericWriter[manifestEntryRecord](buf)
	if _, err := w.Write(recs); err != nil {
		return ManifestFile{}, fmt.Errorf("writing manifest entries: %w", err)
	}
	if err := w.Close(); err != nil {
		return ManifestFile{}, fmt.Errorf("closing manifest writer: %w", err)
	}

	if err := store.Write(ctx, path, buf.Reader()); err != nil {
		return ManifestFile{}, fmt.Errorf("writing manifest %s: %w", path, err)
	}

	return ManifestFile{
		Path:               path,
		Length:             buf.Size(),
		AddedSnapshotID:    addedSnapshotID,
		AddedFilesCount:    added,
		ExistingFilesCount: existing,
		DeletedFilesCount:  deleted,
	}, nil
}

// WriteManifestList encodes manifest descriptors into a parquet manifest list
// at path.
func WriteManifestList(ctx context.Context, store storage.Storage, path string, manifests []ManifestFile) error {
	recs := make([]manifestFileRecord, 0, len(manifests))
	for _, m := range manifests {
		recs = append(recs, toManifestFileRecord(m))
	}

	buf := storage.NewBuffer()
	w := parquet.NewGenericWriter[manifestFileRecord](buf)
	if _, err := w.Write(recs); err != nil {
		return fmt.Errorf("writing manifest list entries: %w", err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("closing manifest list writer: %w", err)
	}

	if err := store.Write(ctx, path, buf.Reader()); err != nil {
		return fmt.Errorf("writing manifest list %s: %w", path, err)
	}
	return nil
}

func toEntryRecord(e ManifestEntry) manifestEntryRecord {
	df := e.DataFile
	return manifestEntryRecord{
		Status:     e.Status,
		SnapshotID: e.SnapshotID,
		DataFile: dataFileRecord{
			FilePath:        df.FilePath,
			FileFormat:      df.FileFormat,
			Partition:       partitionValues(df.Partition),
			RecordCount:     df.RecordCount,
			FileSizeBytes:   df.FileSizeBytes,
			ColumnSizes:     df.Metrics.ColumnSizes,
			ValueCounts:     df.Metrics.ValueCounts,
			NullValueCounts: df.Metrics.NullValueCounts,
			LowerBounds:     df.Metrics.LowerBounds,
			UpperBounds:     df.Metrics.UpperBounds,
		},
	}
}

func toManifestFileRecord(m ManifestFile) manifestFileRecord {
	rec := manifestFileRecord{
		ManifestPath:       m.Path,
		ManifestLength:     m.Length,
		PartitionSpecID:    m.PartitionSpecID,
		AddedSnapshotID:    m.AddedSnapshotID,
		AddedFilesCount:    m.AddedFilesCount,
		ExistingFilesCount: m.ExistingFilesCount,
		DeletedFilesCount:  m.DeletedFilesCount,
	}
	for _, s := range m.Partitions {
		rec.Partitions = append(rec.Partitions, fieldSummaryRecord{
			ContainsNull: s.ContainsNull,
			LowerBound:   s.LowerBound,
			UpperBound:   s.UpperBound,
		})
	}
	return rec
}

func partitionValues(rec *schema.Record) map[string]string {
	if rec == nil {
		return nil
	}

	st := rec.StructType()
	out := make(map[string]string, st.Len())
	for i, f := range st.Fields() {
		if v := rec.Get(i); v != nil {
			out[f.Name] = fmt.Sprintf("%v", v)
		}
	}
	return out
}
