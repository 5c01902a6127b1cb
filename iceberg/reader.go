package iceberg

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"sort"

	"github.com/parquet-go/parquet-go"

	"icefloe/schema"
)

// Wire shapes for the parquet-encoded manifest list and manifest files.
// Column names follow the table format's canonical names; path is accepted as
// a legacy alias for manifest_path. Decoding into these structs projects away
// any extra columns a writer may have added.
type manifestFileRecord struct {
	ManifestPath       string               `parquet:"manifest_path,optional"`
	LegacyPath         string               `parquet:"path,optional"`
	ManifestLength     int64                `parquet:"manifest_length,optional"`
	PartitionSpecID    int32                `parquet:"partition_spec_id,optional"`
	AddedSnapshotID    int64                `parquet:"added_snapshot_id,optional"`
	AddedFilesCount    int32                `parquet:"added_data_files_count,optional"`
	ExistingFilesCount int32                `parquet:"existing_data_files_count,optional"`
	DeletedFilesCount  int32                `parquet:"deleted_data_files_count,optional"`
	Partitions         []fieldSummaryRecord `parquet:"partitions,list"`
}

type fieldSummaryRecord struct {
	ContainsNull bool   `parquet:"contains_null"`
	LowerBound   []byte `parquet:"lower_bound,optional"`
	UpperBound   []byte `parquet:"upper_bound,optional"`
}

type manifestEntryRecord struct {
	Status     int32          `parquet:"status"`
	SnapshotID int64          `parquet:"snapshot_id"`
	DataFile   dataFileRecord `parquet:"data_file"`
}

type dataFileRecord struct {
	FilePath        string            `parquet:"file_path,optional"`
	FileFormat      string            `parquet:"file_format,optional"`
	Partition       map[string]string `parquet:"partition"`
	RecordCount     int64             `parquet:"record_count,optional"`
	FileSizeBytes   int64             `parquet:"file_size_in_bytes,optional"`
	ColumnSizes     map[int32]int64   `parquet:"column_sizes"`
	ValueCounts     map[int32]int64   `parquet:"value_counts"`
	NullValueCounts map[int32]int64   `parquet:"null_value_counts"`
	LowerBounds     map[int32][]byte  `parquet:"lower_bounds"`
	UpperBounds     map[int32][]byte  `parquet:"upper_bounds"`
}

// validateParquet parses the file footer so malformed input surfaces as an
// error instead of a panic from the row reader.
func validateParquet(data []byte, location string) error {
	if _, err := parquet.OpenFile(bytes.NewReader(data), int64(len(data))); err != nil {
		return fmt.Errorf("invalid parquet file %s: %w", location, err)
	}
	return nil
}

// readManifestList fully decodes a manifest-list file into manifest
// descriptors. Any failure wraps the list's location; a truncated result is
// never returned.
func readManifestList(ctx context.Context, in InputFile) (files []ManifestFile, err error) {
	data, err := in.ReadAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("cannot read manifest list %s: %w", in.Location(), err)
	}
	if err := validateParquet(data, in.Location()); err != nil {
		return nil, fmt.Errorf("cannot read manifest list %s: %w", in.Location(), err)
	}

	pr := parquet.NewGenericReader[manifestFileRecord](bytes.NewReader(data))
	defer func() {
		if cerr := pr.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("closing manifest list %s: %w", in.Location(), cerr)
		}
	}()

	buf := make([]manifestFileRecord, 64)
	for {
		n, rerr := pr.Read(buf)
		for _, rec := range buf[:n] {
			files = append(files, rec.toManifestFile())
		}
		if rerr != nil {
			if errors.Is(rerr, io.EOF) {
				break
			}
			return nil, fmt.Errorf("cannot read manifest list %s: %w", in.Location(), rerr)
		}
	}

	return files, nil
}

func (r manifestFileRecord) toManifestFile() ManifestFile {
	path := r.ManifestPath
	if path == "" {
		path = r.LegacyPath
	}

	mf := ManifestFile{
		Path:               path,
		Length:             r.ManifestLength,
		PartitionSpecID:    r.PartitionSpecID,
		AddedSnapshotID:    r.AddedSnapshotID,
		AddedFilesCount:    r.AddedFilesCount,
		ExistingFilesCount: r.ExistingFilesCount,
		DeletedFilesCount:  r.DeletedFilesCount,
	}
	for _, s := range r.Partitions {
		mf.Partitions = append(mf.Partitions, FieldSummary{
			ContainsNull: s.ContainsNull,
			LowerBound:   append([]byte(nil), s.LowerBound...),
			UpperBound:   append([]byte(nil), s.UpperBound...),
		})
	}
	return mf
}

// ManifestReader decodes one manifest file's entries. Entries are decoded on
// first access and memoized; Close releases the underlying parquet reader.
type ManifestReader struct {
	location  string
	pr        *parquet.GenericReader[manifestEntryRecord]
	partition *schema.StructType
	entries   []ManifestEntry
	decoded   bool
}

// OpenManifest opens the manifest at location for reading. The file content
// is fully materialized up front; decoding blocks on the store's I/O.
func OpenManifest(ctx context.Context, fio FileIO, location string) (*ManifestReader, error) {
	data, err := fio.OpenInput(location).ReadAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("cannot open manifest %s: %w", location, err)
	}
	if err := validateParquet(data, location); err != nil {
		return nil, fmt.Errorf("cannot open manifest %s: %w", location, err)
	}

	return &ManifestReader{
		location: location,
		pr:       parquet.NewGenericReader[manifestEntryRecord](bytes.NewReader(data)),
	}, nil
}

func (r *ManifestReader) Location() string { return r.location }

// Entries returns every entry in the manifest, in file order.
func (r *ManifestReader) Entries() ([]ManifestEntry, error) {
	if r.decoded {
		return r.entries, nil
	}

	var entries []ManifestEntry
	buf := make([]manifestEntryRecord, 256)
	for {
		n, rerr := r.pr.Read(buf)
		for _, rec := range buf[:n] {
			entry, err := r.toEntry(rec)
			if err != nil {
				return nil, fmt.Errorf("cannot decode manifest %s: %w", r.location, err)
			}
			entries = append(entries, entry)
		}
		if rerr != nil {
			if errors.Is(rerr, io.EOF) {
				break
			}
			return nil, fmt.Errorf("cannot read manifest %s: %w", r.location, rerr)
		}
	}

	r.entries = entries
	r.decoded = true
	return r.entries, nil
}

// Added returns the entries recorded with added status.
func (r *ManifestReader) Added() ([]ManifestEntry, error) { return r.filter(StatusAdded) }

// Deleted returns the entries recorded with deleted status.
func (r *ManifestReader) Deleted() ([]ManifestEntry, error) { return r.filter(StatusDeleted) }

// Existing returns the entries carried forward from earlier snapshots.
func (r *ManifestReader) Existing() ([]ManifestEntry, error) { return r.filter(StatusExisting) }

func (r *ManifestReader) filter(status int32) ([]ManifestEntry, error) {
	entries, err := r.Entries()
	if err != nil {
		return nil, err
	}

	var out []ManifestEntry
	for _, e := range entries {
		if e.Status == status {
			out = append(out, e)
		}
	}
	return out, nil
}

func (r *ManifestReader) Close() error {
	return r.pr.Close()
}

func (r *ManifestReader) toEntry(rec manifestEntryRecord) (ManifestEntry, error) {
	partition, err := r.partitionRecord(rec.DataFile.Partition)
	if err != nil {
		return ManifestEntry{}, err
	}

	return ManifestEntry{
		Status:     rec.Status,
		SnapshotID: rec.SnapshotID,
		DataFile: DataFile{
			FilePath:      rec.DataFile.FilePath,
			FileFormat:    rec.DataFile.FileFormat,
			Partition:     partition,
			RecordCount:   rec.DataFile.RecordCount,
			FileSizeBytes: rec.DataFile.FileSizeBytes,
			Metrics: FileMetrics{
				ColumnSizes:     rec.DataFile.ColumnSizes,
				ValueCounts:     rec.DataFile.ValueCounts,
				NullValueCounts: rec.DataFile.NullValueCounts,
				LowerBounds:     rec.DataFile.LowerBounds,
				UpperBounds:     rec.DataFile.UpperBounds,
			},
		},
	}, nil
}

// partitionRecord decodes the wire partition values into a Record. Every
// entry in a manifest shares one partition struct, so the struct type and its
// position table are built once per reader and amortized across thousands of
// entries.
func (r *ManifestReader) partitionRecord(values map[string]string) (*schema.Record, error) {
	if len(values) == 0 {
		return nil, nil
	}

	if r.partition == nil {
		names := make([]string, 0, len(values))
		for name := range values {
			names = append(names, name)
		}
		sort.Strings(names)

		fields := make([]schema.NestedField, 0, len(names))
		for i, name := range names {
			fields = append(fields, schema.NestedField{
				ID:   i + 1,
				Name: name,
				Type: schema.StringType,
			})
		}
		r.partition = schema.NewStruct(fields...)
	}

	rec := schema.NewRecord(r.partition)
	for name, v := range values {
		if err := rec.SetField(name, v); err != nil {
			return nil, err
		}
	}
	return rec, nil
}
