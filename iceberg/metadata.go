package iceberg

import (
	"context"
	"fmt"
	"time"

	"github.com/goccy/go-json"
	"github.com/google/uuid"

	"icefloe/schema"
	"icefloe/storage"
)

// TableMetadata is the table's root metadata document.
type TableMetadata struct {
	FormatVersion     int               `json:"format-version"`
	TableUUID         string            `json:"table-uuid"`
	Location          string            `json:"location"`
	LastUpdatedMS     int64             `json:"last-updated-ms"`
	LastColumnID      int               `json:"last-column-id"`
	CurrentSchema     SchemaInfo        `json:"current-schema"`
	Properties        map[string]string `json:"properties,omitempty"`
	CurrentSnapshotID int64             `json:"current-snapshot-id,omitempty"`
	Snapshots         []SnapshotInfo    `json:"snapshots"`
}

// SchemaInfo is the JSON shape of a table schema.
type SchemaInfo struct {
	SchemaID int         `json:"schema-id"`
	Fields   []FieldInfo `json:"fields"`
}

type FieldInfo struct {
	ID       int    `json:"id"`
	Name     string `json:"name"`
	Type     string `json:"type"`
	Required bool   `json:"required"`
}

// SnapshotInfo is one entry in the metadata's snapshot log.
type SnapshotInfo struct {
	SnapshotID   int64             `json:"snapshot-id"`
	ParentID     *int64            `json:"parent-snapshot-id,omitempty"`
	TimestampMS  int64             `json:"timestamp-ms"`
	ManifestList string            `json:"manifest-list"`
	Summary      map[string]string `json:"summary,omitempty"`
}

// NewTableMetadata initializes metadata for a fresh table at location.
func NewTableMetadata(location string, st *schema.StructType) *TableMetadata {
	return &TableMetadata{
		FormatVersion: 2,
		TableUUID:     uuid.New().String(),
		Location:      location,
		LastUpdatedMS: time.Now().UnixMilli(),
		LastColumnID:  st.Len(),
		CurrentSchema: schemaInfo(st),
		Properties:    map[string]string{},
		Snapshots:     []SnapshotInfo{},
	}
}

func schemaInfo(st *schema.StructType) SchemaInfo {
	info := SchemaInfo{Fields: make([]FieldInfo, 0, st.Len())}
	for _, f := range st.Fields() {
		info.Fields = append(info.Fields, FieldInfo{
			ID:       f.ID,
			Name:     f.Name,
			Type:     f.Type.String(),
			Required: f.Required,
		})
	}
	return info
}

// Schema reconstructs the current schema's struct type.
func (m *TableMetadata) Schema() (*schema.StructType, error) {
	fields := make([]schema.NestedField, 0, len(m.CurrentSchema.Fields))
	for _, f := range m.CurrentSchema.Fields {
		t, err := schema.TypeFromString(f.Type)
		if err != nil {
			return nil, fmt.Errorf("field %s: %w", f.Name, err)
		}
		fields = append(fields, schema.NestedField{
			ID:       f.ID,
			Name:     f.Name,
			Type:     t,
			Required: f.Required,
		})
	}
	return schema.NewStruct(fields...), nil
}

// AddSnapshot appends info to the snapshot log and makes it current.
func (m *TableMetadata) AddSnapshot(info SnapshotInfo) {
	m.Snapshots = append(m.Snapshots, info)
	m.CurrentSnapshotID = info.SnapshotID
	m.LastUpdatedMS = info.TimestampMS
}

// SnapshotByID builds the Snapshot for the matching log entry.
func (m *TableMetadata) SnapshotByID(fio FileIO, id int64) (*Snapshot, error) {
	for _, info := range m.Snapshots {
		if info.SnapshotID == id {
			return NewSnapshot(fio, info.SnapshotID, info.ParentID, info.TimestampMS, info.ManifestList), nil
		}
	}
	return nil, fmt.Errorf("snapshot %d: %w", id, ErrSnapshotNotFound)
}

// CurrentSnapshot builds the Snapshot the metadata currently points at.
func (m *TableMetadata) CurrentSnapshot(fio FileIO) (*Snapshot, error) {
	if m.CurrentSnapshotID == 0 {
		return nil, ErrNoCurrentSnapshot
	}
	return m.SnapshotByID(fio, m.CurrentSnapshotID)
}

// LoadMetadata reads the metadata document at path.
func LoadMetadata(ctx context.Context, store storage.Storage, path string) (*TableMetadata, error) {
	rc, err := store.Read(ctx, path)
	if err != nil {
		return nil, fmt.Errorf("opening metadata %s: %w", path, err)
	}
	defer rc.Close()

	var md TableMetadata
	if err := json.NewDecoder(rc).Decode(&md); err != nil {
		return nil, fmt.Errorf("decoding metadata %s: %w", path, err)
	}
	return &md, nil
}

// WriteMetadata writes the metadata document to path.
func WriteMetadata(ctx context.Context, store storage.Storage, path string, md *TableMetadata) error {
	buf := storage.NewBuffer()
	enc := json.NewEncoder(buf)
	enc.SetIndent("", "  ")
	if err := enc.Encode(md); err != nil {
		return fmt.Errorf("encoding metadata: %w", err)
	}

	if err := store.Write(ctx, path, buf.Reader()); err != nil {
		return fmt.Errorf("writing metadata %s: %w", path, err)
	}
	return nil
}
