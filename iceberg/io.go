package iceberg

import (
	"context"
	"fmt"
	"io"

	"icefloe/storage"
)

// FileIO opens input files by location. It is the only way the snapshot core
// reaches the underlying store.
type FileIO interface {
	OpenInput(location string) InputFile
}

// InputFile is a readable handle addressed by a location string.
type InputFile interface {
	Location() string
	ReadAll(ctx context.Context) ([]byte, error)
}

// NewFileIO adapts a storage backend into a FileIO.
func NewFileIO(store storage.Storage) FileIO {
	return &storageIO{store: store}
}

type storageIO struct {
	store storage.Storage
}

func (s *storageIO) OpenInput(location string) InputFile {
	return &storageInput{store: s.store, location: location}
}

type storageInput struct {
	store    storage.Storage
	location string
}

func (f *storageInput) Location() string { return f.location }

func (f *storageInput) ReadAll(ctx context.Context) ([]byte, error) {
	rc, err := f.store.Read(ctx, f.location)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", f.location, err)
	}
	defer rc.Close()

	data, err := io.ReadAll(rc)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", f.location, err)
	}
	return data, nil
}
