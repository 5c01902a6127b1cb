package iceberg

import "errors"

var (
	ErrSnapshotNotFound  = errors.New("snapshot not found")
	ErrNoCurrentSnapshot = errors.New("table has no current snapshot")
)
