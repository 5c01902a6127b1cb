package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"path"

	"icefloe/config"
	"icefloe/iceberg"
	"icefloe/storage"
)

func main() {
	configFile := flag.String("config", "config.yaml", "Path to config file")
	snapshotID := flag.Int64("snapshot", 0, "Snapshot ID to inspect (default: current)")
	flag.Parse()

	cfg, err := config.LoadConfig(*configFile)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	store := storage.NewLocalStorage(cfg.Warehouse.Path)
	fio := iceberg.NewFileIO(store)
	ctx := context.Background()

	for _, table := range cfg.Tables {
		metadataPath := path.Join(table.Namespace, table.Name, "metadata", "metadata.json")
		md, err := iceberg.LoadMetadata(ctx, store, metadataPath)
		if err != nil {
			log.Fatalf("Failed to load metadata for %s.%s: %v", table.Namespace, table.Name, err)
		}

		fmt.Printf("table %s.%s (%s)\n", table.Namespace, table.Name, md.TableUUID)
		for _, info := range md.Snapshots {
			current := " "
			if info.SnapshotID == md.CurrentSnapshotID {
				current = "*"
			}
			fmt.Printf("%s snapshot %d  parent=%s  ts=%d\n",
				current, info.SnapshotID, formatParent(info.ParentID), info.TimestampMS)
		}

		var snap *iceberg.Snapshot
		if *snapshotID != 0 {
			snap, err = md.SnapshotByID(fio, *snapshotID)
		} else {
			snap, err = md.CurrentSnapshot(fio)
		}
		if errors.Is(err, iceberg.ErrNoCurrentSnapshot) {
			fmt.Println("  (no snapshots)")
			continue
		}
		if err != nil {
			log.Fatalf("Failed to resolve snapshot: %v", err)
		}

		if err := printChanges(ctx, snap); err != nil {
			log.Fatalf("Failed to read snapshot %d: %v", snap.SnapshotID(), err)
		}
	}
}

func printChanges(ctx context.Context, snap *iceberg.Snapshot) error {
	manifests, err := snap.Manifests(ctx)
	if err != nil {
		return err
	}
	fmt.Printf("  snapshot %d: %d manifests\n", snap.SnapshotID(), len(manifests))

	added, err := snap.AddedFiles(ctx)
	if err != nil {
		return err
	}
	for _, f := range added {
		fmt.Printf("    + %s (%d records, %d bytes)\n", f.FilePath, f.RecordCount, f.FileSizeBytes)
	}

	deleted, err := snap.DeletedFiles(ctx)
	if err != nil {
		return err
	}
	for _, f := range deleted {
		fmt.Printf("    - %s\n", f.FilePath)
	}

	return nil
}

func formatParent(id *int64) string {
	if id == nil {
		return "none"
	}
	return fmt.Sprintf("%d", *id)
}
