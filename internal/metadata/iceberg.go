// Package metadata keeps an Iceberg-style manifest of the result files the
// writer produces. Each run appends its snapshots to the table metadata
// already stored under the prefix, so the history spans every run.
package metadata

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"path"
	"sync"
	"time"

	"github.com/google/uuid"
)

// ErrNotFound is returned, possibly wrapped, by Sink.Get for a missing key.
var ErrNotFound = errors.New("object not found")

// Sink stores and reads metadata objects under slash separated keys.
type Sink interface {
	Put(ctx context.Context, key string, body []byte, contentType string) error
	Get(ctx context.Context, key string) ([]byte, error)
}

// DataFile describes a single parquet file written by the pipeline.
type DataFile struct {
	Path        string         `json:"path"`
	FileSize    int64          `json:"file_size_in_bytes"`
	RecordCount int64          `json:"record_count"`
	Partition   map[string]any `json:"partition"`
	Timestamp   time.Time      `json:"-"`
}

// ManifestEntry mirrors the information kept in an Iceberg manifest file.
type ManifestEntry struct {
	Status   int      `json:"status"`
	DataFile DataFile `json:"data_file"`
}

type Snapshot struct {
	SnapshotID  int64  `json:"snapshot-id"`
	TimestampMs int64  `json:"timestamp-ms"`
	Manifest    string `json:"manifest-list"`
	RecordCount int64  `json:"record-count"`
}

// TableMetadata represents the high level table metadata file.
type TableMetadata struct {
	FormatVersion     int        `json:"format-version"`
	TableUUID         string     `json:"table-uuid"`
	Location          string     `json:"location"`
	CurrentSnapshotID int64      `json:"current-snapshot-id"`
	Snapshots         []Snapshot `json:"snapshots"`
}

// Generator incrementally builds metadata for one table. Safe for concurrent
// use.
type Generator struct {
	sink      Sink
	location  string
	prefix    string
	tableName string
	tableUUID string

	mu        sync.Mutex
	loaded    bool
	snapshots []Snapshot
	lastID    int64
}

// NewGenerator returns a generator writing under prefix/metadata through sink.
// location is recorded as the table root, e.g. s3://bucket/prefix. The table
// UUID is replaced by the stored one when metadata already exists.
func NewGenerator(sink Sink, location, prefix, tableName string) *Generator {
	return &Generator{
		sink:      sink,
		location:  location,
		prefix:    prefix,
		tableName: tableName,
		tableUUID: uuid.NewString(),
	}
}

func (g *Generator) key(name string) string {
	return path.Join(g.prefix, "metadata", name)
}

// load reads the stored table metadata once. A missing file starts a new table.
func (g *Generator) load(ctx context.Context) error {
	if g.loaded {
		return nil
	}
	raw, err := g.sink.Get(ctx, g.key("metadata.json"))
	if errors.Is(err, ErrNotFound) {
		g.loaded = true
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to read table metadata: %w", err)
	}

	var tm TableMetadata
	if err := json.Unmarshal(raw, &tm); err != nil {
		return fmt.Errorf("failed to parse table metadata: %w", err)
	}
	if tm.TableUUID != "" {
		g.tableUUID = tm.TableUUID
	}
	g.snapshots = append(tm.Snapshots, g.snapshots...)
	for _, s := range tm.Snapshots {
		if s.SnapshotID > g.lastID {
			g.lastID = s.SnapshotID
		}
	}
	g.loaded = true
	return nil
}

// AddFile records a newly written parquet file and rewrites the table
// metadata, keeping the snapshots of earlier runs.
func (g *Generator) AddFile(ctx context.Context, df DataFile) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if err := g.load(ctx); err != nil {
		return err
	}

	snapID := df.Timestamp.UnixNano()
	if snapID <= g.lastID {
		snapID = g.lastID + 1
	}
	g.lastID = snapID

	manifestFile := fmt.Sprintf("manifest-%d.json", snapID)
	b, err := json.Marshal([]ManifestEntry{{Status: 1, DataFile: df}})
	if err != nil {
		return err
	}
	if err := g.sink.Put(ctx, g.key(manifestFile), b, "application/json"); err != nil {
		return fmt.Errorf("failed to write manifest %s: %w", manifestFile, err)
	}

	g.snapshots = append(g.snapshots, Snapshot{
		SnapshotID:  snapID,
		TimestampMs: df.Timestamp.UnixMilli(),
		Manifest:    manifestFile,
		RecordCount: df.RecordCount,
	})
	return g.writeTableMetadata(ctx)
}

func (g *Generator) writeTableMetadata(ctx context.Context) error {
	if len(g.snapshots) == 0 {
		return nil
	}
	tm := TableMetadata{
		FormatVersion:     2,
		TableUUID:         g.tableUUID,
		Location:          g.location,
		CurrentSnapshotID: g.snapshots[len(g.snapshots)-1].SnapshotID,
		Snapshots:         g.snapshots,
	}
	b, err := json.MarshalIndent(tm, "", "  ")
	if err != nil {
		return err
	}
	return g.sink.Put(ctx, g.key("metadata.json"), b, "application/json")
}

// Snapshots returns a copy of the snapshots recorded so far.
func (g *Generator) Snapshots() []Snapshot {
	g.mu.Lock()
	defer g.mu.Unlock()
	out := make([]Snapshot, len(g.snapshots))
	copy(out, g.snapshots)
	return out
}

// WriteCatalogEntry writes catalog/<table>.json pointing at the table metadata.
func (g *Generator) WriteCatalogEntry(ctx context.Context) error {
	g.mu.Lock()
	err := g.load(ctx)
	tableUUID := g.tableUUID
	g.mu.Unlock()
	if err != nil {
		return err
	}

	entry := map[string]string{
		"name":              g.tableName,
		"table_uuid":        tableUUID,
		"metadata_location": g.location + "/metadata/metadata.json",
	}
	b, err := json.MarshalIndent(entry, "", "  ")
	if err != nil {
		return err
	}
	return g.sink.Put(ctx, path.Join(g.prefix, "catalog", g.tableName+".json"), b, "application/json")
}
