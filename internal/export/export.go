// Package export writes and reads portable matrix snapshots: gzip-compressed
// JSON with an envelope carrying the registry version and export time.
package export

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/klauspost/compress/gzip"

	"bpa/internal/errors"
	"bpa/internal/matrix"
)

// Snapshot is the export envelope around a matrix
type Snapshot struct {
	RegistryVersion string                 `json:"registryVersion"`
	ExportedAt      time.Time              `json:"exportedAt"`
	Matrix          matrix.StrategicMatrix `json:"matrix"`
}

// Write compresses a snapshot to w
func Write(w io.Writer, snapshot *Snapshot) error {
	gz, err := gzip.NewWriterLevel(w, gzip.BestCompression)
	if err != nil {
		return fmt.Errorf("failed to create gzip writer: %w", err)
	}

	enc := json.NewEncoder(gz)
	enc.SetIndent("", "  ")
	if err := enc.Encode(snapshot); err != nil {
		gz.Close()
		return fmt.Errorf("failed to encode snapshot: %w", err)
	}
	return gz.Close()
}

// WriteFile exports a snapshot to a file path
func WriteFile(path string, snapshot *Snapshot) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create snapshot file: %w", err)
	}
	defer f.Close()
	return Write(f, snapshot)
}

// Read decompresses and structurally validates a snapshot. A snapshot whose
// matrix is missing block-slots is rejected with the missing slot names.
func Read(r io.Reader) (*Snapshot, error) {
	gz, err := gzip.NewReader(r)
	if err != nil {
		return nil, errors.New(errors.SnapshotCorrupt, "snapshot is not gzip data", err)
	}
	defer gz.Close()

	raw, err := io.ReadAll(gz)
	if err != nil {
		return nil, errors.New(errors.SnapshotCorrupt, "snapshot stream is truncated", err)
	}

	var envelope struct {
		RegistryVersion string          `json:"registryVersion"`
		ExportedAt      time.Time       `json:"exportedAt"`
		Matrix          json.RawMessage `json:"matrix"`
	}
	if err := json.Unmarshal(raw, &envelope); err != nil {
		return nil, errors.New(errors.SnapshotCorrupt, "snapshot envelope is not decodable", err)
	}
	if len(envelope.Matrix) == 0 {
		return nil, errors.New(errors.SnapshotCorrupt, "snapshot carries no matrix", nil)
	}

	missing, err := matrix.ValidateSnapshot(envelope.Matrix)
	if err != nil {
		return nil, errors.New(errors.SnapshotCorrupt, "matrix snapshot is not decodable", err)
	}
	if len(missing) > 0 {
		return nil, errors.New(errors.MatrixInvalid, "matrix snapshot is missing block-slots", nil).
			WithDetails(map[string]interface{}{"missingSlots": missing})
	}

	snapshot := &Snapshot{
		RegistryVersion: envelope.RegistryVersion,
		ExportedAt:      envelope.ExportedAt,
	}
	if err := json.Unmarshal(envelope.Matrix, &snapshot.Matrix); err != nil {
		return nil, errors.New(errors.SnapshotCorrupt, "matrix snapshot is not decodable", err)
	}
	return snapshot, nil
}

// ReadFile imports a snapshot from a file path
func ReadFile(path string) (*Snapshot, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open snapshot file: %w", err)
	}
	defer f.Close()
	return Read(f)
}
