// Checkpoint blob codec — brain checkpoints compress well (the Q-table's
// JSON keys repeat heavily), so blobs are gzipped before hitting SQLite.
package persistence

import (
	"bytes"
	"fmt"
	"io"

	"github.com/klauspost/compress/gzip"

	"github.com/talgya/micro-minds/internal/brain"
)

// encodeCheckpoint serializes a brain's checkpoint and compresses it.
func encodeCheckpoint(b *brain.Brain) ([]byte, error) {
	data, err := b.Checkpoint().Marshal()
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	zw := gzip.NewWriter(&buf)
	if _, err := zw.Write(data); err != nil {
		return nil, fmt.Errorf("compress checkpoint: %w", err)
	}
	if err := zw.Close(); err != nil {
		return nil, fmt.Errorf("compress checkpoint: %w", err)
	}
	return buf.Bytes(), nil
}

// decodeCheckpoint decompresses and restores a brain from a stored blob.
func decodeCheckpoint(blob []byte) (*brain.Brain, error) {
	zr, err := gzip.NewReader(bytes.NewReader(blob))
	if err != nil {
		return nil, fmt.Errorf("decompress checkpoint: %w", err)
	}
	data, err := io.ReadAll(zr)
	if cerr := zr.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return nil, fmt.Errorf("decompress checkpoint: %w", err)
	}

	c, err := brain.UnmarshalCheckpoint(data)
	if err != nil {
		return nil, err
	}
	return brain.Restore(c)
}
