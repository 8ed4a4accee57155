package io

import (
	"context"
	"errors"
	"os"
	"time"

	"golang.org/x/exp/mmap"
)

// ErrNotRegular is returned for paths that are not regular files
var ErrNotRegular = errors.New("not a regular file")

// copy granularity between cancellation checks
const chunkSize = 1 << 20

// MappedFile provides memory-mapped read access to a file
type MappedFile struct {
	reader *mmap.ReaderAt
	path   string
}

// OpenMapped opens a file with memory mapping. The mapping covers the file as
// it was when opened; later growth needs a new mapping.
func OpenMapped(path string) (*MappedFile, error) {
	reader, err := mmap.Open(path)
	if err != nil {
		return nil, err
	}
	return &MappedFile{reader: reader, path: path}, nil
}

// Size returns the mapped size
func (m *MappedFile) Size() int64 {
	return int64(m.reader.Len())
}

// Path returns the file path
func (m *MappedFile) Path() string {
	return m.path
}

// Close closes the memory mapping
func (m *MappedFile) Close() error {
	return m.reader.Close()
}

// ReadRange copies bytes from start to end, checking ctx between chunks
func (m *MappedFile) ReadRange(ctx context.Context, start, end int64) ([]byte, error) {
	if end > m.Size() {
		end = m.Size()
	}
	if start >= end {
		return nil, nil
	}

	buf := make([]byte, end-start)
	for pos := int64(0); pos < int64(len(buf)); pos += chunkSize {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		next := min(pos+chunkSize, int64(len(buf)))
		if _, err := m.reader.ReadAt(buf[pos:next], start+pos); err != nil {
			return nil, err
		}
	}
	return buf, nil
}

// Chunk is the content of a file from a given offset to its end
type Chunk struct {
	Data      []byte
	Offset    int64 // file offset of Data[0]
	Size      int64 // file size when read
	ModTime   time.Time
	Truncated bool // the file shrank below the requested offset and was read from 0
}

// ReadFrom reads path from offset to the current end of file. A file smaller
// than offset is read from the start with Truncated set.
func ReadFrom(ctx context.Context, path string, offset int64) (Chunk, error) {
	if err := ctx.Err(); err != nil {
		return Chunk{}, err
	}

	info, err := os.Stat(path)
	if err != nil {
		return Chunk{}, err
	}
	if !info.Mode().IsRegular() {
		return Chunk{}, ErrNotRegular
	}

	file, err := OpenMapped(path)
	if err != nil {
		return Chunk{}, err
	}
	defer file.Close()

	chunk := Chunk{
		Offset:  offset,
		Size:    file.Size(),
		ModTime: info.ModTime(),
	}
	if chunk.Size < offset {
		chunk.Offset = 0
		chunk.Truncated = true
	}

	chunk.Data, err = file.ReadRange(ctx, chunk.Offset, chunk.Size)
	if err != nil {
		return Chunk{}, err
	}
	return chunk, nil
}
