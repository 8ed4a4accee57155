package index

import "bytes"

// Tracker remembers how far into a growing file content has been consumed
// and where each complete line starts. A trailing line without a terminator
// is held back until a later read completes it.
type Tracker struct {
	offset  int64   // end of consumed bytes, partial line included
	partial []byte  // bytes of the unterminated trailing line
	starts  []int64 // byte offset of each complete line start
}

// NewTracker returns a tracker positioned at the start of a file
func NewTracker() *Tracker {
	return &Tracker{}
}

// Offset returns the byte offset the next read starts from
func (t *Tracker) Offset() int64 {
	return t.offset
}

// LineCount returns the number of complete lines consumed
func (t *Tracker) LineCount() int {
	return len(t.starts)
}

// Pending returns the number of buffered bytes of an unterminated line
func (t *Tracker) Pending() int {
	return len(t.partial)
}

// ByteOffset returns the byte offset of a line
func (t *Tracker) ByteOffset(lineNum int) int64 {
	if lineNum < 0 || lineNum >= len(t.starts) {
		return -1
	}
	return t.starts[lineNum]
}

// Starts returns the line start offsets. The result is shared and must not be
// modified; later calls only append beyond its length.
func (t *Tracker) Starts() []int64 {
	n := len(t.starts)
	return t.starts[:n:n]
}

// Consume takes data read from Offset onward and returns the lines it
// completes, without their "\n" or "\r\n" terminators. The returned slices
// may alias data.
func (t *Tracker) Consume(data []byte) [][]byte {
	var lines [][]byte

	lineStart := t.offset - int64(len(t.partial))
	pos := 0
	for {
		idx := bytes.IndexByte(data[pos:], '\n')
		if idx == -1 {
			break
		}

		line := data[pos : pos+idx]
		if len(t.partial) > 0 {
			line = append(t.partial, line...)
			t.partial = nil
		}

		t.starts = append(t.starts, lineStart)
		lineStart += int64(len(line)) + 1
		lines = append(lines, bytes.TrimSuffix(line, []byte{'\r'}))

		pos += idx + 1
	}

	if pos < len(data) {
		t.partial = append(t.partial, data[pos:]...)
	}
	t.offset += int64(len(data))

	return lines
}

// Reset forgets all consumed content, as after a truncation
func (t *Tracker) Reset() {
	t.offset = 0
	t.partial = nil
	t.starts = nil
}
