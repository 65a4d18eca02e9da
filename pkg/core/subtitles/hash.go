package subtitles

import (
	"encoding/binary"
	"fmt"
	"os"
)

// osdbChunkSize is the size of the chunk read from the start and end of
// the file.
const osdbChunkSize = 65536 // 64 * 1024

// checksumBuffer sums the buffer as 64-bit little-endian integers.
// Overflow is expected and part of the algorithm.
func checksumBuffer(buf []byte) (sum uint64) {
	for i := 0; i+8 <= len(buf); i += 8 {
		sum += binary.LittleEndian.Uint64(buf[i : i+8])
	}
	return
}

// OSDbHash calculates the OpenSubtitles movie hash for a video file:
// file size plus the checksums of the first and last 64KB.
// See http://trac.opensubtitles.org/projects/opensubtitles/wiki/HashSourceCodes
func OSDbHash(filePath string) (hash string, byteSize int64, err error) {
	file, err := os.Open(filePath)
	if err != nil {
		return "", 0, fmt.Errorf("failed to open file for hashing %q: %w", filePath, err)
	}
	defer file.Close()

	stat, err := file.Stat()
	if err != nil {
		return "", 0, fmt.Errorf("failed to stat %q: %w", filePath, err)
	}

	byteSize = stat.Size()
	if byteSize < osdbChunkSize*2 {
		return "", byteSize, fmt.Errorf("file %q is too small for hashing (size: %d)", filePath, byteSize)
	}

	startBuf := make([]byte, osdbChunkSize)
	if _, err := file.ReadAt(startBuf, 0); err != nil {
		return "", byteSize, fmt.Errorf("failed to read start chunk from %q: %w", filePath, err)
	}

	endBuf := make([]byte, osdbChunkSize)
	if _, err := file.ReadAt(endBuf, byteSize-osdbChunkSize); err != nil {
		return "", byteSize, fmt.Errorf("failed to read end chunk from %q: %w", filePath, err)
	}

	final := uint64(byteSize) + checksumBuffer(startBuf) + checksumBuffer(endBuf)
	return fmt.Sprintf("%016x", final), byteSize, nil
}
