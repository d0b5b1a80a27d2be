package logtail

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
)

// chunkSize is how much of the file Read pulls per backwards step.
var chunkSize int64 = 32 << 10

// Read returns at most maxLines from the end of the file at path. A missing
// file yields no lines and no error.
func Read(path string, maxLines int) ([]string, error) {
	if maxLines <= 0 {
		return nil, nil
	}
	file, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("open log: %w", err)
	}
	defer file.Close()

	info, err := file.Stat()
	if err != nil {
		return nil, fmt.Errorf("stat log: %w", err)
	}
	tail, err := readTail(file, info.Size(), maxLines)
	if err != nil {
		return nil, err
	}
	return lastLines(tail, maxLines), nil
}

// readTail walks r backwards from size until the bytes read hold more than
// maxLines newlines, or the start of the file is reached.
func readTail(r io.ReaderAt, size int64, maxLines int) ([]byte, error) {
	var tail []byte
	newlines := 0
	for offset := size; offset > 0 && newlines <= maxLines; {
		n := min(chunkSize, offset)
		offset -= n
		chunk := make([]byte, n)
		if _, err := r.ReadAt(chunk, offset); err != nil && !errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("read log: %w", err)
		}
		newlines += bytes.Count(chunk, []byte{'\n'})
		tail = append(chunk, tail...)
	}
	return tail, nil
}

func lastLines(data []byte, maxLines int) []string {
	text := strings.TrimSuffix(string(data), "\n")
	if text == "" {
		return nil
	}
	lines := strings.Split(text, "\n")
	if len(lines) > maxLines {
		lines = lines[len(lines)-maxLines:]
	}
	for i, line := range lines {
		lines[i] = strings.TrimSuffix(line, "\r")
	}
	return lines
}
