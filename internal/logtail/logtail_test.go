package logtail

import (
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

func TestRead(t *testing.T) {
	// Create a temporary log file
	tmpDir := t.TempDir()
	logPath := filepath.Join(tmpDir, "test.log")

	// Write 10 lines of content
	var content strings.Builder
	var expectedAll []string
	for i := 1; i <= 10; i++ {
		line := fmt.Sprintf("Line %d", i)
		content.WriteString(line + "\n")
		expectedAll = append(expectedAll, line)
	}

	if err := os.WriteFile(logPath, []byte(content.String()), 0644); err != nil {
		t.Fatalf("failed to create test log file: %v", err)
	}

	tests := []struct {
		name     string
		maxLines int
		expected []string
	}{
		{
			name:     "nothing requested (0)",
			maxLines: 0,
			expected: nil,
		},
		{
			name:     "nothing requested (negative)",
			maxLines: -1,
			expected: nil,
		},
		{
			name:     "read partial (5)",
			maxLines: 5,
			expected: expectedAll[5:],
		},
		{
			name:     "read exactly all (10)",
			maxLines: 10,
			expected: expectedAll,
		},
		{
			name:     "read more than exists (20)",
			maxLines: 20,
			expected: expectedAll,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Read(logPath, tt.maxLines)
			if err != nil {
				t.Fatalf("Read() error = %v", err)
			}
			if !reflect.DeepEqual(got, tt.expected) {
				t.Errorf("Read() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestRead_MissingFile(t *testing.T) {
	got, err := Read(filepath.Join(t.TempDir(), "absent.log"), 10)
	if err != nil || got != nil {
		t.Fatalf("Read(missing) = %v, %v; want nil, nil", got, err)
	}
}

func TestRead_SmallChunks(t *testing.T) {
	prev := chunkSize
	chunkSize = 7
	t.Cleanup(func() { chunkSize = prev })

	logPath := filepath.Join(t.TempDir(), "wakubase.log")
	content := "first line\r\nsecond, a much longer line than one chunk\nthird\nfourth"
	if err := os.WriteFile(logPath, []byte(content), 0644); err != nil {
		t.Fatalf("failed to create test log file: %v", err)
	}

	tests := []struct {
		maxLines int
		expected []string
	}{
		{1, []string{"fourth"}},
		{2, []string{"third", "fourth"}},
		{4, []string{"first line", "second, a much longer line than one chunk", "third", "fourth"}},
		{9, []string{"first line", "second, a much longer line than one chunk", "third", "fourth"}},
	}
	for _, tt := range tests {
		got, err := Read(logPath, tt.maxLines)
		if err != nil {
			t.Fatalf("Read(%d) error = %v", tt.maxLines, err)
		}
		if !reflect.DeepEqual(got, tt.expected) {
			t.Errorf("Read(%d) = %q, want %q", tt.maxLines, got, tt.expected)
		}
	}
}

func TestRead_EmptyFile(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "empty.log")
	if err := os.WriteFile(logPath, nil, 0644); err != nil {
		t.Fatalf("failed to create test log file: %v", err)
	}
	got, err := Read(logPath, 5)
	if err != nil || got != nil {
		t.Fatalf("Read(empty) = %v, %v; want nil, nil", got, err)
	}
}

func TestParse(t *testing.T) {
	ts := time.Date(2026, 10, 16, 9, 30, 5, 0, time.UTC)
	line := fmt.Sprintf(`{"level":"warn","topic":"/app/1/chat/proto","count":3,"time":%q,"message":"Failed to fetch: 503 - down"}`, ts.Format(time.RFC3339))

	entry := Parse(line)
	if !entry.Structured {
		t.Fatal("Structured = false, want true")
	}
	if entry.Level != zerolog.WarnLevel {
		t.Fatalf("Level = %v, want warn", entry.Level)
	}
	if !entry.Time.Equal(ts) {
		t.Fatalf("Time = %v, want %v", entry.Time, ts)
	}
	if entry.Message != "Failed to fetch: 503 - down" {
		t.Fatalf("Message = %q", entry.Message)
	}
	want := []Field{{Key: "count", Value: "3"}, {Key: "topic", Value: "/app/1/chat/proto"}}
	if !reflect.DeepEqual(entry.Fields, want) {
		t.Fatalf("Fields = %#v, want %#v", entry.Fields, want)
	}
}

func TestFormat(t *testing.T) {
	ts := time.Date(2026, 10, 16, 9, 30, 5, 0, time.Local)
	stamp := ts.Format(time.RFC3339)

	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "plain text passes through",
			input:    "panic: something",
			expected: "panic: something",
		},
		{
			name:     "info with field",
			input:    fmt.Sprintf(`{"level":"info","time":%q,"topic":"t","message":"subscribing"}`, stamp),
			expected: "09:30:05 INF subscribing topic=t",
		},
		{
			name:     "quoted values",
			input:    fmt.Sprintf(`{"level":"error","time":%q,"error":"dial tcp: refused","message":"boom"}`, stamp),
			expected: `09:30:05 ERR boom error="dial tcp: refused"`,
		},
		{
			name:     "no time",
			input:    `{"level":"debug","message":"m"}`,
			expected: "DBG m",
		},
		{
			name:     "unknown level",
			input:    `{"message":"m"}`,
			expected: "??? m",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Format([]string{tt.input})
			if len(got) != 1 || got[0] != tt.expected {
				t.Errorf("Format() = %q, want %q", got, tt.expected)
			}
		})
	}
}
