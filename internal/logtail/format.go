package logtail

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// Entry is one parsed zerolog JSON line.
type Entry struct {
	Time    time.Time
	Level   zerolog.Level
	Message string
	Fields  []Field // sorted by key
	Raw     string
	// Structured is false when the line was not a JSON object; Raw then
	// holds the whole line.
	Structured bool
}

// Field is a key/value pair beyond time, level and message.
type Field struct {
	Key   string
	Value string
}

// Parse decodes a zerolog JSON line. Lines that are not JSON objects come
// back unstructured with NoLevel.
func Parse(line string) Entry {
	entry := Entry{Raw: line, Level: zerolog.NoLevel}
	var obj map[string]any
	if err := json.Unmarshal([]byte(line), &obj); err != nil {
		return entry
	}
	entry.Structured = true

	for key, value := range obj {
		switch key {
		case zerolog.TimestampFieldName:
			if s, ok := value.(string); ok {
				if t, err := time.Parse(time.RFC3339, s); err == nil {
					entry.Time = t
					continue
				}
			}
		case zerolog.LevelFieldName:
			if s, ok := value.(string); ok {
				if lvl, err := zerolog.ParseLevel(s); err == nil {
					entry.Level = lvl
					continue
				}
			}
		case zerolog.MessageFieldName:
			if s, ok := value.(string); ok {
				entry.Message = s
				continue
			}
		}
		entry.Fields = append(entry.Fields, Field{Key: key, Value: render(value)})
	}
	sort.Slice(entry.Fields, func(i, j int) bool { return entry.Fields[i].Key < entry.Fields[j].Key })
	return entry
}

func render(v any) string {
	switch val := v.(type) {
	case string:
		if strings.ContainsAny(val, " \t\"=") {
			return fmt.Sprintf("%q", val)
		}
		return val
	case nil:
		return "null"
	default:
		data, err := json.Marshal(val)
		if err != nil {
			return fmt.Sprint(val)
		}
		return string(data)
	}
}

// LevelLabel is the three letter level tag used in formatted lines.
func LevelLabel(level zerolog.Level) string {
	switch level {
	case zerolog.TraceLevel:
		return "TRC"
	case zerolog.DebugLevel:
		return "DBG"
	case zerolog.InfoLevel:
		return "INF"
	case zerolog.WarnLevel:
		return "WRN"
	case zerolog.ErrorLevel:
		return "ERR"
	case zerolog.FatalLevel:
		return "FTL"
	case zerolog.PanicLevel:
		return "PNC"
	default:
		return "???"
	}
}

// String renders the entry as "15:04:05 INF message key=value".
func (e Entry) String() string {
	if !e.Structured {
		return e.Raw
	}
	var b strings.Builder
	if !e.Time.IsZero() {
		b.WriteString(e.Time.Local().Format("15:04:05"))
		b.WriteByte(' ')
	}
	b.WriteString(LevelLabel(e.Level))
	if e.Message != "" {
		b.WriteByte(' ')
		b.WriteString(e.Message)
	}
	for _, f := range e.Fields {
		b.WriteByte(' ')
		b.WriteString(f.Key)
		b.WriteByte('=')
		b.WriteString(f.Value)
	}
	return b.String()
}

// Format parses and renders each line.
func Format(lines []string) []string {
	out := make([]string, len(lines))
	for i, line := range lines {
		out[i] = Parse(line).String()
	}
	return out
}
