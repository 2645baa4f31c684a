package logger

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
)

func TestLineFormatter(t *testing.T) {
	stamp := time.Date(2025, 10, 8, 21, 1, 5, 0, time.Local)
	tests := []struct {
		name  string
		entry *logrus.Entry
		want  string
	}{
		{
			name:  "message only",
			entry: &logrus.Entry{Time: stamp, Level: logrus.InfoLevel, Message: "roster starting", Data: logrus.Fields{}},
			want:  "2025-10-08 21:01:05 INFO – roster starting\n",
		},
		{
			name: "component and sorted fields",
			entry: &logrus.Entry{Time: stamp, Level: logrus.WarnLevel, Message: "add rejected by directory", Data: logrus.Fields{
				"component": "controller", "status": 200, "op": "add",
			}},
			want: "2025-10-08 21:01:05 WARN [controller] – add rejected by directory op=add status=200\n",
		},
		{
			name: "error and quoted values",
			entry: &logrus.Entry{Time: stamp, Level: logrus.ErrorLevel, Message: "delete failed", Data: logrus.Fields{
				"error": errors.New("dial tcp: refused"), "name": "",
			}},
			want: `2025-10-08 21:01:05 ERROR – delete failed error="dial tcp: refused" name=""` + "\n",
		},
		{
			name:  "fatal renders as error",
			entry: &logrus.Entry{Time: stamp, Level: logrus.FatalLevel, Message: "boom", Data: logrus.Fields{}},
			want:  "2025-10-08 21:01:05 ERROR – boom\n",
		},
	}

	f := &LineFormatter{}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := f.Format(tt.entry)
			if err != nil {
				t.Fatalf("Format returned error: %v", err)
			}
			if string(got) != tt.want {
				t.Fatalf("Format = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestSetup_LevelAndOutput(t *testing.T) {
	var buf bytes.Buffer
	log, err := Setup("warn", &buf)
	if err != nil {
		t.Fatalf("Setup returned error: %v", err)
	}
	log.Info("hidden")
	log.WithField(ComponentKey, "app").Warn("shown")

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Fatalf("info line written at warn level: %q", out)
	}
	if !strings.Contains(out, "WARN [app] – shown") {
		t.Fatalf("output = %q, want warn line", out)
	}
}

func TestSetup_UnknownLevelFallsBackToInfo(t *testing.T) {
	log, err := Setup("loud", nil)
	if err == nil {
		t.Fatalf("Setup returned nil error for unknown level")
	}
	if log == nil || log.GetLevel() != logrus.InfoLevel {
		t.Fatalf("logger level = %v, want info", log.GetLevel())
	}
}

func TestOpenFile_CreatesDirectoryAndAppends(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "roster.log")
	for _, line := range []string{"one\n", "two\n"} {
		file, err := OpenFile(path)
		if err != nil {
			t.Fatalf("OpenFile returned error: %v", err)
		}
		if _, err := file.WriteString(line); err != nil {
			t.Fatalf("WriteString: %v", err)
		}
		file.Close()
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if string(data) != "one\ntwo\n" {
		t.Fatalf("file = %q, want both lines", data)
	}
}

func TestOpenFile_EmptyPath(t *testing.T) {
	if _, err := OpenFile("  "); err == nil {
		t.Fatalf("OpenFile returned nil error for empty path")
	}
}
