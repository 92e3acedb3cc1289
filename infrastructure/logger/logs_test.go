package logger

import (
	"bytes"
	"strings"
	"sync"
	"testing"

	"github.com/pkg/errors"
)

type bufferWriteCloser struct {
	sync.Mutex
	bytes.Buffer
}

func (b *bufferWriteCloser) Write(p []byte) (int, error) {
	b.Lock()
	defer b.Unlock()
	return b.Buffer.Write(p)
}

func (b *bufferWriteCloser) Close() error { return nil }

func (b *bufferWriteCloser) String() string {
	b.Lock()
	defer b.Unlock()
	return b.Buffer.String()
}

func TestBackendWritesAboveLevel(t *testing.T) {
	backend := NewBackendWithFlags(0)
	writer := &bufferWriteCloser{}
	err := backend.AddLogWriter(writer, LevelInfo)
	if err != nil {
		t.Fatalf("AddLogWriter: %+v", err)
	}
	err = backend.Run()
	if err != nil {
		t.Fatalf("Run: %+v", err)
	}

	log := backend.Logger("TEST")
	log.SetLevel(LevelDebug)
	log.Tracef("trace %d", 1)
	log.Debugf("debug %d", 2)
	log.Infof("info %d", 3)
	log.Warnf("warn %d", 4)
	backend.Close()

	output := writer.String()
	if strings.Contains(output, "trace 1") {
		t.Errorf("trace message below the logger level was written")
	}
	if strings.Contains(output, "debug 2") {
		t.Errorf("debug message below the writer level was written")
	}
	if !strings.Contains(output, "[INF] TEST: info 3") {
		t.Errorf("info message is missing: %q", output)
	}
	if !strings.Contains(output, "[WRN] TEST: warn 4") {
		t.Errorf("warn message is missing: %q", output)
	}
}

func TestParseAndSetLogLevels(t *testing.T) {
	log := RegisterSubSystem("TSTA")
	RegisterSubSystem("TSTB")

	err := ParseAndSetLogLevels("TSTA=debug,TSTB=warn")
	if err != nil {
		t.Fatalf("ParseAndSetLogLevels: %+v", err)
	}
	if log.Level() != LevelDebug {
		t.Errorf("unexpected level %s", log.Level())
	}

	err = ParseAndSetLogLevels("NOPE=debug")
	if err == nil {
		t.Errorf("expected an error for an unknown subsystem")
	}
	err = ParseAndSetLogLevels("TSTA=loud")
	if err == nil {
		t.Errorf("expected an error for an unknown level")
	}
	err = ParseAndSetLogLevels("info")
	if err != nil {
		t.Fatalf("ParseAndSetLogLevels: %+v", err)
	}
	if log.Level() != LevelInfo {
		t.Errorf("unexpected level %s", log.Level())
	}
}

func TestLogClosureIsLazy(t *testing.T) {
	backend := NewBackendWithFlags(0)
	writer := &bufferWriteCloser{}
	err := backend.AddLogWriter(writer, LevelTrace)
	if err != nil {
		t.Fatalf("AddLogWriter: %+v", err)
	}
	err = backend.Run()
	if err != nil {
		t.Fatalf("Run: %+v", err)
	}

	log := backend.Logger("TEST")
	log.SetLevel(LevelInfo)
	calls := 0
	closure := NewLogClosure(func() string {
		calls++
		return "expensive"
	})
	log.Tracef("%s", closure)
	if calls != 0 {
		t.Fatalf("closure was evaluated below the logger level")
	}
	log.Infof("%s", closure)
	backend.Close()

	if calls != 1 {
		t.Fatalf("expected one evaluation, got %d", calls)
	}
	if !strings.Contains(writer.String(), "TEST: expensive") {
		t.Errorf("closure output is missing: %q", writer.String())
	}
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		input    string
		expected Level
	}{
		{"trace", LevelTrace},
		{"TRC", LevelTrace},
		{"Debug", LevelDebug},
		{" info ", LevelInfo},
		{"wrn", LevelWarn},
		{"ERROR", LevelError},
		{"crt", LevelCritical},
		{"off", LevelOff},
	}
	for _, test := range tests {
		level, err := ParseLevel(test.input)
		if err != nil {
			t.Errorf("ParseLevel(%q): %+v", test.input, err)
			continue
		}
		if level != test.expected {
			t.Errorf("ParseLevel(%q) returned %s, expected %s", test.input, level, test.expected)
		}
	}

	level, err := ParseLevel("loud")
	if !errors.Is(err, ErrUnknownLevel) {
		t.Fatalf("expected ErrUnknownLevel but got %+v", err)
	}
	if level != LevelInfo {
		t.Errorf("expected the fallback level to be %s but got %s", LevelInfo, level)
	}
	if !strings.Contains(err.Error(), "critical") {
		t.Errorf("expected the error to list the valid levels: %s", err)
	}

	if Level(42).String() != "OFF" {
		t.Errorf("expected levels past LevelOff to print as OFF, got %s", Level(42))
	}
}
