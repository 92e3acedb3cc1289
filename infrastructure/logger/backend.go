package logger

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime/debug"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/jrick/logrotate/rotator"
	"github.com/pkg/errors"
)

const normalLogSize = 512

// Flags to modify Backend's behavior.
const (
	// LogFlagLongFile adds the full path and line number of the logging callsite.
	LogFlagLongFile uint32 = 1 << iota

	// LogFlagShortFile adds the file name and line number of the logging callsite.
	// Takes precedence over LogFlagLongFile.
	LogFlagShortFile
)

// defaultFlags is read from the comma separated LOGFLAGS environment variable.
// It is a variable rather than an init() result because BackendLog is built from it.
var defaultFlags = flagsFromEnvironment()

func flagsFromEnvironment() (flags uint32) {
	for _, flag := range strings.Split(os.Getenv("LOGFLAGS"), ",") {
		switch flag {
		case "longfile":
			flags |= LogFlagLongFile
		case "shortfile":
			flags |= LogFlagShortFile
		}
	}
	return flags
}

const (
	defaultThresholdKB = 100 * 1000 // 100 MB
	defaultMaxRolls    = 8
)

type logWriter struct {
	io.WriteCloser
	level Level
}

// Backend serializes the writes of all subsystem loggers created from it and
// dispatches each entry to every writer whose level admits it.
type Backend struct {
	flag      uint32
	isRunning uint32
	writers   []logWriter
	writeChan chan logEntry
	syncClose sync.Mutex
}

// NewBackendWithFlags creates a Backend with explicit flags instead of LOGFLAGS.
func NewBackendWithFlags(flags uint32) *Backend {
	return &Backend{flag: flags, writeChan: make(chan logEntry)}
}

// NewBackend creates a new logger backend.
func NewBackend() *Backend {
	return NewBackendWithFlags(defaultFlags)
}

// AddLogFile adds a rotating log file written at logLevel and above,
// using the default rotation settings.
func (b *Backend) AddLogFile(logFile string, logLevel Level) error {
	return b.AddLogFileWithCustomRotator(logFile, logLevel, defaultThresholdKB, defaultMaxRolls)
}

// AddLogWriter adds an arbitrary writer written at logLevel and above.
func (b *Backend) AddLogWriter(writer io.WriteCloser, logLevel Level) error {
	if b.IsRunning() {
		return errors.New("the logger is already running")
	}
	b.writers = append(b.writers, logWriter{WriteCloser: writer, level: logLevel})
	return nil
}

// AddLogFileWithCustomRotator adds a rotating log file with the given rotation
// settings, creating its directory if needed.
func (b *Backend) AddLogFileWithCustomRotator(logFile string, logLevel Level, thresholdKB int64, maxRolls int) error {
	if b.IsRunning() {
		return errors.New("the logger is already running")
	}
	logDir, _ := filepath.Split(logFile)
	if logDir != "" {
		err := os.MkdirAll(logDir, 0700)
		if err != nil {
			return errors.Wrapf(err, "failed to create log directory %s", logDir)
		}
	}
	fileRotator, err := rotator.New(logFile, thresholdKB, false, maxRolls)
	if err != nil {
		return errors.Wrapf(err, "failed to create file rotator for %s", logFile)
	}
	return b.AddLogWriter(fileRotator, logLevel)
}

// Run starts dispatching log entries. Must be called once.
func (b *Backend) Run() error {
	if !atomic.CompareAndSwapUint32(&b.isRunning, 0, 1) {
		return errors.New("the logger is already running")
	}
	b.syncClose.Lock()
	go func() {
		defer func() {
			if err := recover(); err != nil {
				fmt.Fprintf(os.Stderr, "Fatal error in logger.Backend goroutine: %+v\n", err)
				fmt.Fprintf(os.Stderr, "Goroutine stacktrace: %s\n", debug.Stack())
			}
		}()
		defer b.syncClose.Unlock()
		defer atomic.StoreUint32(&b.isRunning, 0)

		for entry := range b.writeChan {
			for _, writer := range b.writers {
				if entry.level >= writer.level {
					_, _ = writer.Write(entry.log)
				}
			}
		}
	}()
	return nil
}

// IsRunning returns true if Run has been called and Close hasn't.
func (b *Backend) IsRunning() bool {
	return atomic.LoadUint32(&b.isRunning) != 0
}

// Close flushes pending entries and closes all writers.
func (b *Backend) Close() {
	close(b.writeChan)
	b.syncClose.Lock()
	defer b.syncClose.Unlock()
	for _, writer := range b.writers {
		_ = writer.Close()
	}
}

// Logger returns a new logger for the given subsystem tag. Loggers start
// with LevelOff until a level is set.
func (b *Backend) Logger(subsystemTag string) *Logger {
	return &Logger{LevelOff, subsystemTag, b, b.writeChan}
}
