package adr

import (
	"fmt"
	"sync"

	"github.com/nerrad567/adr-core/internal/state"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Rotation limits of a unit log file.
const (
	logFileMaxSizeMB  = 10
	logFileMaxBackups = 5
)

// logFile mirrors controller log lines to a rotating file. With no path
// set it discards them.
type logFile struct {
	mu   sync.Mutex
	path string
	w    *lumberjack.Logger
}

func newLogFile() *logFile {
	return &logFile{}
}

// open switches the destination to path. An empty path closes the file.
func (f *logFile) open(path string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if path == f.path {
		return
	}
	if f.w != nil {
		_ = f.w.Close() //nolint:errcheck // switching files
		f.w = nil
	}
	f.path = path
	if path == "" {
		return
	}
	f.w = &lumberjack.Logger{
		Filename:   path,
		MaxSize:    logFileMaxSizeMB,
		MaxBackups: logFileMaxBackups,
	}
}

func (f *logFile) write(e state.Entry) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.w == nil {
		return nil
	}
	_, err := fmt.Fprintf(f.w, "%s %s\n", e.Stamp(), e.Message)
	return err
}

// Path returns the current destination.
func (f *logFile) Path() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.path
}

func (f *logFile) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.w == nil {
		return nil
	}
	err := f.w.Close()
	f.w = nil
	f.path = ""
	return err
}
