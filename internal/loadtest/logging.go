package loadtest

import (
	"fmt"
	"io"
	"os"
)

// File permission constants.
const (
	logFilePermission = 0600
)

// LogWriter returns stdout, teed into logFile when one is given. The
// returned close func is always safe to call.
func LogWriter(logFile string) (io.Writer, func() error, error) {
	if logFile == "" {
		return os.Stdout, func() error { return nil }, nil
	}
	file, err := os.OpenFile(logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, logFilePermission)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create log file: %w", err)
	}
	return io.MultiWriter(os.Stdout, file), file.Close, nil
}
