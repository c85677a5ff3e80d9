// Package audit appends one timestamped line per injection or feedback
// event to a plain-text log for after-the-fact inspection.
package audit

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"
)

// Log appends events to a single file. Writes are O_APPEND and fail-open:
// an unwritable audit log costs a warning, never a hook failure.
type Log struct {
	path   string
	logger *zap.Logger
}

// New creates an audit log at path.
func New(path string, logger *zap.Logger) *Log {
	return &Log{path: path, logger: logger}
}

// Event appends one line: RFC3339 timestamp, event name, session id, and
// the delta ids involved.
func (l *Log) Event(event, sessionID string, deltaIDs []string) {
	line := fmt.Sprintf("%s %s session=%s deltas=%s\n",
		time.Now().Format(time.RFC3339), event, sessionID, strings.Join(deltaIDs, ","))

	if err := os.MkdirAll(filepath.Dir(l.path), 0700); err != nil {
		l.logger.Warn("audit log directory unavailable", zap.Error(err))
		return
	}
	f, err := os.OpenFile(l.path, os.O_WRONLY|os.O_CREATE|os.O_APPEND, 0600)
	if err != nil {
		l.logger.Warn("audit log unwritable", zap.String("path", l.path), zap.Error(err))
		return
	}
	defer f.Close()

	if _, err := f.WriteString(line); err != nil {
		l.logger.Warn("audit log write failed", zap.Error(err))
	}
}
