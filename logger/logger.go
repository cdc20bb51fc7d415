package logger

import (
	"fmt"
	"os"
	"strings"

	"github.com/sirupsen/logrus"
)

// Log is the engine-wide logger. Level comes from GROVEDB_LOG_LEVEL
// (debug/info/warn/error), defaulting to warn so the library stays quiet
// inside host processes.
var Log *logrus.Logger

// Formatter prints "[15:04:05] [LEVEL] message" — one short line per event.
type Formatter struct{}

func (f *Formatter) Format(entry *logrus.Entry) ([]byte, error) {
	level := strings.ToUpper(entry.Level.String())
	if len(level) > 4 {
		level = level[:4]
	}
	msg := fmt.Sprintf("[%s] [%s] %s", entry.Time.Format("15:04:05"), level, entry.Message)
	if len(entry.Data) > 0 {
		for k, v := range entry.Data {
			msg += fmt.Sprintf(" %s=%v", k, v)
		}
	}
	return []byte(msg + "\n"), nil
}

func init() {
	Log = logrus.New()
	Log.SetOutput(os.Stderr)
	Log.SetFormatter(&Formatter{})
	Log.SetLevel(logrus.WarnLevel)
	if lvl := os.Getenv("GROVEDB_LOG_LEVEL"); lvl != "" {
		if parsed, err := logrus.ParseLevel(lvl); err == nil {
			Log.SetLevel(parsed)
		}
	}
}

// SetLevel overrides the log level at runtime; cmd tools use it for -v flags.
func SetLevel(level logrus.Level) {
	Log.SetLevel(level)
}
