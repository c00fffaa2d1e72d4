// Package logruspretty is a compact, colorized logrus formatter for local
// development.
package logruspretty

import (
	"bytes"
	"fmt"
	"sort"

	"github.com/sirupsen/logrus"
)

type Formatter struct{}

func New() *Formatter {
	return &Formatter{}
}

func (f *Formatter) Format(entry *logrus.Entry) ([]byte, error) {
	var buf bytes.Buffer

	fmt.Fprintf(&buf, "\x1b[%dm%s\x1b[0m[%s] %s",
		levelColor(entry.Level),
		levelTag(entry.Level),
		entry.Time.Format("15:04:05"),
		entry.Message,
	)

	keys := make([]string, 0, len(entry.Data))
	for key := range entry.Data {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	for _, key := range keys {
		fmt.Fprintf(&buf, " \x1b[36m%s\x1b[0m=%v", key, entry.Data[key])
	}

	buf.WriteByte('\n')
	return buf.Bytes(), nil
}

func levelTag(level logrus.Level) string {
	switch level {
	case logrus.DebugLevel, logrus.TraceLevel:
		return "DEBU"
	case logrus.InfoLevel:
		return "INFO"
	case logrus.WarnLevel:
		return "WARN"
	default:
		return "ERRO"
	}
}

func levelColor(level logrus.Level) int {
	switch level {
	case logrus.DebugLevel, logrus.TraceLevel:
		return 37 // grey
	case logrus.InfoLevel:
		return 34 // blue
	case logrus.WarnLevel:
		return 33 // yellow
	default:
		return 31 // red
	}
}
