package logger

import (
	"bytes"
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	"github.com/sirupsen/logrus"
)

const (
	colorRed    = 31
	colorYellow = 33
	colorBlue   = 36
	colorGray   = 37
)

const defaultTimestampFormat = "15:04:05.000"

func getColorByLevel(level logrus.Level) int {
	switch level {
	case logrus.DebugLevel, logrus.TraceLevel:
		return colorGray
	case logrus.WarnLevel:
		return colorYellow
	case logrus.ErrorLevel, logrus.FatalLevel, logrus.PanicLevel:
		return colorRed
	default:
		return colorBlue
	}
}

// Formatter writes one compact line per entry: time, level, caller when
// reported, message and the entry fields in key order.
type Formatter struct {
	DisableColor    bool
	HideLogTime     bool
	TimestampFormat string
}

func (f *Formatter) Format(entry *logrus.Entry) ([]byte, error) {
	b := entry.Buffer
	if b == nil {
		b = &bytes.Buffer{}
	}

	timestampFormat := f.TimestampFormat
	if timestampFormat == "" {
		timestampFormat = defaultTimestampFormat
	}
	if !f.HideLogTime {
		b.WriteString(entry.Time.Format(timestampFormat))
		b.WriteByte(' ')
	}

	var line strings.Builder
	fmt.Fprintf(&line, "[%s]", strings.ToUpper(entry.Level.String()))
	if entry.HasCaller() {
		fmt.Fprintf(&line, " [%s:%d]", filepath.Base(entry.Caller.File), entry.Caller.Line)
	}
	line.WriteByte(' ')
	line.WriteString(entry.Message)
	for _, k := range sortedKeys(entry.Data) {
		fmt.Fprintf(&line, " %s=%v", k, entry.Data[k])
	}

	if f.DisableColor {
		b.WriteString(line.String())
	} else {
		fmt.Fprintf(b, "\033[%dm%s\033[0m", getColorByLevel(entry.Level), line.String())
	}
	b.WriteByte('\n')

	return b.Bytes(), nil
}

func sortedKeys(data logrus.Fields) []string {
	keys := make([]string, 0, len(data))
	for k := range data {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
