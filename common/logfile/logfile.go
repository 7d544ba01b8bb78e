package logfile

import (
	"bytes"
	"fmt"
	"os"
	"sort"

	log "github.com/sirupsen/logrus"
)

const timeLayout = "2006-01-02 15:04:05"

// Formatter writes entries as "[2006-01-02 15:04:05][INFO] message key=value".
type Formatter struct{}

func (f *Formatter) Format(e *log.Entry) ([]byte, error) {
	b := e.Buffer
	if b == nil {
		b = &bytes.Buffer{}
	}

	fmt.Fprintf(b, "[%s][%s] %s", e.Time.Local().Format(timeLayout), levelName(e.Level), e.Message)

	keys := make([]string, 0, len(e.Data))
	for k := range e.Data {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		fmt.Fprintf(b, " %s=%v", k, e.Data[k])
	}

	b.WriteByte('\n')
	return b.Bytes(), nil
}

func levelName(l log.Level) string {
	switch l {
	case log.PanicLevel, log.FatalLevel, log.ErrorLevel:
		return "ERROR"
	case log.WarnLevel:
		return "WARN"
	case log.InfoLevel:
		return "INFO"
	default:
		return "DEBUG"
	}
}

// Setup points the standard logger at the file at path, appending to it.
func Setup(path string, level string) (*os.File, error) {
	l, err := log.ParseLevel(level)
	if err != nil {
		return nil, err
	}

	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return nil, err
	}

	log.SetOutput(f)
	log.SetFormatter(&Formatter{})
	log.SetLevel(l)

	return f, nil
}
