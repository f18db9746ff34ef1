package logger

import (
	"io"
	"log"
	"os"
	"strings"
)

type LogLevel int

const (
	ERROR LogLevel = iota
	WARN
	INFO
	DEBUG
	TRACE
)

const flags = log.Ldate | log.Ltime | log.Lshortfile

var (
	nullWriter   = &NullWriter{}
	currentLevel = ERROR
	Info         *log.Logger
	Warn         *log.Logger
	Error        *log.Logger
	Debug        *log.Logger
	Trace        *log.Logger
)

func StringToLogLevel(value string) LogLevel {
	switch strings.ToLower(value) {
	case "error":
		return ERROR
	case "warn":
		return WARN
	case "info":
		return INFO
	case "debug":
		return DEBUG
	case "trace":
		return TRACE
	}
	log.Printf("Invalid log level: '%s'. Returning INFO", value)
	return INFO
}

func (s LogLevel) String() string {
	switch s {
	case ERROR:
		return "ERROR"
	case WARN:
		return "WARN"
	case INFO:
		return "INFO"
	case DEBUG:
		return "DEBUG"
	case TRACE:
		return "TRACE"
	}
	return "UNKNOWN"
}

type NullWriter struct {
	io.Writer
}

func (s *NullWriter) Write(p []byte) (n int, err error) {
	return len(p), nil
}

// Loggers write nowhere until Initialize is called so that packages and
// tests can log freely without any setup.
func init() {
	Error = log.New(nullWriter, "ERROR: ", flags)
	Warn = log.New(nullWriter, "WARN:  ", flags)
	Info = log.New(nullWriter, "INFO:  ", flags)
	Debug = log.New(nullWriter, "DEBUG: ", flags)
	Trace = log.New(nullWriter, "TRACE: ", flags)
}

func Initialize(logLevel LogLevel) {
	log.Printf("Initialize loggers: '%s'", logLevel.String())
	currentLevel = logLevel

	writerFor := func(level LogLevel, writer io.Writer) io.Writer {
		if logLevel >= level {
			return writer
		}
		return nullWriter
	}

	Error = log.New(writerFor(ERROR, os.Stderr), "ERROR: ", flags)
	Warn = log.New(writerFor(WARN, os.Stdout), "WARN:  ", flags)
	Info = log.New(writerFor(INFO, os.Stdout), "INFO:  ", flags)
	Debug = log.New(writerFor(DEBUG, os.Stdout), "DEBUG: ", flags)
	Trace = log.New(writerFor(TRACE, os.Stdout), "TRACE: ", flags)
}

// IsLogLevel tells if messages of the given level are written anywhere.
func IsLogLevel(level LogLevel) bool {
	return currentLevel >= level
}
