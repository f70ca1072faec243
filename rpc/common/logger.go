package common

import (
	"fmt"
	"io"
	"log"
	"os"
	"strings"
	"sync/atomic"

	"github.com/lni/dragonboat/v4/logger"
)

// LoggerNames lists every logger povms packages obtain from dragonboat
var LoggerNames = []string{"povms", "queue", "worker", "client", "transport", "cli"}

// levelLabels are the level columns of a log line
var levelLabels = map[logger.LogLevel]string{
	logger.CRITICAL: "PANIC",
	logger.ERROR:    "ERROR",
	logger.WARNING:  "WARN",
	logger.NOTICE:   "NOTE",
	logger.INFO:     "INFO",
	logger.DEBUG:    "DEBUG",
}

// levelNames maps the accepted --log-level values
var levelNames = map[string]logger.LogLevel{
	"debug":   logger.DEBUG,
	"info":    logger.INFO,
	"":        logger.INFO,
	"notice":  logger.NOTICE,
	"warning": logger.WARNING,
	"warn":    logger.WARNING,
	"error":   logger.ERROR,
}

// --------------------------------------------------------------------------
// Output
// --------------------------------------------------------------------------

// output is shared by every povms logger, redirecting it affects loggers that
// already exist
var output = log.New(os.Stdout, "", log.Ldate|log.Ltime)

// SetLogOutput redirects all povms log lines to w
func SetLogOutput(w io.Writer) {
	output.SetOutput(w)
}

func write(level logger.LogLevel, name, line string) {
	output.Printf("%-5s | %-15s | %s", levelLabels[level], name, line)
}

// --------------------------------------------------------------------------
// Logger (implements dragonboats logger.ILogger)
// --------------------------------------------------------------------------

// povmsLogger writes `LEVEL | name | message` lines to the shared output. The
// level may be changed while other goroutines log.
type povmsLogger struct {
	name  string
	level atomic.Int32
}

// CreateLogger implements the dragonboat logger.Factory
func CreateLogger(pkgName string) logger.ILogger {
	l := &povmsLogger{name: pkgName}
	l.level.Store(int32(logger.INFO))
	return l
}

func (l *povmsLogger) SetLevel(level logger.LogLevel) {
	l.level.Store(int32(level))
}

func (l *povmsLogger) Debugf(format string, args ...interface{}) {
	l.logf(logger.DEBUG, format, args...)
}

func (l *povmsLogger) Infof(format string, args ...interface{}) {
	l.logf(logger.INFO, format, args...)
}

func (l *povmsLogger) Warningf(format string, args ...interface{}) {
	l.logf(logger.WARNING, format, args...)
}

func (l *povmsLogger) Errorf(format string, args ...interface{}) {
	l.logf(logger.ERROR, format, args...)
}

// Panicf logs at every level and panics
func (l *povmsLogger) Panicf(format string, args ...interface{}) {
	message := fmt.Sprintf(format, args...)
	write(logger.CRITICAL, l.name, message)
	panic(message)
}

func (l *povmsLogger) logf(level logger.LogLevel, format string, args ...interface{}) {
	if logger.LogLevel(l.level.Load()) < level {
		return
	}
	write(level, l.name, fmt.Sprintf(format, args...))
}

// --------------------------------------------------------------------------
// Initialization
// --------------------------------------------------------------------------

// ParseLogLevel converts a string level to logger.LogLevel
func ParseLogLevel(level string) (logger.LogLevel, error) {
	if l, ok := levelNames[strings.ToLower(level)]; ok {
		return l, nil
	}
	return logger.INFO, fmt.Errorf("invalid log level: %s. must be one of debug, info, notice, warn, error", level)
}

// InitLoggers installs the custom factory and sets the level of all povms loggers
func InitLoggers(config ContextConfig) error {
	level, err := ParseLogLevel(config.LogLevel)
	if err != nil {
		return err
	}

	logger.SetLoggerFactory(CreateLogger)

	for _, name := range LoggerNames {
		logger.GetLogger(name).SetLevel(level)
	}
	return nil
}
