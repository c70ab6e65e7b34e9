package helpscout

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/go-resty/resty/v2"
)

// restyLogger routes resty's internal messages into slog.
type restyLogger struct {
	logger *slog.Logger
}

var _ resty.Logger = (*restyLogger)(nil)

func newRestyLogger(logger *slog.Logger) *restyLogger {
	return &restyLogger{logger: logger.With("source", "resty")}
}

func (l *restyLogger) Errorf(format string, v ...interface{}) {
	l.logger.Error(trim(format, v))
}

func (l *restyLogger) Warnf(format string, v ...interface{}) {
	l.logger.Warn(trim(format, v))
}

func (l *restyLogger) Debugf(format string, v ...interface{}) {
	l.logger.Debug(trim(format, v))
}

func trim(format string, v []interface{}) string {
	return strings.TrimSpace(fmt.Sprintf(format, v...))
}
