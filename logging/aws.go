package logging

import (
	"fmt"

	"github.com/aws/smithy-go/logging"
	"go.uber.org/zap"
)

// SDKLogger adapts a zap logger to the logging interface used by the AWS SDK.
type SDKLogger struct {
	log *zap.Logger
}

// NewSDKLogger returns a SDKLogger writing to log under the "aws" name.
func NewSDKLogger(log *zap.Logger) *SDKLogger {
	return &SDKLogger{log: log.Named("aws")}
}

// Logf implements logging.Logger
func (l *SDKLogger) Logf(classification logging.Classification, format string, v ...interface{}) {
	msg := fmt.Sprintf(format, v...)

	switch classification {
	case logging.Warn:
		l.log.Warn(msg)
	default:
		l.log.Debug(msg)
	}
}
