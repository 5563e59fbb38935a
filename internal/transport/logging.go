// Copyright (c) 2024-2026 Voxlink AI
// Author: Voxlink Engineering <engineering@voxlink.ai>
//
// Licensed under GPL-2.0 with Voxlink Additional Terms.
// See LICENSE.md or contact sales@voxlink.ai for commercial usage.
package transport

import (
	"github.com/pion/logging"

	"github.com/voxlink-ai/voxlink/pkg/commons"
)

// pionLoggerFactory routes pion's internal logging through the application
// logger so ICE/DTLS diagnostics land in the same stream as everything else.
type pionLoggerFactory struct {
	logger commons.Logger
}

func newPionLoggerFactory(logger commons.Logger) logging.LoggerFactory {
	return &pionLoggerFactory{logger: logger}
}

func (f *pionLoggerFactory) NewLogger(scope string) logging.LeveledLogger {
	return &pionLogger{logger: f.logger, scope: scope}
}

type pionLogger struct {
	logger commons.Logger
	scope  string
}

// Trace-level pion output maps to debug; it is too chatty for anything more.
func (l *pionLogger) Trace(msg string) { l.logger.Debugw(msg, "scope", l.scope) }
func (l *pionLogger) Tracef(format string, args ...interface{}) {
	l.logger.Debugf("["+l.scope+"] "+format, args...)
}
func (l *pionLogger) Debug(msg string) { l.logger.Debugw(msg, "scope", l.scope) }
func (l *pionLogger) Debugf(format string, args ...interface{}) {
	l.logger.Debugf("["+l.scope+"] "+format, args...)
}
func (l *pionLogger) Info(msg string) { l.logger.Infow(msg, "scope", l.scope) }
func (l *pionLogger) Infof(format string, args ...interface{}) {
	l.logger.Infof("["+l.scope+"] "+format, args...)
}
func (l *pionLogger) Warn(msg string) { l.logger.Warnw(msg, "scope", l.scope) }
func (l *pionLogger) Warnf(format string, args ...interface{}) {
	l.logger.Warnf("["+l.scope+"] "+format, args...)
}
func (l *pionLogger) Error(msg string) { l.logger.Errorw(msg, "scope", l.scope) }
func (l *pionLogger) Errorf(format string, args ...interface{}) {
	l.logger.Errorf("["+l.scope+"] "+format, args...)
}
