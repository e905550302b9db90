/*
 * Copyright 2025 The Monbridge Authors.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

// Package logger provides JSON structured logging using zerolog, with an
// optional OTLP export path.
package logger

import (
	"context"
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
)

// Logger is the logging interface injected into every service component.
type Logger interface {
	Trace() *zerolog.Event
	Debug() *zerolog.Event
	Info() *zerolog.Event
	Warn() *zerolog.Event
	Error() *zerolog.Event
	Fatal() *zerolog.Event
	Panic() *zerolog.Event
	With() zerolog.Context
	WithComponent(component string) zerolog.Logger
	WithFields(fields map[string]interface{}) zerolog.Logger
	SetLevel(level zerolog.Level)
	SetDebug(debug bool)
}

type logImpl struct {
	logger zerolog.Logger
}

// New builds a logger from the configuration. The component name is stamped
// on every record. The context is used to dial the OTLP exporter when OTel
// export is enabled.
func New(ctx context.Context, component string, config *Config) (Logger, error) {
	if config == nil {
		config = DefaultConfig()
	}

	var output io.Writer = os.Stdout
	if config.Output == "stderr" {
		output = os.Stderr
	}

	level := zerolog.InfoLevel

	if config.Debug {
		level = zerolog.DebugLevel
	} else if config.Level != "" {
		var err error

		level, err = zerolog.ParseLevel(config.Level)
		if err != nil {
			return nil, err
		}
	}

	timeFormat := time.RFC3339
	if config.TimeFormat != "" {
		timeFormat = config.TimeFormat
	}

	zerolog.TimeFieldFormat = timeFormat

	if config.OTel.Enabled && config.OTel.Endpoint != "" {
		otelWriter, err := NewOTelWriter(ctx, config.OTel)
		if err != nil {
			return nil, err
		}

		output = NewMultiWriter(output, otelWriter)
	}

	zlog := zerolog.New(output).
		Level(level).
		With().
		Timestamp().
		Logger()

	if component != "" {
		zlog = zlog.With().Str("component", component).Logger()
	}

	return &logImpl{logger: zlog}, nil
}

func (l *logImpl) Trace() *zerolog.Event { return l.logger.Trace() }
func (l *logImpl) Debug() *zerolog.Event { return l.logger.Debug() }
func (l *logImpl) Info() *zerolog.Event  { return l.logger.Info() }
func (l *logImpl) Warn() *zerolog.Event  { return l.logger.Warn() }
func (l *logImpl) Error() *zerolog.Event { return l.logger.Error() }
func (l *logImpl) Fatal() *zerolog.Event { return l.logger.Fatal() }
func (l *logImpl) Panic() *zerolog.Event { return l.logger.Panic() }
func (l *logImpl) With() zerolog.Context { return l.logger.With() }

func (l *logImpl) WithComponent(component string) zerolog.Logger {
	return l.logger.With().Str("component", component).Logger()
}

func (l *logImpl) WithFields(fields map[string]interface{}) zerolog.Logger {
	ctx := l.logger.With()
	for key, value := range fields {
		ctx = ctx.Interface(key, value)
	}

	return ctx.Logger()
}

func (l *logImpl) SetLevel(level zerolog.Level) {
	l.logger = l.logger.Level(level)
}

func (l *logImpl) SetDebug(debug bool) {
	if debug {
		l.SetLevel(zerolog.DebugLevel)
	} else {
		l.SetLevel(zerolog.InfoLevel)
	}
}

// NewTestLogger creates a no-op logger for testing that discards all output.
func NewTestLogger() Logger {
	return &logImpl{logger: zerolog.New(io.Discard).Level(zerolog.Disabled)}
}

// NewBasic returns a stderr warn-level logger for bootstrap paths that run
// before the configuration is loaded.
func NewBasic() Logger {
	return &logImpl{logger: zerolog.New(os.Stderr).Level(zerolog.WarnLevel).With().Timestamp().Logger()}
}

// MultiWriter fans a log line out to several writers. A failing secondary
// writer never blocks the primary one.
type MultiWriter struct {
	writers []io.Writer
}

// NewMultiWriter combines the given writers.
func NewMultiWriter(writers ...io.Writer) *MultiWriter {
	return &MultiWriter{writers: writers}
}

func (m *MultiWriter) Write(p []byte) (int, error) {
	for _, w := range m.writers {
		_, _ = w.Write(p)
	}

	return len(p), nil
}
