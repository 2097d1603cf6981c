/*
 * MIT License
 *
 * Copyright (c) 2020 Nicolas JUHEL
 *
 * Permission is hereby granted, free of charge, to any person obtaining a copy
 * of this software and associated documentation files (the "Software"), to deal
 * in the Software without restriction, including without limitation the rights
 * to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
 * copies of the Software, and to permit persons to whom the Software is
 * furnished to do so, subject to the following conditions:
 *
 * The above copyright notice and this permission notice shall be included in all
 * copies or substantial portions of the Software.
 *
 * THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
 * IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
 * FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
 * AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
 * LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
 * OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
 * SOFTWARE.
 *
 *
 */

// Package logger is a thin structured-logging facade over logrus, scoped to what the
// registry and transport clients need: a handful of fields plus a severity level, gated by
// the per-instance debug flag passed to create_instance.
package logger

import (
	"sync"

	"github.com/sirupsen/logrus"
)

// Entry is a single log line under construction; fields accumulate then Log emits it.
type Entry struct {
	log   *logrus.Logger
	level logrus.Level
	flds  logrus.Fields
}

// FieldAdd attaches a field to the entry and returns the entry for chaining.
func (e *Entry) FieldAdd(key string, val interface{}) *Entry {
	if e.flds == nil {
		e.flds = make(logrus.Fields)
	}
	e.flds[key] = val
	return e
}

// ErrorAdd attaches an error field when err is non-nil; no-op otherwise.
func (e *Entry) ErrorAdd(err error) *Entry {
	if err != nil {
		e.FieldAdd("error", err.Error())
	}
	return e
}

// Log emits the entry at its configured level with the accumulated fields and message.
func (e *Entry) Log(message string) {
	e.log.WithFields(e.flds).Log(e.level, message)
}

// Logger is the facade exposed to the rest of the SDK: one Entry-builder method per level.
type Logger interface {
	Debug() *Entry
	Info() *Entry
	Warning() *Entry
	Error() *Entry
}

type logger struct {
	mu    sync.RWMutex
	log   *logrus.Logger
	debug bool
}

func (l *logger) entry(lvl logrus.Level) *Entry {
	l.mu.RLock()
	defer l.mu.RUnlock()

	if lvl == logrus.DebugLevel && !l.debug {
		lvl = logrus.TraceLevel
	}

	return &Entry{log: l.log, level: lvl}
}

func (l *logger) Debug() *Entry   { return l.entry(logrus.DebugLevel) }
func (l *logger) Info() *Entry    { return l.entry(logrus.InfoLevel) }
func (l *logger) Warning() *Entry { return l.entry(logrus.WarnLevel) }
func (l *logger) Error() *Entry   { return l.entry(logrus.ErrorLevel) }

// New returns a Logger; when debug is false, Debug() entries are demoted to trace level so a
// default logrus configuration (Info and above) silently drops them.
func New(debug bool) Logger {
	l := logrus.New()
	l.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})

	return &logger{
		log:   l,
		debug: debug,
	}
}

var (
	defMu  sync.Mutex
	defLog Logger
)

// Default returns (and lazily creates) a package-wide fallback logger, used by call sites
// that are not tied to a single instance's debug flag (e.g. the Tor singleton, which is
// process-wide by construction).
func Default() Logger {
	defMu.Lock()
	defer defMu.Unlock()

	if defLog == nil {
		defLog = New(false)
	}

	return defLog
}
