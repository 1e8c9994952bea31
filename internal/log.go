package internal

import (
	"fmt"
	"log"
	"os"
)

// Logging is implemented by anything with a Printf, such as *log.Logger.
type Logging interface {
	Printf(format string, v ...interface{})
}

// logger keeps the caller's file and line in the output.
type logger struct {
	log *log.Logger
}

func (l *logger) Printf(format string, v ...interface{}) {
	_ = l.log.Output(2, fmt.Sprintf(format, v...))
}

type discard struct{}

func (discard) Printf(string, ...interface{}) {}

var l Logging = &logger{
	log: log.New(os.Stdout, "changelock: ", log.LstdFlags|log.Lshortfile),
}

// SetLogger replaces the package logger, nil silences it.
func SetLogger(logger Logging) {
	if logger == nil {
		logger = discard{}
	}
	l = logger
}

// GetLogger returns the logger every package of the module writes to.
func GetLogger() Logging {
	return l
}
