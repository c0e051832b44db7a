package logger

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Field алиас для zap-полей
type Field = zapcore.Field

var (
	String   = zap.String
	Int      = zap.Int
	Int64    = zap.Int64
	Float64  = zap.Float64
	Bool     = zap.Bool
	Time     = zap.Time
	Duration = zap.Duration
	Error    = zap.Error
	Any      = zap.Any
)

// Logger — обертка над zap.Logger
type Logger struct {
	*zap.Logger
}

// New создает логгер; в dev-режиме — человекочитаемый вывод
func New(dev bool) (*Logger, error) {
	var (
		zl  *zap.Logger
		err error
	)
	if dev {
		zl, err = zap.NewDevelopment()
	} else {
		zl, err = zap.NewProduction()
	}
	if err != nil {
		return nil, err
	}
	return &Logger{zl}, nil
}

// Named возвращает логгер с именем подсистемы
func (l *Logger) Named(name string) *Logger {
	return &Logger{l.Logger.Named(name)}
}
