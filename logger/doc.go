// Package logger provides structured logging for voicekit built on
// zerolog. Components obtain tagged child loggers via WithComponent; a
// package-level global serves code without an injected logger.
package logger
