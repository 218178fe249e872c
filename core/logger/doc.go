// Package logger is a standardized event logging framework for the
// interpreter. Events are written as newline delimited JSON, one object per
// event, and can be aggregated into reports.
package logger
