// Package ttylog records and replays terminal sessions.
//
// Sessions are recorded in the asciicast v2 format used by asciinema. Logs
// in the older user-mode-linux TTY format can be read and converted.
package ttylog
