// Package ansi provides the ANSI SGR constants used for styled terminal
// output. All colored output should reference these to avoid duplication.
package ansi

const (
	Reset   = "\033[0m"
	Bold    = "\033[1m"
	Dim     = "\033[2m"
	Yellow  = "\033[33m"
	Green   = "\033[32m"
	Red     = "\033[31m"
	Cyan    = "\033[36m"
	Magenta = "\033[35m"
)
