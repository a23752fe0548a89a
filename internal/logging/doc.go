// Package logging provides leveled logging for photo-journal.
//
// Levels, lowest first: DEBUG, INFO, WARN, ERROR and FATAL. FATAL exits the
// process. LOG_LEVEL picks the threshold; DEBUG=true is shorthand for
// LOG_LEVEL=debug.
//
// Engine components do not call the package functions for failure reporting.
// They receive a Logger at construction time; Default forwards to the
// leveled functions, Discard drops everything and Recorder keeps entries for
// tests.
package logging
