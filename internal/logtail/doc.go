// Package logtail reads the tail of roster's log file for the TUI log view.
//
// # Reading
//
// Read keeps a ring buffer of maxLines entries and scans the file once, so
// memory stays O(maxLines) however large the file grows. A missing file reads
// as empty; other I/O errors are returned wrapped.
//
// # Parsing and colour
//
// Parse understands the line shape written by the logger package:
//
//	2025-10-08 21:01:05 INFO [controller] – add applied op=add status=201
//
// Colorize renders the parts with a lipgloss Palette, and Filter drops lines
// below a minimum level. Lines that do not match (stack traces, output from
// other tools) pass through untouched.
package logtail
