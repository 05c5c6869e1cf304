package utils

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

const (
	// MaxPluginOutputLength bounds check output stored per incident
	MaxPluginOutputLength = 4096

	// MaxCommentLength bounds user and monitoring comments
	MaxCommentLength = 10000
)

// Control characters except tab, newline and carriage return
var controlCharPattern = regexp.MustCompile(`[\x00-\x08\x0B\x0C\x0E-\x1F\x7F]`)

// SanitizePluginOutput cleans check output before it is persisted. The
// status file is written by arbitrary check plugins, so the output can
// carry control characters or be unbounded in size.
func SanitizePluginOutput(output string) string {
	output = controlCharPattern.ReplaceAllString(output, "")
	output = strings.TrimSpace(output)
	return truncateAtRune(output, MaxPluginOutputLength)
}

// SanitizeCommentText cleans comment bodies from users and from the
// monitoring daemon's comment blocks
func SanitizeCommentText(text string) string {
	text = controlCharPattern.ReplaceAllString(text, "")
	text = strings.TrimSpace(text)
	return truncateAtRune(text, MaxCommentLength)
}

// EscapeForLogging flattens text onto one line and truncates it so a
// hostile plugin output cannot corrupt the log stream
func EscapeForLogging(text string, maxLen int) string {
	if len(text) > maxLen {
		text = truncateAtRune(text, maxLen) + "..."
	}
	text = strings.ReplaceAll(text, "\n", "\\n")
	text = strings.ReplaceAll(text, "\r", "\\r")
	text = strings.ReplaceAll(text, "\t", "\\t")
	return text
}

// truncateAtRune cuts text at no more than max bytes without splitting a
// multi-byte UTF-8 sequence
func truncateAtRune(text string, max int) string {
	if len(text) <= max {
		return text
	}
	cut := max
	for cut > 0 && !utf8.RuneStart(text[cut]) {
		cut--
	}
	return text[:cut]
}
