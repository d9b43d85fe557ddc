package utils

import "strings"

// NormalizeID canonicalises an error id taken from a URL.
func NormalizeID(id string) string {
	return strings.ToLower(strings.TrimSpace(id))
}

// NormalizeLines splits document text into lines, accepting CRLF endings.
func NormalizeLines(text string) []string {
	if text == "" {
		return nil
	}
	return strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n")
}
