// Package normalize canonicalizes raw error text before matching.
//
// Every stage of the pipeline (rules, classifier, retrieval) operates on the
// same normalized form, so the feature space seen at inference time matches
// the one the artifacts were fitted against.
package normalize

import (
	"regexp"
	"strings"
)

var (
	whitespaceRe  = regexp.MustCompile(`\s+`)
	windowsPathRe = regexp.MustCompile(`[A-Za-z]:\\(?:[^\\\n ]+\\)*[^\\\n ]+`)
	unixPathRe    = regexp.MustCompile(`(?:/[^/\n ]+)+`)
	lineNumberRe  = regexp.MustCompile(`(?i)\bline\s+\d+\b`)
	hexRe         = regexp.MustCompile(`\b0x[0-9a-fA-F]+\b`)
	quotedStrRe   = regexp.MustCompile(`'[^'\n]*'|"[^"\n]*"`)
	plainIntRe    = regexp.MustCompile(`\b\d+\b`)
)

// Text canonicalizes raw input: lowercase, volatile token replacement
// (paths, line numbers, hex, quoted strings, integers) and whitespace
// collapse. It always succeeds; empty input yields empty output.
func Text(raw string) string {
	t := strings.ToLower(strings.TrimSpace(raw))
	if t == "" {
		return ""
	}

	t = windowsPathRe.ReplaceAllString(t, "<path>")
	t = unixPathRe.ReplaceAllString(t, "<path>")
	t = lineNumberRe.ReplaceAllString(t, "line <line>")
	t = hexRe.ReplaceAllString(t, "<hex>")
	t = quotedStrRe.ReplaceAllString(t, "<str>")
	t = plainIntRe.ReplaceAllString(t, "<num>")

	return strings.TrimSpace(whitespaceRe.ReplaceAllString(t, " "))
}

// Combine joins the error text with an optional code snippet for model and
// retrieval input. Rules run on the error text alone, so the snippet is
// appended behind a marker rather than interleaved.
func Combine(errText, code string) string {
	if strings.TrimSpace(code) == "" {
		return errText
	}
	return errText + "\n<code>\n" + code
}
