// Package parser extracts lifecycle metadata from Markdown documents:
// frontmatter and title, the status header, and checklist markers.
package parser

import (
	"bytes"
	"strings"

	"gopkg.in/yaml.v3"
)

var fmDelim = []byte("---")

// frontmatter lists the YAML keys read from a document's leading block.
type frontmatter struct {
	Title string `yaml:"title"`
}

// Result holds the output of parsing a Markdown document.
type Result struct {
	HasFrontmatter bool
	Body           string
	Title          string
	Header         Header
}

// Parse extracts frontmatter, title, and status header from raw Markdown bytes.
func Parse(data []byte) *Result {
	fm, body, ok := splitFrontmatter(data)
	return &Result{
		HasFrontmatter: ok,
		Body:           body,
		Title:          deriveTitle(fm.Title, body),
		Header:         ParseHeader(data),
	}
}

// splitFrontmatter decodes a leading --- delimited YAML block. Documents
// without one, or with invalid YAML, are returned whole as body.
func splitFrontmatter(data []byte) (frontmatter, string, bool) {
	var fm frontmatter
	trimmed := bytes.TrimLeft(data, "\n\r")
	if !bytes.HasPrefix(trimmed, fmDelim) {
		return fm, string(data), false
	}

	block, rest, found := bytes.Cut(trimmed[len(fmDelim):], append([]byte("\n"), fmDelim...))
	if !found {
		return fm, string(data), false
	}
	if err := yaml.Unmarshal(block, &fm); err != nil {
		return frontmatter{}, string(data), false
	}
	return fm, strings.TrimLeft(string(rest), "\n\r"), true
}

// deriveTitle prefers the frontmatter title, then the first H1 heading.
func deriveTitle(fmTitle, body string) string {
	if t := strings.TrimSpace(fmTitle); t != "" {
		return t
	}
	for line := range strings.Lines(body) {
		if h, ok := strings.CutPrefix(strings.TrimSpace(line), "# "); ok {
			return strings.TrimSpace(h)
		}
	}
	return ""
}
