// Package detect scans assembled generation output for fenced code regions
// and resolves each to a candidate target filename. It is a best-effort
// heuristic over markdown-ish text, not a parser.
package detect

import (
	"regexp"
	"strings"
)

// FileUpdate is one fenced code block resolved to a filename.
type FileUpdate struct {
	Filename string
	Code     string
}

// pathToken matches a path-like token: contains a dot and only path characters.
var pathToken = regexp.MustCompile(`[A-Za-z0-9_\-./]*[A-Za-z0-9_\-]\.[A-Za-z][A-Za-z0-9]*`)

// langTag matches a bare language tag with no dot (e.g. "python", "go").
var langTag = regexp.MustCompile(`^[A-Za-z0-9+#_-]+$`)

// updateVerbs are the cues that a preceding prose line names the file the
// next fence rewrites.
var updateVerbs = []string{"update", "modify", "change", "fix", "in "}

// Detector extracts file updates from assembled text.
type Detector struct{}

// NewDetector creates a detector
func NewDetector() *Detector {
	return &Detector{}
}

// Detect walks the text line by line tracking fence markers. A fence opening
// line may carry a language tag followed by a path-like token; failing that,
// the nearest preceding prose line is consulted when it pairs a path-like
// token with an update verb. Only closed fences with a resolved filename
// yield entries. Unterminated fences yield nothing.
func (d *Detector) Detect(text string) []FileUpdate {
	lines := strings.Split(text, "\n")

	var updates []FileUpdate
	var inFence bool
	var filename string
	var code []string

	for i, line := range lines {
		trimmed := strings.TrimSpace(line)

		if !strings.HasPrefix(trimmed, "```") {
			if inFence {
				code = append(code, line)
			}
			continue
		}

		if !inFence {
			inFence = true
			code = nil
			filename = filenameFromFenceLine(trimmed)
			if filename == "" {
				filename = filenameFromContext(lines, i)
			}
			continue
		}

		inFence = false
		if filename != "" {
			updates = append(updates, FileUpdate{
				Filename: filename,
				Code:     strings.Join(code, "\n"),
			})
		}
		filename = ""
		code = nil
	}

	return updates
}

// filenameFromFenceLine parses a fence opening line such as
// "```python app/main.py" or "```cmd/server/main.go".
func filenameFromFenceLine(line string) string {
	rest := strings.TrimSpace(strings.TrimPrefix(line, "```"))
	if rest == "" {
		return ""
	}

	fields := strings.Fields(rest)
	for idx, field := range fields {
		if token := pathToken.FindString(field); token != "" && token == field {
			return token
		}
		// the first field may be a plain language tag; anything after it
		// that is not path-like ends the scan
		if idx == 0 && langTag.MatchString(field) {
			continue
		}
		break
	}
	return ""
}

// filenameFromContext looks upward from the fence for the nearest prose line
// pairing an update verb with a path-like token.
func filenameFromContext(lines []string, fenceIdx int) string {
	for i := fenceIdx - 1; i >= 0; i-- {
		trimmed := strings.TrimSpace(lines[i])
		if trimmed == "" || strings.HasPrefix(trimmed, "```") {
			if trimmed == "" {
				continue
			}
			return ""
		}

		lower := strings.ToLower(trimmed)
		for _, verb := range updateVerbs {
			if strings.Contains(lower, verb) {
				if token := pathToken.FindString(strings.Trim(trimmed, "`*_")); token != "" {
					return strings.Trim(token, ".")
				}
			}
		}
		return ""
	}
	return ""
}
