package completeness

import (
	"encoding/json"
	"fmt"
	"go/parser"
	"go/token"
	"regexp"
	"strings"
)

// DefaultThreshold is the minimum score for a verdict to count as complete.
const DefaultThreshold = 0.95

const (
	veryShortLimit   = 50
	veryShortPenalty = 0.04
)

// truncationMarkers are substrings generators emit in place of elided code.
// Matched case-insensitively.
var truncationMarkers = []string{
	"# ... rest of code",
	"// ... rest of code",
	"# ... kode lainnya",
	"// ... kode lainnya",
	"# dan seterusnya",
	"// dan seterusnya",
	"# ... (rest omitted)",
	"// ... (rest omitted)",
	"[truncated]",
	"[continued]",
	"/* ... */",
	"<!-- ... -->",
	"...",
}

// stubPatterns match a definition whose body has been reduced to an ellipsis.
var stubPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?m)^[ \t]*(?:def|class)\s+\w[^\n]*:[ \t]*\n[ \t]*\.\.\.[ \t]*$`),
	regexp.MustCompile(`\{[ \t]*\n?[ \t]*\.\.\.[ \t]*\n?[ \t]*\}`),
}

// Verdict is the result of validating one piece of content.
type Verdict struct {
	Language        string   `json:"language"`
	Score           float64  `json:"completeness_score"`
	Issues          []string `json:"issues"`
	Warnings        []string `json:"warnings"`
	IsComplete      bool     `json:"is_complete"`
	HasSyntaxErrors bool     `json:"has_syntax_errors"`
}

// Validator scores generated file content for completeness. It is pure and
// safe for concurrent use.
type Validator struct {
	registry  *Registry
	threshold float64
}

// NewValidator creates a validator with the given score threshold.
// Pass DefaultThreshold unless configured otherwise.
func NewValidator(registry *Registry, threshold float64) *Validator {
	return &Validator{registry: registry, threshold: threshold}
}

// Threshold returns the configured completeness threshold.
func (v *Validator) Threshold() float64 {
	return v.threshold
}

// Validate scores content for the named file. A verdict is complete only when
// the score clears the threshold and no issues were found; the stricter
// conjunctive form is applied uniformly.
func (v *Validator) Validate(content, filename string) *Verdict {
	lang := v.registry.Lookup(filename)
	verdict := &Verdict{Language: lang.Name}

	if strings.TrimSpace(content) == "" {
		verdict.Issues = append(verdict.Issues, "file is empty")
		verdict.Score = 0.0
		return verdict
	}

	lower := strings.ToLower(content)
	for _, marker := range truncationMarkers {
		if strings.Contains(lower, marker) {
			verdict.Issues = append(verdict.Issues, fmt.Sprintf("truncation marker found: %q", marker))
		}
	}

	for _, pattern := range stubPatterns {
		if pattern.MatchString(content) {
			verdict.Issues = append(verdict.Issues, "stub definition with elided body")
		}
	}

	if issue, isSyntax := v.checkStructure(lang, content, filename); issue != "" {
		verdict.Issues = append(verdict.Issues, issue)
		verdict.HasSyntaxErrors = isSyntax
	}

	verdict.Score = 1.0
	if n := len(verdict.Issues); n > 0 {
		penalty := 0.2 + 0.15*float64(n)
		if penalty > 0.9 {
			penalty = 0.9
		}
		verdict.Score = 1.0 - penalty
	} else if len(content) < veryShortLimit {
		verdict.Warnings = append(verdict.Warnings, "file is very short")
		verdict.Score -= veryShortPenalty
	}

	verdict.IsComplete = verdict.Score >= v.threshold && len(verdict.Issues) == 0
	return verdict
}

func (v *Validator) checkStructure(lang *Language, content, filename string) (issue string, isSyntax bool) {
	switch lang.Check {
	case CheckGo:
		fset := token.NewFileSet()
		if _, err := parser.ParseFile(fset, filename, content, 0); err != nil {
			return fmt.Sprintf("SyntaxError: %v", err), true
		}
	case CheckJSON:
		if !json.Valid([]byte(content)) {
			return "SyntaxError: invalid JSON document", true
		}
	case CheckPython:
		if issue := checkBrackets(content); issue != "" {
			return issue, true
		}
		if issue := checkPythonBlockHeaders(content); issue != "" {
			return issue, true
		}
	case CheckBrackets:
		if issue := checkBrackets(content); issue != "" {
			return issue, true
		}
	}
	return "", false
}

// checkBrackets is a balance heuristic over (), [], {}. It ignores string
// context on purpose; a spurious imbalance just routes the draft to review.
func checkBrackets(content string) string {
	var round, square, curly int
	for _, r := range content {
		switch r {
		case '(':
			round++
		case ')':
			round--
		case '[':
			square++
		case ']':
			square--
		case '{':
			curly++
		case '}':
			curly--
		}
	}
	if round != 0 || square != 0 || curly != 0 {
		return fmt.Sprintf("SyntaxError: unbalanced brackets (round %+d, square %+d, curly %+d)", round, square, curly)
	}
	return ""
}

// checkPythonBlockHeaders flags a file whose last statement opens a block
// that never got a body, a common shape for output cut mid-function.
func checkPythonBlockHeaders(content string) string {
	lines := strings.Split(content, "\n")
	for i := len(lines) - 1; i >= 0; i-- {
		line := strings.TrimSpace(lines[i])
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		if strings.HasSuffix(line, ":") {
			return "SyntaxError: block header at end of file with no body"
		}
		return ""
	}
	return ""
}
