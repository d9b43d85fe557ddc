// Package sanitize strips the markdown an LLM tends to emit so the explanation reads
// as plain prose in the tree view and when spoken.
package sanitize

import (
	"regexp"
	"strings"
)

// Stage is one named text transformation.
type Stage struct {
	Name  string
	Apply func(string) string
}

// Pipeline runs its stages in order. Order matters: later stages match text that
// earlier ones expose.
type Pipeline []Stage

var (
	fencedBlockRe = regexp.MustCompile("(?s)```[^\\n`]*\\n(.*?)```")
	boldRe        = regexp.MustCompile(`\*\*(.*?)\*\*`)
	underlineRe   = regexp.MustCompile(`__(.*?)__`)
	inlineCodeRe  = regexp.MustCompile("`([^`]*)`")
	languageTagRe = regexp.MustCompile(`(?im)^[ \t]*(?:c\+\+|c#|cpp|c|js|javascript|ts|typescript|py|python|java|go|golang|rust|bash|sh|shell|json|yaml|html|css|sql|text|plaintext)[ \t]*$`)
	whitespaceRe  = regexp.MustCompile(`\s+`)
)

// FencedBlocks keeps only the body of ``` fenced blocks, whatever the language tag.
var FencedBlocks = Stage{
	Name: "fenced_blocks",
	Apply: func(s string) string {
		return fencedBlockRe.ReplaceAllString(s, "$1")
	},
}

// Emphasis unwraps **bold** and __underline__.
var Emphasis = Stage{
	Name: "emphasis",
	Apply: func(s string) string {
		s = boldRe.ReplaceAllString(s, "$1")
		return underlineRe.ReplaceAllString(s, "$1")
	},
}

// InlineCode unwraps `code`.
var InlineCode = Stage{
	Name: "inline_code",
	Apply: func(s string) string {
		return inlineCodeRe.ReplaceAllString(s, "$1")
	},
}

// LanguageTags drops lines that hold nothing but a fence language tag.
var LanguageTags = Stage{
	Name: "language_tags",
	Apply: func(s string) string {
		return languageTagRe.ReplaceAllString(s, "")
	},
}

// Whitespace collapses every run of whitespace to one space and trims.
var Whitespace = Stage{
	Name: "whitespace",
	Apply: func(s string) string {
		return strings.TrimSpace(whitespaceRe.ReplaceAllString(s, " "))
	},
}

var Default = Pipeline{FencedBlocks, Emphasis, InlineCode, LanguageTags, Whitespace}

// Run applies the stages in order, repeating the pass until the text is stable.
// Every stage only removes characters or turns whitespace into spaces, so the
// loop always terminates and Run(Run(x)) == Run(x).
func (p Pipeline) Run(s string) string {
	for {
		next := s
		for _, stage := range p {
			next = stage.Apply(next)
		}
		if next == s {
			return next
		}
		s = next
	}
}

// Names lists the stage names in execution order.
func (p Pipeline) Names() []string {
	names := make([]string, len(p))
	for i, stage := range p {
		names[i] = stage.Name
	}
	return names
}

func Sanitize(s string) string { return Default.Run(s) }
