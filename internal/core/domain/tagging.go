package domain

import "strings"

// TagRule maps a filename substring to a source tag.
type TagRule struct {
	// Substring is matched case-insensitively against the basename.
	Substring string

	// Tag is assigned on match.
	Tag SourceTag
}

// TagRules is an ordered rule list; the first matching rule wins.
// The mapping is deliberately configurable because substring heuristics
// are ambiguous for non-conforming filenames.
type TagRules []TagRule

// DefaultTagRules returns the built-in filename heuristics.
func DefaultTagRules() TagRules {
	return TagRules{
		{Substring: "style", Tag: TagStyleGuide},
		{Substring: "guide", Tag: TagStyleGuide},
		{Substring: "example", Tag: TagExamplePost},
		{Substring: "post", Tag: TagExamplePost},
		{Substring: "knowledge", Tag: TagKnowledgeBase},
		{Substring: "kb", Tag: TagKnowledgeBase},
		{Substring: "feedback", Tag: TagFeedback},
	}
}

// Infer returns the tag for a filename and whether any rule matched.
// Unmatched files fall back to TagOther; callers should surface the
// fallback rather than silently mis-tag.
func (r TagRules) Infer(filename string) (SourceTag, bool) {
	name := strings.ToLower(filename)
	for _, rule := range r {
		if rule.Substring != "" && strings.Contains(name, strings.ToLower(rule.Substring)) {
			return rule.Tag, true
		}
	}
	return TagOther, false
}
