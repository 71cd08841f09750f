package llm

import "regexp"

var anyFence = regexp.MustCompile("(?s)```.*?\n(.*?)```")

// FirstFencedBlock extracts the content of the first fenced code block in a
// completion, regardless of language tag. Responses with no fence are used
// verbatim as a fallback.
func FirstFencedBlock(s string) string {
	if m := anyFence.FindStringSubmatch(s); m != nil {
		return m[1]
	}
	return s
}

// FirstFencedBlockTagged extracts the first fenced block tagged with any of
// the given language names. It returns false when no such block exists.
func FirstFencedBlockTagged(s string, tags ...string) (string, bool) {
	for _, tag := range tags {
		re := regexp.MustCompile("(?s)```" + regexp.QuoteMeta(tag) + "[ \t]*\n(.*?)\n?```")
		if m := re.FindStringSubmatch(s); m != nil {
			return m[1], true
		}
	}
	return "", false
}
