package catalog

import (
	"regexp"
	"strings"

	"github.com/poiesic/storefront/core"
)

// policyHeading matches a line holding only a bold title, e.g. "**Return Policy**".
var policyHeading = regexp.MustCompile(`\n\s*\*\*(.*?)\*\*\s*\n`)

// ParsePolicies splits a markdown policy document into titled sections.
// Text before the first heading is dropped. A document without headings
// becomes a single "General" policy. A repeated title replaces the earlier
// body in place.
func ParsePolicies(content string) []core.Policy {
	matches := policyHeading.FindAllStringSubmatchIndex(content, -1)
	if len(matches) == 0 {
		return []core.Policy{{Title: "General", Body: content}}
	}

	policies := make([]core.Policy, 0, len(matches))
	positions := make(map[string]int, len(matches))
	for i, m := range matches {
		title := strings.TrimSpace(content[m[2]:m[3]])
		end := len(content)
		if i+1 < len(matches) {
			end = matches[i+1][0]
		}
		body := strings.TrimSpace(content[m[1]:end])
		if pos, ok := positions[title]; ok {
			policies[pos].Body = body
			continue
		}
		positions[title] = len(policies)
		policies = append(policies, core.Policy{Title: title, Body: body})
	}
	return policies
}
