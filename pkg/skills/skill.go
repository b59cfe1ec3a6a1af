// Package skills provides an agentic skills system where the model can
// autonomously invoke specialized capabilities based on task context.
// Skills are packaged as directories containing a SKILL.md file with
// YAML frontmatter describing the skill's purpose and instructions.
package skills

import (
	"sort"
	"strings"
)

// Skill represents a discovered skill with its metadata
type Skill struct {
	Name           string            // Unique name from frontmatter
	Description    string            // Brief description for model decision-making
	Directory      string            // Full path to the skill directory
	Content        string            // Full content of SKILL.md (body, not frontmatter)
	AllowedTools   []string          // Tool patterns the skill is allowed to use, e.g. "Bash(git:*)"
	DefaultOptions map[string]string // Default option values applied when the skill runs
}

// BashPatterns extracts command glob patterns from the skill's allowed-tools
// entries of the form "Bash(name:*)" (the command with any arguments) or
// "Bash(name)" (the bare command).
func (s *Skill) BashPatterns() []string {
	var patterns []string
	for _, entry := range s.AllowedTools {
		entry = strings.TrimSpace(entry)
		if !strings.HasPrefix(entry, "Bash(") || !strings.HasSuffix(entry, ")") {
			continue
		}

		pattern := entry[len("Bash(") : len(entry)-1]
		if pattern == "" {
			continue
		}
		if name, ok := strings.CutSuffix(pattern, ":*"); ok {
			patterns = append(patterns, name, name+" *")
			continue
		}
		patterns = append(patterns, pattern)
	}
	return patterns
}

// BashAllowlistPatterns collects the bash command patterns declared by all
// discovered skills, in skill-name order.
func BashAllowlistPatterns(skills map[string]*Skill) []string {
	names := make([]string, 0, len(skills))
	for name := range skills {
		names = append(names, name)
	}
	sort.Strings(names)

	var patterns []string
	seen := make(map[string]bool)
	for _, name := range names {
		for _, pattern := range skills[name].BashPatterns() {
			if !seen[pattern] {
				seen[pattern] = true
				patterns = append(patterns, pattern)
			}
		}
	}
	return patterns
}
