// Package skillset assembles the resume's skills section from validated,
// job-required and complementary skills, without inventing anything the
// candidate hasn't claimed.
package skillset

import (
	"regexp"
	"strings"
)

var skillSeparators = regexp.MustCompile(`[/\-.\s]+`)

// NormalizeSkill lowercases a skill name and strips separators so spelling
// variants compare equal ("Node.js" == "nodejs", "CI/CD" == "cicd").
func NormalizeSkill(skill string) string {
	return skillSeparators.ReplaceAllString(strings.ToLower(skill), "")
}

// FuzzyMatch reports whether two skills refer to the same thing: equal
// after normalization, or one contained in the other ("Postgres" matches
// "PostgreSQL").
func FuzzyMatch(a, b string) bool {
	na, nb := NormalizeSkill(a), NormalizeSkill(b)
	if na == "" || nb == "" {
		return na == nb
	}
	return na == nb || strings.Contains(na, nb) || strings.Contains(nb, na)
}

// MatchesAny reports whether skill fuzzy-matches any entry of list.
func MatchesAny(skill string, list []string) bool {
	for _, candidate := range list {
		if FuzzyMatch(skill, candidate) {
			return true
		}
	}
	return false
}
