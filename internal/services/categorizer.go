package services

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/n1str/RationX/internal/models"
)

// MatchType selects how a rule keyword is compared to a description
type MatchType string

const (
	MatchSubstring MatchType = "substring"
	MatchExact     MatchType = "exact"
	MatchRegex     MatchType = "regex"
	MatchFuzzy     MatchType = "fuzzy"
)

// CategoryRule maps a keyword found in a transaction description to a
// category name. An empty Direction matches both directions.
type CategoryRule struct {
	Keyword             string                 `json:"keyword"`
	Category            string                 `json:"category"`
	Direction           models.TransactionType `json:"direction,omitempty"`
	Priority            int                    `json:"priority"`
	MatchType           MatchType              `json:"match_type"`
	SimilarityThreshold float64                `json:"similarity_threshold,omitempty"`
}

// DefaultCategoryRules point at the seeded default categories
var DefaultCategoryRules = []CategoryRule{
	{Keyword: "salary", Category: "Salary", Direction: models.TypeDebit, Priority: 10, MatchType: MatchSubstring},
	{Keyword: "payroll", Category: "Salary", Direction: models.TypeDebit, Priority: 10, MatchType: MatchSubstring},
	{Keyword: `(?i)\b(freelance|invoice\s*#?\d+)`, Category: "Side income", Direction: models.TypeDebit, Priority: 8, MatchType: MatchRegex},
	{Keyword: "dividend", Category: "Investments", Direction: models.TypeDebit, Priority: 8, MatchType: MatchSubstring},
	{Keyword: "interest", Category: "Investments", Direction: models.TypeDebit, Priority: 5, MatchType: MatchSubstring},
	{Keyword: "gift", Category: "Gifts", Priority: 5, MatchType: MatchSubstring},
	{Keyword: "supermarket", Category: "Groceries", Direction: models.TypeCredit, Priority: 8, MatchType: MatchSubstring},
	{Keyword: "grocery", Category: "Groceries", Direction: models.TypeCredit, Priority: 8, MatchType: MatchSubstring},
	{Keyword: "groceries", Category: "Groceries", Direction: models.TypeCredit, Priority: 3, MatchType: MatchFuzzy, SimilarityThreshold: 0.8},
	{Keyword: "electricity", Category: "Utilities", Direction: models.TypeCredit, Priority: 8, MatchType: MatchSubstring},
	{Keyword: "internet", Category: "Utilities", Direction: models.TypeCredit, Priority: 6, MatchType: MatchSubstring},
	{Keyword: "water supply", Category: "Utilities", Direction: models.TypeCredit, Priority: 6, MatchType: MatchSubstring},
	{Keyword: "taxi", Category: "Transport", Direction: models.TypeCredit, Priority: 8, MatchType: MatchSubstring},
	{Keyword: "metro", Category: "Transport", Direction: models.TypeCredit, Priority: 6, MatchType: MatchSubstring},
	{Keyword: "fuel", Category: "Transport", Direction: models.TypeCredit, Priority: 6, MatchType: MatchSubstring},
	{Keyword: "cinema", Category: "Entertainment", Direction: models.TypeCredit, Priority: 6, MatchType: MatchSubstring},
	{Keyword: "concert", Category: "Entertainment", Direction: models.TypeCredit, Priority: 6, MatchType: MatchSubstring},
	{Keyword: "pharmacy", Category: "Health", Direction: models.TypeCredit, Priority: 8, MatchType: MatchSubstring},
	{Keyword: "clinic", Category: "Health", Direction: models.TypeCredit, Priority: 8, MatchType: MatchSubstring},
	{Keyword: "clothes", Category: "Clothing", Direction: models.TypeCredit, Priority: 6, MatchType: MatchSubstring},
	{Keyword: "shoes", Category: "Clothing", Direction: models.TypeCredit, Priority: 6, MatchType: MatchSubstring},
	{Keyword: "tuition", Category: "Education", Direction: models.TypeCredit, Priority: 8, MatchType: MatchSubstring},
	{Keyword: "course", Category: "Education", Direction: models.TypeCredit, Priority: 5, MatchType: MatchSubstring},
}

// Categorizer suggests a category for a transaction description from a
// fixed rule set. It holds no mutable state and is safe for concurrent use.
type Categorizer struct {
	rules   []CategoryRule
	regexps map[string]*regexp.Regexp
}

// NewCategorizer compiles rules. Invalid regex rules are an error.
func NewCategorizer(rules []CategoryRule) (*Categorizer, error) {
	c := &Categorizer{
		rules:   rules,
		regexps: make(map[string]*regexp.Regexp),
	}
	for _, r := range rules {
		if r.MatchType != MatchRegex {
			continue
		}
		re, err := regexp.Compile(r.Keyword)
		if err != nil {
			return nil, fmt.Errorf("invalid regex rule %q: %w", r.Keyword, err)
		}
		c.regexps[r.Keyword] = re
	}
	return c, nil
}

// Rules returns the active rule set
func (c *Categorizer) Rules() []CategoryRule {
	return c.rules
}

// Categorize returns the category of the best matching rule, or "" when
// nothing matches. Higher priority wins; equal priority falls back to the
// match score.
func (c *Categorizer) Categorize(description string, direction models.TransactionType) string {
	desc := strings.ToLower(strings.TrimSpace(description))
	if desc == "" {
		return ""
	}

	var bestMatch string
	highestPriority := -1
	highestScore := 0.0

	for _, rule := range c.rules {
		if rule.Direction != "" && rule.Direction != direction {
			continue
		}
		matched, score := c.matchRule(desc, rule)
		if !matched {
			continue
		}
		if rule.Priority > highestPriority || (rule.Priority == highestPriority && score > highestScore) {
			bestMatch = rule.Category
			highestPriority = rule.Priority
			highestScore = score
		}
	}

	return bestMatch
}

// matchRule checks a lowercased description against one rule
func (c *Categorizer) matchRule(description string, rule CategoryRule) (bool, float64) {
	keyword := strings.ToLower(rule.Keyword)
	switch rule.MatchType {
	case MatchExact:
		return c.matchExact(description, keyword)
	case MatchRegex:
		return c.matchRegex(description, rule.Keyword)
	case MatchFuzzy:
		return c.matchFuzzy(description, keyword, rule.SimilarityThreshold)
	default:
		return c.matchSubstring(description, keyword)
	}
}

func (c *Categorizer) matchExact(description, keyword string) (bool, float64) {
	if description == keyword {
		return true, 1.0
	}
	return false, 0.0
}

// matchSubstring scores by how much of the description the keyword covers
func (c *Categorizer) matchSubstring(description, keyword string) (bool, float64) {
	if keyword == "" || !strings.Contains(description, keyword) {
		return false, 0.0
	}
	return true, float64(len(keyword)) / float64(len(description))
}

func (c *Categorizer) matchRegex(description, pattern string) (bool, float64) {
	re, ok := c.regexps[pattern]
	if !ok {
		return false, 0.0
	}
	if re.MatchString(description) {
		return true, 0.8
	}
	return false, 0.0
}

// matchFuzzy compares the keyword with the whole description and with each
// word of it using Levenshtein similarity
func (c *Categorizer) matchFuzzy(description, keyword string, threshold float64) (bool, float64) {
	if strings.Contains(description, keyword) {
		return true, 1.0
	}

	best := similarity(description, keyword)
	if best >= threshold {
		return true, best
	}
	for _, word := range strings.Fields(description) {
		s := similarity(word, keyword)
		if s >= threshold {
			return true, s
		}
		best = max(best, s)
	}
	return false, best
}

// similarity returns 1 for identical strings and 0 for nothing in common
func similarity(s1, s2 string) float64 {
	r1, r2 := []rune(s1), []rune(s2)
	if len(r1) == 0 && len(r2) == 0 {
		return 1.0
	}
	if len(r1) == 0 || len(r2) == 0 {
		return 0.0
	}
	distance := levenshteinDistance(r1, r2)
	return 1.0 - float64(distance)/float64(max(len(r1), len(r2)))
}

func levenshteinDistance(s1, s2 []rune) int {
	prev := make([]int, len(s2)+1)
	curr := make([]int, len(s2)+1)
	for j := range prev {
		prev[j] = j
	}

	for i := 1; i <= len(s1); i++ {
		curr[0] = i
		for j := 1; j <= len(s2); j++ {
			cost := 1
			if s1[i-1] == s2[j-1] {
				cost = 0
			}
			curr[j] = min(
				prev[j]+1,      // deletion
				curr[j-1]+1,    // insertion
				prev[j-1]+cost, // substitution
			)
		}
		prev, curr = curr, prev
	}

	return prev[len(s2)]
}
