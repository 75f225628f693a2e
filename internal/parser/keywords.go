package parser

import (
	"regexp"
	"sort"
	"strings"
)

// wordRe matches alphabetic tokens of three or more characters.
var wordRe = regexp.MustCompile(`\b[a-zA-Z]{3,}\b`)

// stopWords is the hard-coded stop list applied during keyword extraction.
var stopWords = map[string]bool{
	"the": true, "and": true, "for": true, "with": true, "you": true,
	"are": true, "our": true, "will": true, "have": true, "this": true,
	"that": true, "your": true, "from": true, "all": true, "can": true,
	"who": true, "has": true, "was": true, "but": true, "not": true,
	"their": true, "they": true, "them": true, "its": true, "into": true,
	"more": true, "than": true, "about": true, "been": true, "being": true,
	"work": true, "team": true, "role": true, "job": true, "experience": true,
	"skills": true, "ability": true, "years": true, "strong": true,
	"including": true, "across": true, "within": true, "using": true,
	"what": true, "when": true, "where": true, "how": true, "why": true,
	"would": true, "should": true, "could": true, "also": true, "other": true,
	"such": true, "these": true, "those": true, "each": true, "per": true,
}

// keywordLimit caps the number of extracted keywords.
const keywordLimit = 20

// ExtractKeywords tokenizes the text, drops stop words and non-alphabetic
// tokens, and returns the top 20 tokens by frequency. Ties are broken
// alphabetically to keep the output deterministic.
func ExtractKeywords(text string) []string {
	counts := make(map[string]int)
	for _, token := range wordRe.FindAllString(strings.ToLower(text), -1) {
		if stopWords[token] {
			continue
		}
		counts[token]++
	}

	tokens := make([]string, 0, len(counts))
	for token := range counts {
		tokens = append(tokens, token)
	}
	sort.Slice(tokens, func(i, j int) bool {
		if counts[tokens[i]] != counts[tokens[j]] {
			return counts[tokens[i]] > counts[tokens[j]]
		}
		return tokens[i] < tokens[j]
	})

	if len(tokens) > keywordLimit {
		tokens = tokens[:keywordLimit]
	}
	return tokens
}
