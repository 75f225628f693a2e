// Package parser normalizes raw job records into canonical postings.
package parser

import (
	"net/url"
	"strings"
)

// deadCareersHosts are historically-dead "careers.*" host guesses produced by
// upstream aggregators. Postings pointing at them are rewritten to a search
// query so the link stays useful.
var deadCareersHosts = map[string]bool{
	"careers.amazonindia.com":  true,
	"careers.googleindia.com":  true,
	"careers.microsoftin.com":  true,
	"careers.flipkartjobs.com": true,
	"careers.infosysjobs.com":  true,
	"careers.tcsjobs.com":      true,
}

// CanonicalizeURL ensures the URL has a scheme and replaces known-dead hosts
// with a search-engine query of the form "{company} {title} jobs".
func CanonicalizeURL(rawURL, company, title string) string {
	if strings.TrimSpace(rawURL) == "" {
		return searchURL(company, title)
	}

	canonical := rawURL
	if !strings.HasPrefix(canonical, "http://") && !strings.HasPrefix(canonical, "https://") {
		canonical = "https://" + canonical
	}

	parsed, err := url.Parse(canonical)
	if err != nil || parsed.Host == "" {
		return searchURL(company, title)
	}

	if deadCareersHosts[strings.ToLower(parsed.Host)] {
		return searchURL(company, title)
	}

	return canonical
}

func searchURL(company, title string) string {
	q := url.QueryEscape(strings.TrimSpace(company + " " + title + " jobs"))
	return "https://www.google.com/search?q=" + q
}

// IsWellFormedURL reports whether a URL starts with http:// or https://.
func IsWellFormedURL(rawURL string) bool {
	return strings.HasPrefix(rawURL, "http://") || strings.HasPrefix(rawURL, "https://")
}
