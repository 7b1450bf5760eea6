// Package classify decides which tool providers a query needs.
//
// The decision is a pure function of the query text: no I/O, no state, no
// failure mode. Keeping all trigger logic in one place makes the branching
// fully unit-testable and keeps the orchestrator free of string matching.
package classify

import (
	"regexp"
	"strings"
)

// symbolPattern matches a candidate ticker symbol: an all-uppercase run of
// 1-5 letters on word boundaries. The first match in the query wins.
var symbolPattern = regexp.MustCompile(`\b[A-Z]{1,5}\b`)

// quoteKeywords trigger the quote provider, but only in conjunction with a
// symbol match. A keyword without a symbol is not a quote request: there is
// nothing to look up.
var quoteKeywords = []string{"stock", "price", "analyst", "recommendation", "fundamental"}

// searchKeywords trigger the web-search provider on their own.
var searchKeywords = []string{"news", "search", "latest", "recent", "what", "who", "when", "how"}

// Decision is the classifier's verdict for a single query.
// Quote and search may both be set; both unset means no tool context.
type Decision struct {
	NeedsQuote  bool
	QuoteSymbol string // first uppercase token, set only when NeedsQuote
	NeedsSearch bool
}

// Decide classifies a raw user query.
//
// The quote trigger is a conjunction: the query must contain both an
// uppercase 1-5 letter token and at least one quote keyword. The symbol is
// the first uppercase token in left-to-right order, which can misfire on
// unrelated leading acronyms ("USA stock price of AAPL" selects USA); callers
// accept that tradeoff in exchange for a zero-dependency heuristic.
func Decide(query string) Decision {
	lower := strings.ToLower(query)

	var d Decision

	if containsAny(lower, quoteKeywords) {
		if sym := symbolPattern.FindString(query); sym != "" {
			d.NeedsQuote = true
			d.QuoteSymbol = sym
		}
	}

	d.NeedsSearch = containsAny(lower, searchKeywords)

	return d
}

func containsAny(lower string, keywords []string) bool {
	for _, kw := range keywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}
