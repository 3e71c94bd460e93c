package checker

import (
	"regexp"
	"strings"
)

// Polish labels, as answered by agents that follow a Polish task.
const (
	availableLabelPL   = "dostępne ceny mieszkań"
	unavailableLabelPL = "brak dostępnych cen mieszkań"
)

// Building blocks for the price patterns. An amount is a grouped number
// ("450 000", "1.250.000") or at least five plain digits, so unit numbers
// and years never read as prices.
const (
	amount         = `(?:\d{1,3}(?:[ .,]\d{3})+|\d{5,})`
	currencyBefore = `(?:\$|€|pln|eur|usd)`
	currencyAfter  = `(?:pln|zł|zl\b|złotych|eur\b|euro|€|usd\b|\$)`
	rangeSeparator = `(?:-|\x{2013}|\x{2014}|\bto\b|\bdo\b)`
)

var (
	// Ranges and "from" prices. Matches are also cut out of the answer
	// before looking for itemized prices.
	rangePatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?:` + currencyBefore + `\s*)?\b` + amount + `\s*(?:` + currencyAfter + `\s*)?` + rangeSeparator +
			`\s*(?:` + currencyBefore + `\s*` + amount + `|` + amount + `\s*` + currencyAfter + `)`),
		regexp.MustCompile(`\b(?:starting|beginning) (?:from|at)\b(?:\s*` + currencyBefore + `)?(?:\s*\d[\d .,]*(?:\s*` + currencyAfter + `)?)?`),
		regexp.MustCompile(`\b(?:from|od)\s*(?:` + currencyBefore + `\s*)?\d[\d .,]*(?:\s*` + currencyAfter + `)?`),
		regexp.MustCompile(`\b(?:prices?|cen[ay]?) (?:from|od)\b`),
		regexp.MustCompile(`\bprice ranges?\b|\bzakres`),
	}

	// A clause mentioning both contact and price gates the price behind an
	// inquiry ("contact us for the price", "zapytaj o cenę").
	contactWords = regexp.MustCompile(`\bcontact|\binquir|\benquir|\bask(?:ing)? for\b|\brequest\b|zapyta|skontaktuj|\bkontakt`)
	priceWords   = regexp.MustCompile(`\bpric(?:e|es|ing)\b|\bcen(?:a|y|ie|ami)?\b|\bcenę|\bcennik`)
	clauseBreak  = regexp.MustCompile(`[.;!?](?:\s|$)`)

	// Answers stating that nothing was found.
	negativePatterns = []*regexp.Regexp{
		regexp.MustCompile(`\bno (?:specific |concrete |exact |itemized |individual |apartment |unit )*prices?\b`),
		regexp.MustCompile(`\b(?:not|never) (?:found|published|listed|shown|displayed|available|provided)\b`),
		regexp.MustCompile(`\b(?:could not|couldn't|did not|didn't|unable to) (?:find|locate|identify)\b`),
		regexp.MustCompile(`\bunavailable\b|\bnone\b`),
		regexp.MustCompile(`\bbrak\b|nie znaleziono|nie ma\b`),
	}

	positivePatterns = []*regexp.Regexp{
		regexp.MustCompile(`\b(?:specific|concrete|exact|itemized|individual|per-unit|per unit) (?:apartment |unit )?prices?\b`),
		regexp.MustCompile(`\bprices? (?:are|were|is) (?:published|listed|shown|displayed|available|provided)\b`),
		regexp.MustCompile(`\bkonkretne ceny\b`),
	}

	// An amount followed or preceded by a currency, e.g. "450,000 PLN" or "$320,000".
	itemizedPrice = regexp.MustCompile(`\d[\d\s.,]*\d?\s*(?:pln|zł|zl\b|złotych|eur\b|euro|€|usd\b)|(?:\$|€)\s*\d`)

	whitespace = regexp.MustCompile(`\s+`)
)

// Classify maps an agent's final answer to a Verdict.
//
// The canonical labels win, with the negative label checked first because
// the positive one is a substring of it. An itemized price outside any range
// or "from" phrase means Available. Otherwise ranges, "from" prices and
// contact gates mean Unavailable, as does an explicit "nothing found".
// Positive wording without an amount means Available. Anything else,
// including an empty answer, is Unavailable.
func Classify(answer string) Verdict {
	v, _ := classify(answer)
	return v
}

// classify returns the verdict and the rule that decided it.
func classify(answer string) (Verdict, string) {
	text := normalize(answer)
	if text == "" {
		return Unavailable, "empty"
	}

	switch {
	case strings.Contains(text, strings.ToLower(UnavailableLabel)), strings.Contains(text, unavailableLabelPL):
		return Unavailable, "label"
	case strings.Contains(text, strings.ToLower(AvailableLabel)), strings.Contains(text, availableLabelPL):
		return Available, "label"
	}

	if itemizedPrice.MatchString(withoutRanges(text)) {
		return Available, "itemized"
	}
	if matchAny(rangePatterns, text) {
		return Unavailable, "range"
	}
	if contactGated(text) {
		return Unavailable, "contact"
	}
	if matchAny(negativePatterns, text) {
		return Unavailable, "negative"
	}
	if matchAny(positivePatterns, text) {
		return Available, "positive"
	}
	return Unavailable, "ambiguous"
}

func withoutRanges(text string) string {
	for _, re := range rangePatterns {
		text = re.ReplaceAllString(text, " ")
	}
	return text
}

func contactGated(text string) bool {
	for _, clause := range clauseBreak.Split(text, -1) {
		if contactWords.MatchString(clause) && priceWords.MatchString(clause) {
			return true
		}
	}
	return false
}

func normalize(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	s = strings.NewReplacer("\u00a0", " ", "\u202f", " ", "\u2019", "'").Replace(s)
	return whitespace.ReplaceAllString(s, " ")
}

func matchAny(patterns []*regexp.Regexp, s string) bool {
	for _, re := range patterns {
		if re.MatchString(s) {
			return true
		}
	}
	return false
}
