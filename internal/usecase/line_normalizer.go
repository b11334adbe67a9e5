package usecase

import (
	"iter"
	"log/slog"
	"regexp"
	"slices"
	"strings"
	"unicode/utf8"
)

// DefaultHeaderKeywords are receipt header/footer words whose lines never name a product
var DefaultHeaderKeywords = []string{
	"TOTAL", "SUBTOTAL", "DATE", "TIME", "INVOICE", "SUPERMARKET", "FRESH MART", "TAX",
}

// DefaultUnitTokens are units of measure and quantity markers stripped from item lines.
// okg, ke and lkg are how OCR commonly garbles "kg".
var DefaultUnitTokens = []string{
	"kg", "g", "ml", "l", "ltr", "pcs", "pc", "lb", "oz", "x",
	"okg", "ke", "lkg",
}

// DefaultMinCandidateLength is the shortest residue kept as a candidate
const DefaultMinCandidateLength = 3

// Compiled regex patterns for line cleanup
var (
	// Matches prices and quantities such as "$3.99", "500", "1,25", "2x" or "3 ×"
	numericTokenPattern = regexp.MustCompile(`(?i)[$€£₹]?\d+(?:[.,]\d+)?(?:\s?(?:x\b|×))?`)

	// Matches any digits left behind
	digitRunPattern = regexp.MustCompile(`\d+`)

	// Matches maximal runs of letters, used to find unit tokens inside larger tokens
	letterRunPattern = regexp.MustCompile(`\p{L}+`)

	// Matches everything that is neither a letter nor whitespace
	nonLetterPattern = regexp.MustCompile(`[^\p{L}\s]+`)
)

// NormalizerConfig holds configuration for the line normalizer.
// A nil slice selects the defaults; an empty non-nil slice disables that filter.
type NormalizerConfig struct {
	HeaderKeywords []string
	UnitTokens     []string
	MinLength      int
}

// LineNormalizer turns raw OCR text into uppercase candidate item names.
// It only removes lexical noise; deciding what a candidate means is the Matcher's job.
type LineNormalizer struct {
	headerPattern *regexp.Regexp
	units         map[string]bool
	minLength     int
}

// NewLineNormalizer creates a line normalizer with the given configuration
func NewLineNormalizer(config NormalizerConfig) *LineNormalizer {
	keywords := config.HeaderKeywords
	if keywords == nil {
		keywords = DefaultHeaderKeywords
	}

	unitTokens := config.UnitTokens
	if unitTokens == nil {
		unitTokens = DefaultUnitTokens
	}

	minLength := config.MinLength
	if minLength <= 0 {
		minLength = DefaultMinCandidateLength
	}

	units := make(map[string]bool, len(unitTokens))
	for _, u := range unitTokens {
		if u = strings.ToLower(strings.TrimSpace(u)); u != "" {
			units[u] = true
		}
	}

	return &LineNormalizer{
		headerPattern: compileKeywordPattern(keywords),
		units:         units,
		minLength:     minLength,
	}
}

// compileKeywordPattern builds a case-insensitive alternation of keywords bounded by non-letters.
// Multi-word keywords match across any run of whitespace.
func compileKeywordPattern(keywords []string) *regexp.Regexp {
	var alternatives []string
	for _, kw := range keywords {
		words := strings.Fields(kw)
		if len(words) == 0 {
			continue
		}
		for i, w := range words {
			words[i] = regexp.QuoteMeta(w)
		}
		alternatives = append(alternatives, strings.Join(words, `\s+`))
	}

	if len(alternatives) == 0 {
		return nil
	}
	// Only letters extend a word: OCR often glues the amount to the keyword ("TOTAL3.99")
	return regexp.MustCompile(`(?i)(?:^|\P{L})(?:` + strings.Join(alternatives, "|") + `)(?:\P{L}|$)`)
}

// Candidates lazily yields one candidate per surviving line of rawText, in input order.
// The sequence can be ranged over any number of times.
func (n *LineNormalizer) Candidates(rawText string) iter.Seq[string] {
	return func(yield func(string) bool) {
		for line := range strings.Lines(rawText) {
			candidate, ok := n.CleanLine(line)
			if !ok {
				continue
			}
			if !yield(candidate) {
				return
			}
		}
	}
}

// Normalize collects every candidate of rawText. Empty text yields an empty, non-nil slice.
func (n *LineNormalizer) Normalize(rawText string) []string {
	candidates := slices.Collect(n.Candidates(rawText))
	if candidates == nil {
		return []string{}
	}
	return candidates
}

// CleanLine applies the cleanup steps to a single physical line.
// It returns false when the line is blank, a header/footer line, or too short once cleaned.
func (n *LineNormalizer) CleanLine(line string) (string, bool) {
	// Step 1: Trim and skip blank lines
	cleaned := strings.TrimSpace(line)
	if cleaned == "" {
		return "", false
	}

	// Step 2: Skip header/footer lines
	if n.headerPattern != nil && n.headerPattern.MatchString(cleaned) {
		slog.Debug("Skipping receipt header line", "line", cleaned)
		return "", false
	}

	// Step 3: Remove prices and quantities
	cleaned = numericTokenPattern.ReplaceAllString(cleaned, " ")

	// Step 4: Remove any digits left
	cleaned = digitRunPattern.ReplaceAllString(cleaned, "")

	// Step 5: Remove unit tokens, whole ("ML") or inside a token ("KG/PC")
	cleaned = n.removeUnits(cleaned)

	// Step 6: Remove everything that is not a letter or whitespace
	cleaned = nonLetterPattern.ReplaceAllString(cleaned, "")

	// Step 7: Normalize whitespace
	cleaned = strings.Join(strings.Fields(cleaned), " ")

	// Step 8: Uppercase
	cleaned = strings.ToUpper(cleaned)

	// Step 9: Drop short residues
	if utf8.RuneCountInString(cleaned) < n.minLength {
		if cleaned != "" {
			slog.Debug("Dropping short residue", "line", strings.TrimSpace(line), "residue", cleaned)
		}
		return "", false
	}

	return cleaned, true
}

// removeUnits drops every letter run that is exactly a unit token.
// Words that merely contain unit letters, like "COLA", are untouched.
func (n *LineNormalizer) removeUnits(s string) string {
	if len(n.units) == 0 {
		return s
	}
	return letterRunPattern.ReplaceAllStringFunc(s, func(run string) string {
		if n.units[strings.ToLower(run)] {
			return " "
		}
		return run
	})
}
