package linearize

import (
	"strings"
	"unicode"
)

// Convention decides which quantities conventionally belong on the X axis
// (independent) and which on the Y axis (dependent). Symbols are matched
// exactly. When a meaning is known only the keywords are consulted: the
// meaning is split into lower-case words, cut at the first preposition, and
// the rightmost word that is a keyword of any list decides. "time period" is
// therefore a period, and "time constant" is neither.
type Convention struct {
	IndependentSymbols  []string `yaml:"independent_symbols"`
	DependentSymbols    []string `yaml:"dependent_symbols"`
	IndependentKeywords []string `yaml:"independent_keywords"`
	DependentKeywords   []string `yaml:"dependent_keywords"`
	ConstantKeywords    []string `yaml:"constant_keywords"`
}

// DefaultConvention covers the quantities of introductory mechanics,
// electricity and nuclear physics.
func DefaultConvention() Convention {
	return Convention{
		IndependentSymbols: []string{"t", "x", "d", "r", "l", "L", "h", "θ", "f", "m", "I", "n"},
		DependentSymbols:   []string{"v", "F", "E", "P", "p", "T", "A", "N", "V", "a", "s", "y"},
		IndependentKeywords: []string{
			"time", "length", "wavelength", "distance", "angle", "frequency", "extension",
			"mass", "height", "radius", "depth", "thickness", "current", "volume",
		},
		DependentKeywords: []string{
			"velocity", "speed", "force", "energy", "pressure", "period",
			"activity", "voltage", "potential", "intensity", "power",
			"displacement", "charge", "count", "momentum",
		},
		ConstantKeywords: []string{"constant", "coefficient"},
	}
}

var prepositions = map[string]bool{
	"of": true, "in": true, "at": true, "on": true, "for": true, "per": true,
	"to": true, "from": true, "by": true, "with": true, "through": true, "across": true,
}

// Merge appends other's entries to c.
func (c Convention) Merge(other Convention) Convention {
	return Convention{
		IndependentSymbols:  append(append([]string{}, c.IndependentSymbols...), other.IndependentSymbols...),
		DependentSymbols:    append(append([]string{}, c.DependentSymbols...), other.DependentSymbols...),
		IndependentKeywords: append(append([]string{}, c.IndependentKeywords...), other.IndependentKeywords...),
		DependentKeywords:   append(append([]string{}, c.DependentKeywords...), other.DependentKeywords...),
		ConstantKeywords:    append(append([]string{}, c.ConstantKeywords...), other.ConstantKeywords...),
	}
}

func (c Convention) IsIndependent(sym, meaning string) bool {
	if known(sym, meaning) {
		return c.sideOf(meaning) == sideIndependent
	}
	return contains(c.IndependentSymbols, sym)
}

func (c Convention) IsDependent(sym, meaning string) bool {
	if known(sym, meaning) {
		return c.sideOf(meaning) == sideDependent
	}
	return contains(c.DependentSymbols, sym)
}

type side int

const (
	sideNone side = iota
	sideIndependent
	sideDependent
)

func known(sym, meaning string) bool { return meaning != "" && meaning != sym }

func (c Convention) sideOf(meaning string) side {
	words := strings.FieldsFunc(strings.ToLower(meaning), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	for i, w := range words {
		if prepositions[w] {
			words = words[:i]
			break
		}
	}
	for i := len(words) - 1; i >= 0; i-- {
		switch {
		case hasWord(c.ConstantKeywords, words[i]):
			return sideNone
		case hasWord(c.DependentKeywords, words[i]):
			return sideDependent
		case hasWord(c.IndependentKeywords, words[i]):
			return sideIndependent
		}
	}
	return sideNone
}

func hasWord(keywords []string, w string) bool {
	for _, kw := range keywords {
		if strings.EqualFold(kw, w) {
			return true
		}
	}
	return false
}

func contains(symbols []string, sym string) bool {
	for _, s := range symbols {
		if s == sym {
			return true
		}
	}
	return false
}
