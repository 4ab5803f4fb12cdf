package storefront

import (
	"errors"
	"strings"
)

// FuzzyThreshold is the share of a selection's tokens a line must contain to match by text
const FuzzyThreshold = 0.70

// ErrMatchAmbiguous means two selections matched a line's text equally well. Callers
// treat it as no match.
var ErrMatchAmbiguous = errors.New("ambiguous fuzzy match")

type MatchMethod string

const (
	MatchNone        MatchMethod = ""
	MatchSelectionID MatchMethod = "selection_id"
	MatchVariant     MatchMethod = "variant"
	MatchProduct     MatchMethod = "product"
	MatchFuzzy       MatchMethod = "fuzzy"
)

// FindMatchingCartLine returns the selection that belongs to line, trying the
// _addon_selection_id property, the variant, the product and finally the line text.
// A nil selection means no match.
func FindMatchingCartLine(line CartLine, selections []*Selection) (*Selection, MatchMethod, error) {
	if sel, method := findExactMatch(line, selections); sel != nil {
		return sel, method, nil
	}
	sel, err := fuzzyMatch(line, selections)
	if err != nil {
		return nil, MatchNone, err
	}
	if sel != nil {
		return sel, MatchFuzzy, nil
	}
	return nil, MatchNone, nil
}

// findExactMatch tries the selection id property, the variant and the product
// or handle, in that order
func findExactMatch(line CartLine, selections []*Selection) (*Selection, MatchMethod) {
	if id := line.Properties[PropertySelectionID]; id != "" {
		for _, sel := range selections {
			if sel.ID == id {
				return sel, MatchSelectionID
			}
		}
	}

	if line.VariantID != "" {
		for _, sel := range selections {
			if sel.VariantID != "" && sel.VariantID == line.VariantID {
				return sel, MatchVariant
			}
		}
	}

	for _, sel := range selections {
		if sel.ProductID == "" {
			continue
		}
		if sel.ProductID == line.ProductID || (line.Handle != "" && sel.ProductID == line.Handle) {
			return sel, MatchProduct
		}
	}
	return nil, MatchNone
}

func fuzzyMatch(line CartLine, selections []*Selection) (*Selection, error) {
	text := line.Text()
	if text == "" {
		return nil, nil
	}

	var best *Selection
	bestRatio := 0.0
	tie := false
	for _, sel := range selections {
		tokens := selectionTokens(sel)
		if len(tokens) == 0 {
			continue
		}
		hits := 0
		for _, tok := range tokens {
			if strings.Contains(text, tok) {
				hits++
			}
		}
		ratio := float64(hits) / float64(len(tokens))
		if ratio < FuzzyThreshold {
			continue
		}
		switch {
		case ratio > bestRatio:
			best, bestRatio, tie = sel, ratio, false
		case ratio == bestRatio:
			tie = true
		}
	}
	if tie {
		return nil, ErrMatchAmbiguous
	}
	return best, nil
}

// selectionTokens lists the lower-cased name, value and "5.00" price of each add-on
func selectionTokens(sel *Selection) []string {
	var tokens []string
	seen := make(map[string]bool)
	add := func(s string) {
		s = strings.ToLower(strings.TrimSpace(s))
		if s == "" || seen[s] {
			return
		}
		seen[s] = true
		tokens = append(tokens, s)
	}
	for _, a := range sel.ChosenAddons {
		add(a.Name)
		add(a.Value)
		add(a.Price.StringFixed(2))
	}
	return tokens
}
