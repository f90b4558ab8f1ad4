package services

import (
	"strings"
	"time"

	"github.com/codyseavey/manabase-builder/backend/internal/models"
)

// Dedup reduces a bulk catalog to one representative printing per
// canonical card. Groups form on oracle_id (falling back to lowercased
// name, then the printing's own id); tokens, art-series cards, and
// printings without a usable image are excluded before selection. The
// representative is a pure function of the group's members: the
// comparator below is a total order, so input order never matters.
func Dedup(printings []models.Printing) []models.Printing {
	groups := make(map[string][]models.Printing)
	var order []string

	for _, p := range printings {
		key := GroupKey(p)
		if key == "" {
			continue
		}
		if _, ok := groups[key]; !ok {
			order = append(order, key)
		}
		groups[key] = append(groups[key], p)
	}

	deduped := make([]models.Printing, 0, len(groups))
	for _, key := range order {
		best, ok := pickRepresentative(groups[key])
		if !ok {
			continue
		}
		deduped = append(deduped, best)
	}
	return deduped
}

// GroupKey identifies the canonical card a printing belongs to.
func GroupKey(p models.Printing) string {
	if p.OracleID != "" {
		return p.OracleID
	}
	if p.Name != "" {
		return strings.ToLower(p.Name)
	}
	return p.ID
}

func pickRepresentative(group []models.Printing) (models.Printing, bool) {
	var best models.Printing
	found := false
	for _, p := range group {
		if !usablePrinting(p) {
			continue
		}
		if !found || preferPrinting(p, best) {
			best = p
			found = true
		}
	}
	return best, found
}

// usablePrinting filters out tokens, art-series cards, and printings with
// no image to show.
func usablePrinting(p models.Printing) bool {
	if strings.Contains(p.Layout, "token") || strings.Contains(p.Layout, "art_series") {
		return false
	}
	if p.ImageURIs != nil && (p.ImageURIs.Normal != "" || p.ImageURIs.Small != "") {
		return true
	}
	if len(p.CardFaces) > 0 && p.CardFaces[0].ImageURIs != nil && p.CardFaces[0].ImageURIs.Normal != "" {
		return true
	}
	return false
}

// preferPrinting reports whether a should represent the group over b.
// The tie-break chain is deliberate and must stay in this order:
//  1. most recent release wins (newest art is most familiar)
//  2. non-Secret-Lair beats Secret Lair
//  3. non-promo/full-art/borderless beats special treatments
//  4. higher numeric collector number wins
//
// A final comparison on id makes the order total, so selection is
// independent of input order even for otherwise-identical printings.
func preferPrinting(a, b models.Printing) bool {
	dateA, dateB := releaseTime(a), releaseTime(b)
	if !dateA.Equal(dateB) {
		return dateA.After(dateB)
	}

	slA, slB := isSecretLair(a), isSecretLair(b)
	if slA != slB {
		return !slA
	}

	promoA, promoB := isSpecialTreatment(a), isSpecialTreatment(b)
	if promoA != promoB {
		return !promoA
	}

	numA, numB := collectorNumber(a), collectorNumber(b)
	if numA != numB {
		return numA > numB
	}

	return a.ID < b.ID
}

// releaseTime parses released_at; a missing or malformed date sorts as
// oldest.
func releaseTime(p models.Printing) time.Time {
	if p.ReleasedAt == "" {
		return time.Time{}
	}
	t, err := time.Parse("2006-01-02", p.ReleasedAt)
	if err != nil {
		return time.Time{}
	}
	return t
}

func isSecretLair(p models.Printing) bool {
	return strings.EqualFold(p.Set, "sld") ||
		strings.Contains(strings.ToLower(p.SetName), "secret lair")
}

func isSpecialTreatment(p models.Printing) bool {
	return p.Promo || p.FullArt || p.BorderColor == "borderless"
}

// collectorNumber parses the leading digits of a collector number
// ("123b" -> 123); fully non-numeric numbers count as 0.
func collectorNumber(p models.Printing) int {
	n := 0
	parsed := false
	for _, r := range p.CollectorNum {
		if r < '0' || r > '9' {
			break
		}
		n = n*10 + int(r-'0')
		parsed = true
	}
	if !parsed {
		return 0
	}
	return n
}
