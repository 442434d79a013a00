package extraction

import (
	"strings"

	"github.com/agext/levenshtein"

	"weddingplan/internal/domain"
)

// nameMatchThreshold is the minimum normalized similarity for a fuzzy name match.
const nameMatchThreshold = 0.75

// Roster indexes the existing vendors an extraction can update.
type Roster struct {
	vendors []domain.VendorRecord
	byID    map[string]*domain.VendorRecord
	byType  map[domain.VendorType][]*domain.VendorRecord
}

// NewRoster builds an index over the given vendors.
func NewRoster(vendors []domain.VendorRecord) *Roster {
	r := &Roster{
		vendors: vendors,
		byID:    make(map[string]*domain.VendorRecord, len(vendors)),
		byType:  make(map[domain.VendorType][]*domain.VendorRecord),
	}
	for i := range vendors {
		v := &vendors[i]
		r.byID[v.ID.String()] = v
		r.byType[v.VendorType] = append(r.byType[v.VendorType], v)
	}
	return r
}

// ByID returns the vendor with the given id, or nil.
func (r *Roster) ByID(id string) *domain.VendorRecord {
	return r.byID[strings.ToLower(strings.TrimSpace(id))]
}

// OfType returns every vendor of type t.
func (r *Roster) OfType(t domain.VendorType) []*domain.VendorRecord {
	return r.byType[t]
}

// MatchName returns the vendor whose name best matches name, restricted to type t when
// t is non-empty. Nil when nothing clears the similarity threshold.
func (r *Roster) MatchName(name string, t domain.VendorType) *domain.VendorRecord {
	if strings.TrimSpace(name) == "" {
		return nil
	}
	var best *domain.VendorRecord
	bestScore := 0.0
	for i := range r.vendors {
		v := &r.vendors[i]
		if t != "" && v.VendorType != t {
			continue
		}
		if v.VendorName == "" {
			continue
		}
		if score := NameSimilarity(name, v.VendorName); score > bestScore {
			best, bestScore = v, score
		}
	}
	if bestScore < nameMatchThreshold {
		return nil
	}
	return best
}

// NameSimilarity scores two vendor names in [0,1], ignoring case, punctuation and a
// leading "the". Containment of one name in the other scores 0.9.
func NameSimilarity(a, b string) float64 {
	na, nb := normalizeName(a), normalizeName(b)
	if na == "" || nb == "" {
		return 0
	}
	if na == nb {
		return 1
	}
	score := levenshtein.Similarity(na, nb, nil)
	if (strings.Contains(na, nb) || strings.Contains(nb, na)) && score < 0.9 {
		score = 0.9
	}
	return score
}

// mentions reports whether text names the vendor verbatim, ignoring case.
func mentions(text, name string) bool {
	n := normalizeName(name)
	return n != "" && strings.Contains(normalizeName(text), n)
}

func normalizeName(s string) string {
	s = strings.ToLower(s)
	s = strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == ' ':
			return r
		case r > 127:
			return r
		}
		return ' '
	}, s)
	s = strings.Join(strings.Fields(s), " ")
	return strings.TrimPrefix(s, "the ")
}
