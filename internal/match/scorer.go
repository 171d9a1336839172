package match

import (
	"math"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/agnivade/levenshtein"
	"github.com/xrash/smetrics"

	"github.com/bhulekh-reconcile/internal/normalize"
)

// NameWeights blends the four fuzzy sub-metrics into the name score.
// They should sum to 1.
type NameWeights struct {
	Ratio        float64
	PartialRatio float64
	TokenSort    float64
	TokenSet     float64
}

// CombinedWeights weighs the three signals in the combined total
// score. They should sum to 1.
type CombinedWeights struct {
	Name float64
	Area float64
	ID   float64
}

// DefaultNameWeights returns the unweighted blend.
func DefaultNameWeights() NameWeights {
	return NameWeights{Ratio: 0.25, PartialRatio: 0.25, TokenSort: 0.25, TokenSet: 0.25}
}

// DefaultCombinedWeights returns the recommended 0.40/0.30/0.30 split.
func DefaultCombinedWeights() CombinedWeights {
	return CombinedWeights{Name: 0.40, Area: 0.30, ID: 0.30}
}

// Scorer computes independent 0-100 similarity scores for owner name,
// plot identifier and area between one spatial parcel and one textual
// record, plus a total under the selected algorithm.
type Scorer struct {
	algorithm        Algorithm
	areaTolerancePct float64
	name             NameWeights
	combined         CombinedWeights
}

// NewScorer creates a scorer. Zero-valued weight sets fall back to the
// defaults; a non-positive area tolerance falls back to 5 percent.
func NewScorer(algorithm Algorithm, areaTolerancePct float64, name NameWeights, combined CombinedWeights) *Scorer {
	if areaTolerancePct <= 0 {
		areaTolerancePct = 5.0
	}
	if name == (NameWeights{}) {
		name = DefaultNameWeights()
	}
	if combined == (CombinedWeights{}) {
		combined = DefaultCombinedWeights()
	}
	return &Scorer{
		algorithm:        algorithm,
		areaTolerancePct: areaTolerancePct,
		name:             name,
		combined:         combined,
	}
}

// DefaultScorer returns a combined-algorithm scorer with default
// tolerance and weights.
func DefaultScorer() *Scorer {
	return NewScorer(AlgorithmCombined, 5.0, DefaultNameWeights(), DefaultCombinedWeights())
}

// Score computes all similarity signals for one parcel/record pair.
// Fields that cannot be scored (empty after normalization, zero or
// negative area) contribute 0 rather than failing; every returned
// value is clamped to [0,100] and rounded to two decimals.
func (s *Scorer) Score(parcel SpatialParcel, record TextualRecord) Scores {
	name1 := normalize.Name(parcel.OwnerName)
	name2 := normalize.Name(record.OwnerName)
	id1 := normalize.Identifier(parcel.PlotID)
	id2 := normalize.Identifier(record.PlotID)

	nameScore := s.nameScore(name1, name2)
	idScore := idScore(id1, id2)
	areaScore := s.areaScore(parcel.Area, record.Area)

	var total float64
	switch s.algorithm {
	case AlgorithmLevenshtein:
		total = nameScore
	case AlgorithmJaroWinkler:
		total = jaroWinklerScore(name1, name2)
	case AlgorithmCosine:
		total = cosineScore(name1, name2)
	default: // combined
		total = s.combined.Name*nameScore +
			s.combined.Area*areaScore +
			s.combined.ID*idScore
	}

	return Scores{
		NameScore:  round2(clamp(nameScore)),
		AreaScore:  round2(clamp(areaScore)),
		IDScore:    round2(clamp(idScore)),
		TotalScore: round2(clamp(total)),
	}
}

// nameScore blends four fuzzy sub-metrics over normalized names: a
// full-string edit-distance ratio, a substring-aware partial ratio, a
// token-order-insensitive ratio and a token-set ratio that forgives
// extra or missing tokens (dropped middle names are common in the
// registers).
func (s *Scorer) nameScore(name1, name2 string) float64 {
	if name1 == "" || name2 == "" {
		return 0
	}
	if name1 == name2 {
		return 100
	}

	return s.name.Ratio*ratio(name1, name2) +
		s.name.PartialRatio*partialRatio(name1, name2) +
		s.name.TokenSort*tokenSortRatio(name1, name2) +
		s.name.TokenSet*tokenSetRatio(name1, name2)
}

// idScore compares normalized plot identifiers: 100 when equal,
// otherwise the plain edit-distance ratio.
func idScore(id1, id2 string) float64 {
	if id1 == "" || id2 == "" {
		return 0
	}
	if id1 == id2 {
		return 100
	}
	return ratio(id1, id2)
}

// areaScore maps the percent difference between two areas onto a
// piecewise-linear decay anchored at the configured tolerance t:
// 100->80 within t, 80->50 up to 2t, 50->20 up to 5t, then a shallow
// tail toward zero. Exact or near matches are rewarded steeply while
// borderline mismatches stay distinguishable from wild ones.
func (s *Scorer) areaScore(area1, area2 float64) float64 {
	if area1 <= 0 || area2 <= 0 {
		return 0
	}
	if area1 == area2 {
		return 100
	}

	d := math.Abs(area1-area2) / math.Max(area1, area2) * 100
	t := s.areaTolerancePct

	switch {
	case d <= t:
		return 100 - (d/t)*20
	case d <= 2*t:
		return 80 - ((d-t)/t)*30
	case d <= 5*t:
		return 50 - ((d-2*t)/(3*t))*30
	default:
		return math.Max(0, 20-(d-5*t)/10)
	}
}

// ratio is the edit-distance similarity of two strings scaled to
// [0,100], computed over runes.
func ratio(a, b string) float64 {
	if a == b {
		return 100
	}
	if a == "" || b == "" {
		return 0
	}
	maxLen := utf8.RuneCountInString(a)
	if n := utf8.RuneCountInString(b); n > maxLen {
		maxLen = n
	}
	dist := levenshtein.ComputeDistance(a, b)
	return (1 - float64(dist)/float64(maxLen)) * 100
}

// partialRatio slides a window the length of the shorter string over
// the longer one and returns the best full ratio seen, so a name that
// is a near-substring of the other still scores high.
func partialRatio(a, b string) float64 {
	ra, rb := []rune(a), []rune(b)
	if len(ra) > len(rb) {
		ra, rb = rb, ra
	}
	if len(ra) == 0 {
		return 0
	}
	if len(ra) == len(rb) {
		return ratio(string(ra), string(rb))
	}

	short := string(ra)
	best := 0.0
	for i := 0; i+len(ra) <= len(rb); i++ {
		if r := ratio(short, string(rb[i:i+len(ra)])); r > best {
			best = r
			if best == 100 {
				break
			}
		}
	}
	return best
}

// tokenSortRatio compares the strings with their tokens sorted, making
// the score insensitive to word order.
func tokenSortRatio(a, b string) float64 {
	return ratio(sortedTokens(a), sortedTokens(b))
}

// tokenSetRatio splits both strings into token sets and compares the
// shared core against each full side, forgiving tokens present in only
// one of them.
func tokenSetRatio(a, b string) float64 {
	setA := tokenSet(a)
	setB := tokenSet(b)

	var inter, diffA, diffB []string
	for tok := range setA {
		if _, ok := setB[tok]; ok {
			inter = append(inter, tok)
		} else {
			diffA = append(diffA, tok)
		}
	}
	for tok := range setB {
		if _, ok := setA[tok]; !ok {
			diffB = append(diffB, tok)
		}
	}
	sort.Strings(inter)
	sort.Strings(diffA)
	sort.Strings(diffB)

	core := strings.Join(inter, " ")
	full1 := strings.TrimSpace(core + " " + strings.Join(diffA, " "))
	full2 := strings.TrimSpace(core + " " + strings.Join(diffB, " "))

	best := ratio(full1, full2)
	if core != "" {
		if r := ratio(core, full1); r > best {
			best = r
		}
		if r := ratio(core, full2); r > best {
			best = r
		}
	}
	return best
}

// jaroWinklerScore is the Jaro-Winkler normalized similarity of the
// two normalized names scaled to [0,100], independent of the blended
// name score.
func jaroWinklerScore(name1, name2 string) float64 {
	if name1 == "" || name2 == "" {
		return 0
	}
	if name1 == name2 {
		return 100
	}
	return smetrics.JaroWinkler(name1, name2, 0.7, 4) * 100
}

// cosineScore is the token-set cosine similarity of the two normalized
// names scaled to [0,100]: intersection size over the geometric mean
// of the set sizes. Disjoint or empty token sets score 0.
func cosineScore(name1, name2 string) float64 {
	set1 := tokenSet(name1)
	set2 := tokenSet(name2)
	if len(set1) == 0 || len(set2) == 0 {
		return 0
	}

	inter := 0
	for tok := range set1 {
		if _, ok := set2[tok]; ok {
			inter++
		}
	}
	if inter == 0 {
		return 0
	}
	return float64(inter) / math.Sqrt(float64(len(set1))*float64(len(set2))) * 100
}

func sortedTokens(s string) string {
	toks := strings.Fields(s)
	sort.Strings(toks)
	return strings.Join(toks, " ")
}

func tokenSet(s string) map[string]struct{} {
	set := make(map[string]struct{})
	for _, tok := range strings.Fields(s) {
		set[tok] = struct{}{}
	}
	return set
}

func clamp(x float64) float64 {
	return math.Max(0, math.Min(100, x))
}

func round2(x float64) float64 {
	return math.Round(x*100) / 100
}
