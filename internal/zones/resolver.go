package zones

import (
	"math"
	"sort"
	"strings"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/ongkir/fare-service/internal/geo"
)

// Scoring weights.
const (
	CityScore     = 10
	DistrictScore = 5
	FragmentScore = 2
	PostalScore   = 8

	minFragmentLen = 4
)

// Duplicate reports a keyword claimed by more than one zone.
type Duplicate struct {
	Keyword string   `json:"keyword"`
	Zones   []string `json:"zones"`
}

type compiledKeyword struct {
	phrase    string
	padded    string
	fragments []string
}

type compiledZone struct {
	zone      DeliveryZone
	cities    []compiledKeyword
	districts []compiledKeyword
	postal    []string
}

// Resolver maps addresses to zones. It is built once and is safe for
// concurrent use; it never mutates after construction.
type Resolver struct {
	zones      []compiledZone
	duplicates []Duplicate
	stopwords  map[string]bool
	logger     zerolog.Logger
}

// ResolverOption configures a Resolver.
type ResolverOption func(*Resolver)

// WithFragmentStopwords excludes words from fragment scoring. Full keyword
// matches still count. The default resolver has no stopwords.
func WithFragmentStopwords(words ...string) ResolverOption {
	return func(r *Resolver) {
		for _, w := range words {
			if w = NormalizeKeyword(w); w != "" {
				r.stopwords[w] = true
			}
		}
	}
}

// NewResolver validates and compiles a zone table. The last zone is the
// remote default.
func NewResolver(table []DeliveryZone, opts ...ResolverOption) (*Resolver, error) {
	if err := Validate(table); err != nil {
		return nil, err
	}

	r := &Resolver{
		zones:     make([]compiledZone, 0, len(table)),
		stopwords: make(map[string]bool),
		logger:    log.With().Str("component", "zones").Logger(),
	}
	for _, opt := range opts {
		opt(r)
	}
	for _, z := range table {
		r.zones = append(r.zones, r.compileZone(z.Clone()))
	}
	r.duplicates = findDuplicates(r.zones)

	for _, d := range r.duplicates {
		r.logger.Warn().
			Str("keyword", d.Keyword).
			Strs("zones", d.Zones).
			Msg("Keyword is claimed by more than one zone; the first listed zone wins ties")
	}
	return r, nil
}

// MustDefault returns a resolver over DefaultZones.
func MustDefault() *Resolver {
	r, err := NewResolver(DefaultZones())
	if err != nil {
		panic(err)
	}
	return r
}

func (r *Resolver) compileZone(z DeliveryZone) compiledZone {
	cz := compiledZone{zone: z}
	cz.cities = r.compileKeywords(z.CityKeywords)
	cz.districts = r.compileKeywords(z.DistrictKeywords)
	for _, p := range z.PostalPrefixes {
		if p = strings.TrimSpace(p); p != "" {
			cz.postal = append(cz.postal, p)
		}
	}
	return cz
}

func (r *Resolver) compileKeywords(keywords []string) []compiledKeyword {
	out := make([]compiledKeyword, 0, len(keywords))
	seen := make(map[string]bool, len(keywords))
	for _, kw := range keywords {
		phrase := NormalizeKeyword(kw)
		if phrase == "" || seen[phrase] {
			continue
		}
		seen[phrase] = true

		ck := compiledKeyword{phrase: phrase, padded: " " + phrase + " "}
		for _, w := range strings.Fields(phrase) {
			if len(w) >= minFragmentLen && !r.stopwords[w] {
				ck.fragments = append(ck.fragments, w)
			}
		}
		out = append(out, ck)
	}
	return out
}

func findDuplicates(zones []compiledZone) []Duplicate {
	owners := make(map[string][]string)
	for _, cz := range zones {
		mine := make(map[string]bool)
		for _, kw := range append(append([]compiledKeyword(nil), cz.cities...), cz.districts...) {
			if mine[kw.phrase] {
				continue
			}
			mine[kw.phrase] = true
			owners[kw.phrase] = append(owners[kw.phrase], cz.zone.Name)
		}
	}

	var dups []Duplicate
	for kw, names := range owners {
		if len(names) > 1 {
			dups = append(dups, Duplicate{Keyword: kw, Zones: names})
		}
	}
	sort.Slice(dups, func(i, j int) bool { return dups[i].Keyword < dups[j].Keyword })
	return dups
}

// Resolve returns the zone for address. It is total: an address nothing
// matches resolves to the remote zone with Matched false.
func (r *Resolver) Resolve(address string) Match {
	n := Normalize(address)
	padded := " " + n.Text + " "
	tokens := make(map[string]bool, len(n.Tokens))
	for _, t := range n.Tokens {
		tokens[t] = true
	}

	bestIdx, bestScore := -1, 0
	for i, cz := range r.zones {
		score := cz.score(padded, tokens, n.PostalCodes)
		if score > bestScore {
			bestIdx, bestScore = i, score
		}
	}

	if bestIdx < 0 {
		return Match{Zone: r.Remote(), Score: 0, Matched: false}
	}
	return Match{Zone: r.zones[bestIdx].zone.Clone(), Score: bestScore, Matched: true}
}

func (cz compiledZone) score(padded string, tokens map[string]bool, postal []string) int {
	score := 0
	score += scoreKeywords(cz.cities, CityScore, padded, tokens)
	score += scoreKeywords(cz.districts, DistrictScore, padded, tokens)

	for _, code := range postal {
		for _, prefix := range cz.postal {
			if strings.HasPrefix(code, prefix) {
				score += PostalScore
				break
			}
		}
	}
	return score
}

func scoreKeywords(keywords []compiledKeyword, full int, padded string, tokens map[string]bool) int {
	score := 0
	for _, kw := range keywords {
		if strings.Contains(padded, kw.padded) {
			score += full
			continue
		}
		// every fragment of an unmatched keyword counts on its own
		for _, f := range kw.fragments {
			if tokens[f] {
				score += FragmentScore
			}
		}
	}
	return score
}

// Duplicates returns keywords claimed by more than one zone.
func (r *Resolver) Duplicates() []Duplicate {
	out := make([]Duplicate, len(r.duplicates))
	for i, d := range r.duplicates {
		out[i] = Duplicate{Keyword: d.Keyword, Zones: append([]string(nil), d.Zones...)}
	}
	return out
}

// Zones returns a copy of the table in configuration order.
func (r *Resolver) Zones() []DeliveryZone {
	out := make([]DeliveryZone, len(r.zones))
	for i, cz := range r.zones {
		out[i] = cz.zone.Clone()
	}
	return out
}

// Remote returns the catch-all zone.
func (r *Resolver) Remote() DeliveryZone {
	return r.zones[len(r.zones)-1].zone.Clone()
}

// IsRemote reports whether name is the catch-all zone.
func (r *Resolver) IsRemote(name string) bool {
	return strings.EqualFold(name, r.zones[len(r.zones)-1].zone.Name)
}

// Lookup finds a zone by name (case-insensitive).
func (r *Resolver) Lookup(name string) (DeliveryZone, bool) {
	for _, cz := range r.zones {
		if strings.EqualFold(cz.zone.Name, name) {
			return cz.zone.Clone(), true
		}
	}
	return DeliveryZone{}, false
}

// Nearest returns the non-remote zone whose centroid is closest to origin.
func (r *Resolver) Nearest(origin geo.Coordinate) DeliveryZone {
	best, bestKm := len(r.zones)-1, math.Inf(1)
	for i, cz := range r.zones[:len(r.zones)-1] {
		if km := geo.StraightLineKm(origin, cz.zone.Centroid); km < bestKm {
			best, bestKm = i, km
		}
	}
	return r.zones[best].zone.Clone()
}
