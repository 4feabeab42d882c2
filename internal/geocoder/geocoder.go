// Package geocoder turns free-text Indonesian addresses into coordinates using
// a Nominatim-compatible search endpoint.
package geocoder

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/ongkir/fare-service/internal/cache"
	"github.com/ongkir/fare-service/internal/geo"
	apphttp "github.com/ongkir/fare-service/internal/http"
	"github.com/ongkir/fare-service/internal/http/ratelimit"
)

// ErrNotFound covers every failure to produce a coordinate for an address.
var ErrNotFound = errors.New("address not found")

// MinAddressLength is the shortest address worth sending upstream.
const MinAddressLength = 3

// CacheProvider is the cache key prefix for geocode results.
const CacheProvider = "nominatim"

// sharedSpacer is the process-wide limiter for the public geocoding service.
var sharedSpacer = ratelimit.NewSpacer(time.Second)

// SharedSpacer returns the process-wide geocoder spacer.
func SharedSpacer() *ratelimit.Spacer {
	return sharedSpacer
}

// Config configures the geocoder
type Config struct {
	BaseURL      string          `mapstructure:"base_url" json:"baseUrl"`
	CountryCodes string          `mapstructure:"country_codes" json:"countryCodes"`
	Limit        int             `mapstructure:"limit" json:"limit"`
	Viewbox      geo.BoundingBox `mapstructure:"viewbox" json:"viewbox"`
	Timeout      time.Duration   `mapstructure:"timeout" json:"timeout"`
	CacheTTL     time.Duration   `mapstructure:"cache_ttl" json:"cacheTtl"`
	UserAgent    string          `mapstructure:"user_agent" json:"userAgent"`
}

// DefaultConfig returns a configuration bounded to Jabodetabek.
func DefaultConfig() Config {
	return Config{
		BaseURL:      "https://nominatim.openstreetmap.org",
		CountryCodes: "id",
		Limit:        5,
		Viewbox:      geo.BoundingBox{MinLat: -6.8, MinLng: 106.4, MaxLat: -5.9, MaxLng: 107.2},
		Timeout:      10 * time.Second,
		CacheTTL:     7 * 24 * time.Hour,
	}
}

// Candidate is one ranked search result.
type Candidate struct {
	Coordinate  geo.Coordinate `json:"coordinate"`
	DisplayName string         `json:"displayName"`
	Importance  float64        `json:"importance"`
	Score       float64        `json:"score"`
}

type searchResult struct {
	Lat         string        `json:"lat"`
	Lon         string        `json:"lon"`
	DisplayName string        `json:"display_name"`
	Importance  float64       `json:"importance"`
	Address     searchAddress `json:"address"`
}

type searchAddress struct {
	HouseNumber   string `json:"house_number"`
	Road          string `json:"road"`
	Suburb        string `json:"suburb"`
	Village       string `json:"village"`
	CityDistrict  string `json:"city_district"`
	Neighbourhood string `json:"neighbourhood"`
	City          string `json:"city"`
	County        string `json:"county"`
	State         string `json:"state"`
	Postcode      string `json:"postcode"`
}

// completeness scores how specific a result is.
func (a searchAddress) completeness() float64 {
	score := 0.0
	if a.HouseNumber != "" {
		score += 3
	}
	if a.Road != "" {
		score += 2
	}
	if a.Suburb != "" || a.Village != "" || a.CityDistrict != "" || a.Neighbourhood != "" {
		score += 2
	}
	if a.City != "" || a.County != "" || a.State != "" {
		score++
	}
	return score
}

// Geocoder resolves addresses to coordinates. All instances created with the
// default options share one spacer, so the whole process stays under the
// upstream's one-request-per-second policy.
type Geocoder struct {
	cfg    Config
	client *apphttp.Client
	spacer *ratelimit.Spacer
	cache  *cache.Cache
	logger zerolog.Logger
}

// Option configures a Geocoder
type Option func(*Geocoder)

// WithSpacer replaces the shared spacer
func WithSpacer(s *ratelimit.Spacer) Option {
	return func(g *Geocoder) { g.spacer = s }
}

// WithCache memoises results in c
func WithCache(c *cache.Cache) Option {
	return func(g *Geocoder) { g.cache = c }
}

// WithClient replaces the HTTP client
func WithClient(c *apphttp.Client) Option {
	return func(g *Geocoder) { g.client = c }
}

// New creates a geocoder
func New(cfg Config, opts ...Option) *Geocoder {
	def := DefaultConfig()
	if cfg.BaseURL == "" {
		cfg.BaseURL = def.BaseURL
	}
	if cfg.Limit <= 0 {
		cfg.Limit = def.Limit
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = def.Timeout
	}
	if cfg.CacheTTL <= 0 {
		cfg.CacheTTL = def.CacheTTL
	}

	clientOpts := []apphttp.Option{apphttp.WithTimeout(cfg.Timeout)}
	if cfg.UserAgent != "" {
		clientOpts = append(clientOpts, apphttp.WithUserAgent(cfg.UserAgent))
	}

	g := &Geocoder{
		cfg:    cfg,
		client: apphttp.NewClient(clientOpts...),
		spacer: sharedSpacer,
		logger: log.With().Str("component", "geocoder").Logger(),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Resolve returns the best coordinate for address.
func (g *Geocoder) Resolve(ctx context.Context, address string) (geo.Coordinate, error) {
	c, err := g.Lookup(ctx, address)
	if err != nil {
		return geo.Coordinate{}, err
	}
	return c.Coordinate, nil
}

// Lookup returns the best-ranked candidate for address.
func (g *Geocoder) Lookup(ctx context.Context, address string) (Candidate, error) {
	if g == nil || g.client == nil || g.spacer == nil {
		return Candidate{}, errors.New("geocoder: not initialised")
	}

	query := strings.Join(strings.Fields(address), " ")
	if len([]rune(query)) < MinAddressLength {
		return Candidate{}, ErrNotFound
	}

	key := cache.Key(CacheProvider, query)
	if g.cache != nil {
		if v, ok := g.cache.Get(key); ok {
			if cand, ok := v.(Candidate); ok {
				return cand, nil
			}
		}
	}

	candidates, err := g.search(ctx, query)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return Candidate{}, ctxErr
		}
		g.logger.Debug().Err(err).Str("address", query).Msg("Geocode failed")
		return Candidate{}, ErrNotFound
	}
	if len(candidates) == 0 {
		g.logger.Debug().Str("address", query).Msg("Geocode returned no results")
		return Candidate{}, ErrNotFound
	}

	best := candidates[0]
	if g.cache != nil {
		g.cache.Set(key, best, g.cfg.CacheTTL)
	}
	return best, nil
}

// search performs one spaced request and returns candidates sorted best first.
func (g *Geocoder) search(ctx context.Context, query string) ([]Candidate, error) {
	release, err := g.spacer.Acquire(ctx)
	if err != nil {
		return nil, err
	}
	defer release()

	var results []searchResult
	if err := g.client.GetJSON(ctx, g.searchURL(query), &results); err != nil {
		return nil, err
	}

	candidates := make([]Candidate, 0, len(results))
	for _, r := range results {
		lat, errLat := strconv.ParseFloat(r.Lat, 64)
		lng, errLng := strconv.ParseFloat(r.Lon, 64)
		if errLat != nil || errLng != nil {
			continue
		}
		coord := geo.Coordinate{Lat: lat, Lng: lng}
		if !coord.Valid() {
			continue
		}
		candidates = append(candidates, Candidate{
			Coordinate:  coord,
			DisplayName: r.DisplayName,
			Importance:  r.Importance,
			Score:       r.Address.completeness() + r.Importance,
		})
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].Score > candidates[j].Score
	})
	return candidates, nil
}

func (g *Geocoder) searchURL(query string) string {
	params := url.Values{}
	params.Set("q", query)
	params.Set("format", "jsonv2")
	params.Set("addressdetails", "1")
	params.Set("limit", strconv.Itoa(g.cfg.Limit))
	if g.cfg.CountryCodes != "" {
		params.Set("countrycodes", g.cfg.CountryCodes)
	}
	if !g.cfg.Viewbox.IsZero() {
		params.Set("viewbox", g.cfg.Viewbox.Viewbox())
		params.Set("bounded", "1")
	}
	return fmt.Sprintf("%s/search?%s", strings.TrimRight(g.cfg.BaseURL, "/"), params.Encode())
}
