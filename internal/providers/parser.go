package providers

import (
	"errors"
	"fmt"
	"math"
	"sort"

	json "github.com/goccy/go-json"
)

// ErrMalformedResponse is returned when a provider body does not match the
// configured schema version.
var ErrMalformedResponse = errors.New("malformed provider response")

// Quote is a live price from a courier provider.
type Quote struct {
	Price float64 `json:"price"`
	ETA   string  `json:"eta,omitempty"`
}

// Parser decodes one provider schema version.
type Parser interface {
	Version() string
	Parse(body []byte) (Quote, error)
}

type parserFunc struct {
	version string
	parse   func([]byte) (*float64, string, error)
}

func (p parserFunc) Version() string { return p.version }

func (p parserFunc) Parse(body []byte) (Quote, error) {
	price, eta, err := p.parse(body)
	if err != nil {
		return Quote{}, fmt.Errorf("%w (%s): %v", ErrMalformedResponse, p.version, err)
	}
	if price == nil {
		return Quote{}, fmt.Errorf("%w (%s): price missing", ErrMalformedResponse, p.version)
	}
	if math.IsNaN(*price) || math.IsInf(*price, 0) || math.Round(*price) < 1 {
		return Quote{}, fmt.Errorf("%w (%s): price %v is below one rupiah", ErrMalformedResponse, p.version, *price)
	}
	return Quote{Price: *price, ETA: eta}, nil
}

var parsers = map[string]Parser{
	"gosend/v1": parserFunc{version: "gosend/v1", parse: func(b []byte) (*float64, string, error) {
		var r struct {
			Data *struct {
				TotalPrice *float64 `json:"total_price"`
				ETA        string   `json:"eta"`
			} `json:"data"`
		}
		if err := json.Unmarshal(b, &r); err != nil {
			return nil, "", err
		}
		if r.Data == nil {
			return nil, "", errors.New("data missing")
		}
		return r.Data.TotalPrice, r.Data.ETA, nil
	}},
	"grab/v1": parserFunc{version: "grab/v1", parse: func(b []byte) (*float64, string, error) {
		var r struct {
			Quotes []struct {
				Amount *float64 `json:"amount"`
				ETA    string   `json:"eta"`
			} `json:"quotes"`
		}
		if err := json.Unmarshal(b, &r); err != nil {
			return nil, "", err
		}
		if len(r.Quotes) == 0 {
			return nil, "", errors.New("quotes empty")
		}
		return r.Quotes[0].Amount, r.Quotes[0].ETA, nil
	}},
	"paxel/v1": parserFunc{version: "paxel/v1", parse: func(b []byte) (*float64, string, error) {
		var r struct {
			Result *struct {
				Price      *float64 `json:"price"`
				Estimation string   `json:"estimation"`
			} `json:"result"`
		}
		if err := json.Unmarshal(b, &r); err != nil {
			return nil, "", err
		}
		if r.Result == nil {
			return nil, "", errors.New("result missing")
		}
		return r.Result.Price, r.Result.Estimation, nil
	}},
	"generic/v1": parserFunc{version: "generic/v1", parse: func(b []byte) (*float64, string, error) {
		var r struct {
			Price *float64 `json:"price"`
			ETA   string   `json:"eta"`
		}
		if err := json.Unmarshal(b, &r); err != nil {
			return nil, "", err
		}
		return r.Price, r.ETA, nil
	}},
}

// ParserFor returns the parser for a schema version.
func ParserFor(version string) (Parser, error) {
	p, ok := parsers[version]
	if !ok {
		return nil, fmt.Errorf("unknown provider schema version %q (known: %v)", version, Versions())
	}
	return p, nil
}

// Versions lists the supported schema versions.
func Versions() []string {
	out := make([]string, 0, len(parsers))
	for v := range parsers {
		out = append(out, v)
	}
	sort.Strings(out)
	return out
}
