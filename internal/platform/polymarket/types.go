package polymarket

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/alanyoungcy/polyarb/internal/domain"
)

// flexBool unmarshals from JSON bool or string ("true"/"false") so Gamma API
// responses work whether "active" is sent as bool or string.
type flexBool bool

func (f *flexBool) UnmarshalJSON(data []byte) error {
	var b bool
	if err := json.Unmarshal(data, &b); err == nil {
		*f = flexBool(b)
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	*f = flexBool(strings.EqualFold(s, "true") || s == "1")
	return nil
}

// flexString accepts a JSON string or number; Gamma sends ids both ways.
type flexString string

func (f *flexString) UnmarshalJSON(data []byte) error {
	if bytes.Equal(data, []byte("null")) {
		*f = ""
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*f = flexString(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}
	*f = flexString(n.String())
	return nil
}

// flexFloat accepts a JSON number or a numeric string; an empty string is 0.
type flexFloat float64

func (f *flexFloat) UnmarshalJSON(data []byte) error {
	if bytes.Equal(data, []byte("null")) {
		*f = 0
		return nil
	}
	var n float64
	if err := json.Unmarshal(data, &n); err == nil {
		*f = flexFloat(n)
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	if strings.TrimSpace(s) == "" {
		*f = 0
		return nil
	}
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return err
	}
	*f = flexFloat(v)
	return nil
}

// encodedList holds a Gamma array field. The API usually double-encodes
// these as a JSON string containing an array (e.g. "[\"Yes\",\"No\"]") but
// a plain array is accepted too. Elements are kept as raw text so prices
// sent as strings or numbers both survive.
type encodedList []string

func (l *encodedList) UnmarshalJSON(data []byte) error {
	if bytes.Equal(data, []byte("null")) {
		*l = nil
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		if strings.TrimSpace(s) == "" {
			*l = nil
			return nil
		}
		data = []byte(s)
	}
	var raw []json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("decode list: %w", err)
	}
	out := make([]string, 0, len(raw))
	for _, r := range raw {
		var item string
		if err := json.Unmarshal(r, &item); err != nil {
			item = string(r)
		}
		out = append(out, item)
	}
	*l = out
	return nil
}

// APIEventRef is the abbreviated event embedded in a Gamma market.
type APIEventRef struct {
	ID   flexString `json:"id"`
	Slug string     `json:"slug"`
}

// APIMarket represents a market as returned by the Polymarket Gamma API.
type APIMarket struct {
	ID             flexString    `json:"id"`
	Question       string        `json:"question"`
	Slug           string        `json:"slug"`
	Category       string        `json:"category"`
	EventID        flexString    `json:"event_id"`
	EventIDCamel   flexString    `json:"eventId"`
	EventSlug      string        `json:"event_slug"`
	EventSlugCamel string        `json:"eventSlug"`
	Events         []APIEventRef `json:"events"`
	Outcomes       encodedList   `json:"outcomes"`
	OutcomePrices  encodedList   `json:"outcomePrices"`
	Volume         flexFloat     `json:"volume"`
	Active         flexBool      `json:"active"`
	Closed         flexBool      `json:"closed"`
}

// ToDomainMarket converts a Gamma APIMarket to a domain.Market. Records whose
// outcomes and prices cannot be paired are rejected with
// domain.ErrMalformedMarket rather than silently misaligned.
func (m *APIMarket) ToDomainMarket() (domain.Market, error) {
	dm := domain.Market{
		ID:        string(m.ID),
		Question:  m.Question,
		Slug:      m.Slug,
		Category:  m.Category,
		EventID:   firstNonEmpty(string(m.EventID), string(m.EventIDCamel)),
		EventSlug: firstNonEmpty(m.EventSlug, m.EventSlugCamel),
		Outcomes:  []string(m.Outcomes),
		Volume:    float64(m.Volume),
		Active:    bool(m.Active),
		Closed:    bool(m.Closed),
	}

	// Newer Gamma payloads only carry the parent event in the events array.
	if len(m.Events) > 0 {
		if dm.EventSlug == "" {
			dm.EventSlug = m.Events[0].Slug
		}
		if dm.EventID == "" {
			dm.EventID = string(m.Events[0].ID)
		}
	}

	dm.OutcomePrices = make([]float64, 0, len(m.OutcomePrices))
	for _, raw := range m.OutcomePrices {
		p, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
		if err != nil {
			return domain.Market{}, fmt.Errorf("%w: market %s price %q: %v", domain.ErrMalformedMarket, dm.ID, raw, err)
		}
		dm.OutcomePrices = append(dm.OutcomePrices, p)
	}

	if err := dm.Validate(); err != nil {
		return domain.Market{}, err
	}
	return dm, nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
