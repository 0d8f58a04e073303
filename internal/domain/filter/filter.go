// Package filter keeps the statistics filter selection in sync with the
// page URL. Each dimension is a query parameter holding a JSON array of ids.
package filter

import (
	"errors"
	"net/url"
	"slices"

	"github.com/goccy/go-json"
	"github.com/samber/lo"
)

// Dimension names a filter and its query parameter.
type Dimension string

// Filter dimensions.
const (
	Scoreboard Dimension = "scoreboard"
	Scorelist  Dimension = "scorelist"
	Stage      Dimension = "stage"
)

// Dimensions lists every dimension in display order.
var Dimensions = []Dimension{Scoreboard, Scorelist, Stage}

// Valid reports whether d is a known dimension.
func (d Dimension) Valid() bool {
	return slices.Contains(Dimensions, d)
}

// Selection maps each dimension to its selected ids. A missing or empty
// entry means the dimension is unfiltered.
type Selection map[Dimension][]int

// Get returns the ids selected for d.
func (s Selection) Get(d Dimension) []int {
	return s[d]
}

// Contains reports whether id is selected for d.
func (s Selection) Contains(d Dimension, id int) bool {
	return slices.Contains(s[d], id)
}

// Clone returns a deep copy.
func (s Selection) Clone() Selection {
	out := make(Selection, len(s))
	for d, ids := range s {
		if len(ids) > 0 {
			out[d] = slices.Clone(ids)
		}
	}
	return out
}

// Normalize de-duplicates ids keeping first-seen order. Nil for empty input.
func Normalize(ids []int) []int {
	if len(ids) == 0 {
		return nil
	}
	return lo.Uniq(ids)
}

// Decode reads every dimension from q. Malformed dimensions are left
// unfiltered and reported through the returned error, which joins one
// *DecodeError per bad dimension. The selection is usable either way.
func Decode(q url.Values) (Selection, error) {
	sel, bad := decode(q)
	errs := make([]error, len(bad))
	for i, e := range bad {
		errs[i] = e
	}
	return sel, errors.Join(errs...)
}

func decode(q url.Values) (Selection, []*DecodeError) {
	sel := make(Selection, len(Dimensions))
	var bad []*DecodeError
	for _, d := range Dimensions {
		raw := q.Get(string(d))
		if raw == "" {
			continue
		}
		var ids []int
		if err := json.Unmarshal([]byte(raw), &ids); err != nil {
			bad = append(bad, &DecodeError{Dimension: d, Raw: raw, Err: err})
			continue
		}
		if ids = Normalize(ids); ids != nil {
			sel[d] = ids
		}
	}
	return sel, bad
}

// EncodeValue renders ids as the query parameter value. Empty input yields
// "" meaning the parameter must be absent.
func EncodeValue(ids []int) string {
	if len(ids) == 0 {
		return ""
	}
	b, err := json.Marshal(ids)
	if err != nil {
		return ""
	}
	return string(b)
}

// Encode renders sel as query parameters. Empty dimensions are omitted.
func Encode(sel Selection) url.Values {
	q := url.Values{}
	for _, d := range Dimensions {
		if v := EncodeValue(sel[d]); v != "" {
			q.Set(string(d), v)
		}
	}
	return q
}
