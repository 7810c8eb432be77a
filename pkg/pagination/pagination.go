package pagination

import (
	"net/http"
	"strconv"
)

// MaxLimit caps the page size a client may request.
const MaxLimit = 100

// Params holds pagination parameters extracted from query strings.
type Params struct {
	Page   int `json:"page"`
	Limit  int `json:"limit"`
	Offset int `json:"-"`
}

// Options controls how query parameters are interpreted.
type Options struct {
	// ZeroBased makes page=0 the first page.
	ZeroBased    bool
	DefaultLimit int
}

// DefaultParams returns one-based defaults with a page size of 20.
func DefaultParams() Params {
	return Params{Page: 1, Limit: 20}
}

// FromRequest extracts one-based pagination parameters from page and limit
// query values. per_page is accepted as an alias of limit.
func FromRequest(r *http.Request) Params {
	return FromRequestWith(r, Options{DefaultLimit: 20})
}

// FromRequestWith extracts pagination parameters using the given options.
// Invalid or out-of-range values fall back to the defaults.
func FromRequestWith(r *http.Request, opts Options) Params {
	first := 1
	if opts.ZeroBased {
		first = 0
	}
	limit := opts.DefaultLimit
	if limit <= 0 || limit > MaxLimit {
		limit = 20
	}

	p := Params{Page: first, Limit: limit}
	q := r.URL.Query()

	if page := q.Get("page"); page != "" {
		if v, err := strconv.Atoi(page); err == nil && v >= first {
			p.Page = v
		}
	}

	raw := q.Get("limit")
	if raw == "" {
		raw = q.Get("per_page")
	}
	if raw != "" {
		if v, err := strconv.Atoi(raw); err == nil && v > 0 && v <= MaxLimit {
			p.Limit = v
		}
	}

	p.Offset = (p.Page - first) * p.Limit
	return p
}
