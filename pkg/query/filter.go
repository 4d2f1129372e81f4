// Package query normalizes the untrusted query-parameter bag of a listing
// request into a typed FilterSpec before anything touches the database.
// Bad input never fails a request; every unusable value is coerced to its
// default and the coercion is recorded on the result.
package query

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"
)

type SortField string

const (
	SortByDate         SortField = "date"
	SortByQuantity     SortField = "quantity"
	SortByCustomerName SortField = "customerName"
)

type SortOrder string

const (
	SortAsc  SortOrder = "asc"
	SortDesc SortOrder = "desc"
)

const dateLayout = "2006-01-02"

// PageDefaults bounds the pagination window.
type PageDefaults struct {
	DefaultLimit int
	MaxLimit     int
}

// FilterSpec is the validated, normalized form of one listing request.
// Set filters hold zero or more exact-match values; nil means the filter is
// inactive. Range bounds are inclusive and independently optional.
type FilterSpec struct {
	Search string

	Regions        []string
	Genders        []string
	Categories     []string
	PaymentMethods []string
	Tags           []string

	MinAge *int
	MaxAge *int

	StartDate *time.Time
	EndDate   *time.Time

	SortBy    SortField
	SortOrder SortOrder

	Page  int
	Limit int

	// Fallbacks lists every input that was coerced to a default, for logging.
	Fallbacks []string
}

// Offset returns the row offset for the current page.
func (f *FilterSpec) Offset() int {
	return (f.Page - 1) * f.Limit
}

func (f *FilterSpec) fallback(param, raw, reason string) {
	f.Fallbacks = append(f.Fallbacks, fmt.Sprintf("%s=%q: %s", param, raw, reason))
}

// ParseFilterSpec builds a FilterSpec from raw query parameters. It never
// returns an error; anything unparseable falls back to its default.
func ParseFilterSpec(values url.Values, defaults PageDefaults) FilterSpec {
	if defaults.DefaultLimit <= 0 {
		defaults.DefaultLimit = 10
	}
	if defaults.MaxLimit <= 0 {
		defaults.MaxLimit = 100
	}

	spec := FilterSpec{
		Search:    strings.TrimSpace(values.Get("search")),
		SortBy:    SortByDate,
		SortOrder: SortDesc,
		Page:      1,
		Limit:     defaults.DefaultLimit,
	}

	spec.Regions = parseSet(values["customerRegion"], false)
	spec.Genders = parseSet(values["gender"], false)
	spec.Categories = parseSet(values["productCategory"], false)
	spec.PaymentMethods = parseSet(values["paymentMethod"], false)
	spec.Tags = parseSet(values["tags"], true)

	spec.MinAge = spec.parseAge(values, "minAge")
	spec.MaxAge = spec.parseAge(values, "maxAge")

	spec.StartDate = spec.parseDate(values, "startDate")
	spec.EndDate = spec.parseDate(values, "endDate")

	if raw := values.Get("sortBy"); raw != "" {
		switch SortField(raw) {
		case SortByDate, SortByQuantity, SortByCustomerName:
			spec.SortBy = SortField(raw)
		default:
			spec.fallback("sortBy", raw, "unknown sort field, using date")
		}
	}

	if raw := values.Get("sortOrder"); raw != "" {
		switch strings.ToLower(raw) {
		case string(SortAsc):
			spec.SortOrder = SortAsc
		case string(SortDesc):
			spec.SortOrder = SortDesc
		default:
			spec.fallback("sortOrder", raw, "unknown sort order, using desc")
		}
	}

	if raw := values.Get("page"); raw != "" {
		if page, err := strconv.Atoi(raw); err == nil && page >= 1 {
			spec.Page = page
		} else {
			spec.fallback("page", raw, "not a positive integer, using 1")
		}
	}

	if raw := values.Get("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		switch {
		case err != nil || limit < 1:
			spec.fallback("limit", raw, fmt.Sprintf("not a positive integer, using %d", defaults.DefaultLimit))
		case limit > defaults.MaxLimit:
			spec.fallback("limit", raw, fmt.Sprintf("above cap, using %d", defaults.MaxLimit))
			spec.Limit = defaults.MaxLimit
		default:
			spec.Limit = limit
		}
	}

	return spec
}

// parseSet flattens repeated and comma-joined values into one set, dropping
// empty entries. Tags are matched lowercase in storage, so lower normalizes
// them here.
func parseSet(raw []string, lower bool) []string {
	var out []string
	seen := map[string]bool{}

	for _, value := range raw {
		for _, part := range strings.Split(value, ",") {
			part = strings.TrimSpace(part)
			if part == "" {
				continue
			}
			if lower {
				part = strings.ToLower(part)
			}
			if seen[part] {
				continue
			}
			seen[part] = true
			out = append(out, part)
		}
	}

	return out
}

func (f *FilterSpec) parseAge(values url.Values, param string) *int {
	raw := values.Get(param)
	if raw == "" {
		return nil
	}

	age, err := strconv.Atoi(raw)
	if err != nil || age < 0 {
		f.fallback(param, raw, "not a non-negative integer, ignoring")
		return nil
	}

	return &age
}

func (f *FilterSpec) parseDate(values url.Values, param string) *time.Time {
	raw := values.Get(param)
	if raw == "" {
		return nil
	}

	if date, err := time.Parse(dateLayout, raw); err == nil {
		return &date
	}
	if date, err := time.Parse(time.RFC3339, raw); err == nil {
		truncated := time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, time.UTC)
		return &truncated
	}

	f.fallback(param, raw, "not a date, ignoring")
	return nil
}
