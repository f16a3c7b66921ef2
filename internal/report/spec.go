package report

import (
	"errors"
	"fmt"

	"github.com/tidwall/sjson"
	"golang.org/x/exp/slices"
)

type Kind string

const (
	KindNetwork   Kind = "network"
	KindMediation Kind = "mediation"
	KindCampaign  Kind = "campaign"
)

type SortOrder string

const (
	Ascending  SortOrder = "ASCENDING"
	Descending SortOrder = "DESCENDING"
)

// SortCondition orders by either a dimension or a metric.
type SortCondition struct {
	Dimension string
	Metric    string
	Order     SortOrder
}

// DimensionFilter keeps rows whose dimension matches any of Values.
type DimensionFilter struct {
	Dimension string
	Values    []string
}

// Spec describes one generate request. Dimension and metric names are passed
// through to the API unchecked.
type Spec struct {
	Start      Date
	End        Date
	Dimensions []string
	Metrics    []string
	Sort       []SortCondition
	Filters    []DimensionFilter
	TimeZone   string
	// LanguageCode localizes dimension labels, e.g. "en-US".
	LanguageCode string
}

func (s Spec) Validate(kind Kind) error {
	var result error

	switch kind {
	case KindNetwork, KindMediation, KindCampaign:
	default:
		result = errors.Join(result, fmt.Errorf("unknown report kind: %q", kind))
	}

	if s.End.Time().Before(s.Start.Time()) {
		result = errors.Join(result, fmt.Errorf("end date %s is before start date %s", s.End, s.Start))
	}

	if len(s.Metrics) == 0 {
		result = errors.Join(result, errors.New("at least one metric is required"))
	}

	for _, c := range s.Sort {
		if (c.Dimension == "") == (c.Metric == "") {
			result = errors.Join(result, errors.New("a sort condition needs exactly one of dimension or metric"))
		}
		if c.Order != Ascending && c.Order != Descending {
			result = errors.Join(result, fmt.Errorf("invalid sort order: %q", c.Order))
		}
	}

	if kind == KindCampaign && (len(s.Sort) > 0 || len(s.Filters) > 0 || s.TimeZone != "") {
		result = errors.Join(result, errors.New("campaign reports do not support sorting, filters or time zones"))
	}

	return result
}

// Body renders the generate request body.
func (s Spec) Body(kind Kind) ([]byte, error) {
	if err := s.Validate(kind); err != nil {
		return nil, err
	}

	body := []byte(`{}`)
	set := func(path string, v any) {
		if body == nil {
			return
		}
		b, err := sjson.SetBytes(body, path, v)
		if err != nil {
			body = nil
			return
		}
		body = b
	}

	set("reportSpec.dateRange.startDate", s.Start)
	set("reportSpec.dateRange.endDate", s.End)
	if len(s.Dimensions) > 0 {
		set("reportSpec.dimensions", s.Dimensions)
	}
	set("reportSpec.metrics", s.Metrics)

	if len(s.Sort) > 0 {
		conditions := make([]map[string]string, 0, len(s.Sort))
		for _, c := range s.Sort {
			cond := map[string]string{"order": string(c.Order)}
			if c.Dimension != "" {
				cond["dimension"] = c.Dimension
			} else {
				cond["metric"] = c.Metric
			}
			conditions = append(conditions, cond)
		}
		set("reportSpec.sortConditions", conditions)
	}

	if len(s.Filters) > 0 {
		filters := make([]map[string]any, 0, len(s.Filters))
		for _, f := range s.Filters {
			filters = append(filters, map[string]any{
				"dimension":  f.Dimension,
				"matchesAny": map[string][]string{"values": f.Values},
			})
		}
		set("reportSpec.dimensionFilters", filters)
	}

	if s.TimeZone != "" {
		set("reportSpec.timeZone", s.TimeZone)
	}
	// Campaign reports take the language at the top level of the spec.
	switch {
	case s.LanguageCode == "":
	case kind == KindCampaign:
		set("reportSpec.languageCode", s.LanguageCode)
	default:
		set("reportSpec.localizationSettings.languageCode", s.LanguageCode)
	}

	if body == nil {
		return nil, errors.New("encoding report request")
	}

	return body, nil
}

// SortFor builds a sort condition, treating key as a dimension when the spec
// requests it and as a metric otherwise.
func (s Spec) SortFor(key string, order SortOrder) SortCondition {
	if slices.Contains(s.Dimensions, key) {
		return SortCondition{Dimension: key, Order: order}
	}

	return SortCondition{Metric: key, Order: order}
}
