package cmd

import (
	"errors"
	"fmt"
	"strings"

	"github.com/admobkit/admob/internal/report"
	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"
)

// SilentError signals a failure that has already been reported to the user.
var SilentError = errors.New("silent error")

// ParseMapFlag turns KEY=VALUE flag values into a map. Values wrapped in
// brackets, such as [A,B], become string slices.
func ParseMapFlag(flagSet map[string]string) map[string]any {
	values := make(map[string]any)
	for k, v := range flagSet {
		var val any = v

		// slice
		if strings.HasPrefix(v, "[") && strings.HasSuffix(v, "]") {
			v = strings.TrimPrefix(v, "[")
			v = strings.TrimSuffix(v, "]")

			val = strings.Split(v, ",")
		}

		values[k] = val
	}

	return values
}

// ParseFilterFlag builds dimension filters from --filter DIM=[A,B] values,
// ordered by dimension.
func ParseFilterFlag(flagSet map[string]string) []report.DimensionFilter {
	values := ParseMapFlag(flagSet)

	keys := maps.Keys(values)
	slices.Sort(keys)

	var filters []report.DimensionFilter
	for _, k := range keys {
		f := report.DimensionFilter{Dimension: k}
		switch v := values[k].(type) {
		case []string:
			f.Values = v
		case string:
			f.Values = []string{v}
		}
		filters = append(filters, f)
	}

	return filters
}

// ParseSortFlag builds sort conditions from --sort KEY=ORDER values, in the
// order they were given. Keys listed in spec.Dimensions sort by dimension,
// all others by metric.
func ParseSortFlag(spec report.Spec, values []string) ([]report.SortCondition, error) {
	var conditions []report.SortCondition
	for _, v := range values {
		key, order, ok := strings.Cut(v, "=")
		if !ok {
			order = string(report.Ascending)
		}
		if key == "" {
			return nil, fmt.Errorf("invalid sort %q, want KEY=ASCENDING|DESCENDING", v)
		}

		o := report.SortOrder(strings.ToUpper(order))
		if o != report.Ascending && o != report.Descending {
			return nil, fmt.Errorf("invalid sort order %q for %s", order, key)
		}

		conditions = append(conditions, spec.SortFor(key, o))
	}

	return conditions, nil
}
