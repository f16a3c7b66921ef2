package cmd

import (
	"testing"

	"github.com/admobkit/admob/internal/report"
	"github.com/stretchr/testify/assert"
)

func Test_ParseMapFlag(t *testing.T) {
	cases := []struct {
		Name string
		In   map[string]string
		Out  map[string]any
	}{
		{
			Name: "string value",
			In: map[string]string{
				"COUNTRY": "US",
			},
			Out: map[string]any{
				"COUNTRY": "US",
			},
		},
		{
			Name: "slice value",
			In: map[string]string{
				"COUNTRY": "[US,CA]",
			},
			Out: map[string]any{
				"COUNTRY": []string{"US", "CA"},
			},
		},
	}

	for _, c := range cases {
		c := c

		t.Run(c.Name, func(t *testing.T) {
			t.Parallel()

			out := ParseMapFlag(c.In)
			assert.Equal(t, c.Out, out)
		})
	}
}

func Test_ParseFilterFlag(t *testing.T) {
	filters := ParseFilterFlag(map[string]string{
		"PLATFORM": "ANDROID",
		"COUNTRY":  "[US,CA]",
	})

	assert.Equal(t, []report.DimensionFilter{
		{Dimension: "COUNTRY", Values: []string{"US", "CA"}},
		{Dimension: "PLATFORM", Values: []string{"ANDROID"}},
	}, filters)
}

func Test_ParseSortFlag(t *testing.T) {
	spec := report.Spec{Dimensions: []string{"DATE", "APP"}}

	cases := []struct {
		Name    string
		In      []string
		Out     []report.SortCondition
		WantErr bool
	}{
		{
			Name: "dimension and metric",
			In:   []string{"DATE=descending", "CLICKS=ASCENDING"},
			Out: []report.SortCondition{
				{Dimension: "DATE", Order: report.Descending},
				{Metric: "CLICKS", Order: report.Ascending},
			},
		},
		{
			Name: "default order",
			In:   []string{"APP"},
			Out: []report.SortCondition{
				{Dimension: "APP", Order: report.Ascending},
			},
		},
		{
			Name:    "bad order",
			In:      []string{"DATE=UP"},
			WantErr: true,
		},
		{
			Name:    "missing key",
			In:      []string{"=DESCENDING"},
			WantErr: true,
		},
	}

	for _, c := range cases {
		c := c

		t.Run(c.Name, func(t *testing.T) {
			t.Parallel()
			assert := assert.New(t)

			out, err := ParseSortFlag(spec, c.In)
			if c.WantErr {
				assert.Error(err)
				return
			}

			assert.NoError(err)
			assert.Equal(c.Out, out)
		})
	}
}
