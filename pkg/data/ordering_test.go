package data

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func ids(chapters []*Chapter) []string {
	out := make([]string, len(chapters))
	for i, c := range chapters {
		out[i] = c.ID
	}
	return out
}

func TestSortChaptersDescNumeric(t *testing.T) {
	chapters := []*Chapter{
		{ID: "c3", Volume: "1", Number: "3"},
		{ID: "c10", Volume: "2", Number: "10"},
		{ID: "c5", Volume: "1", Number: "5"},
		{ID: "c4", Volume: "1", Number: "4"},
	}

	SortChaptersDesc(chapters)

	// "10" must sort above "5" numerically, not textually
	assert.Equal(t, []string{"c10", "c5", "c4", "c3"}, ids(chapters))
}

func TestSortChaptersDescDecimalChapters(t *testing.T) {
	chapters := []*Chapter{
		{ID: "c2", Number: "2"},
		{ID: "c2.5", Number: "2.5"},
		{ID: "c3", Number: "3"},
	}

	SortChaptersDesc(chapters)

	assert.Equal(t, []string{"c3", "c2.5", "c2"}, ids(chapters))
}

func TestSortChaptersDescFallsBackToText(t *testing.T) {
	chapters := []*Chapter{
		{ID: "extra", Number: "extra"},
		{ID: "bonus", Number: "bonus"},
		{ID: "oneshot", Number: "oneshot"},
	}

	SortChaptersDesc(chapters)

	assert.Equal(t, []string{"oneshot", "extra", "bonus"}, ids(chapters))
}

func TestSortChaptersDescNumericTieBrokenByText(t *testing.T) {
	chapters := []*Chapter{
		{ID: "a", Number: "5"},
		{ID: "b", Number: "5.0"},
	}

	SortChaptersDesc(chapters)

	assert.Equal(t, []string{"b", "a"}, ids(chapters))
}

func TestCompareChaptersVolumeFirst(t *testing.T) {
	a := &Chapter{Volume: "1", Number: "99"}
	b := &Chapter{Volume: "2", Number: "1"}

	assert.Negative(t, CompareChapters(a, b))
	assert.Positive(t, CompareChapters(b, a))
	assert.Zero(t, CompareChapters(a, a))
}

func TestSortChaptersDescUnvolumedAreNewest(t *testing.T) {
	chapters := []*Chapter{
		{ID: "ch1", Volume: "1", Number: "1"},
		{ID: "ch2", Volume: "1", Number: "2"},
		{ID: "ch4", Volume: "", Number: "4"},
		{ID: "ch3", Volume: "", Number: "3"},
		{ID: "ch0", Volume: "0", Number: "0"},
	}

	SortChaptersDesc(chapters)

	// chapters not yet in a volume are the latest releases
	assert.Equal(t, []string{"ch4", "ch3", "ch2", "ch1", "ch0"}, ids(chapters))
}
