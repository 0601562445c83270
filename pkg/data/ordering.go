package data

import (
	"sort"
	"strconv"
	"strings"
)

// CompareChapters orders two chapters by (volume, number). Labels are
// compared as numbers when both sides parse, as text otherwise. A chapter
// without a volume is not collected yet and sorts after every volume. It
// returns a negative value when a sorts before b in ascending order.
func CompareChapters(a, b *Chapter) int {
	if c := compareVolume(a.Volume, b.Volume); c != 0 {
		return c
	}
	if c := compareLabel(a.Number, b.Number); c != 0 {
		return c
	}
	return strings.Compare(a.Number, b.Number)
}

func compareVolume(a, b string) int {
	a, b = strings.TrimSpace(a), strings.TrimSpace(b)
	switch {
	case a == "" && b == "":
		return 0
	case a == "":
		return 1
	case b == "":
		return -1
	}
	return compareLabel(a, b)
}

func compareLabel(a, b string) int {
	fa, errA := strconv.ParseFloat(strings.TrimSpace(a), 64)
	fb, errB := strconv.ParseFloat(strings.TrimSpace(b), 64)
	if errA == nil && errB == nil {
		switch {
		case fa < fb:
			return -1
		case fa > fb:
			return 1
		default:
			return 0
		}
	}
	return strings.Compare(a, b)
}

// SortChaptersDesc sorts in place so that index 0 is the newest chapter.
// This is the ordering every chapter list handed to the reader follows.
func SortChaptersDesc(chapters []*Chapter) {
	sort.SliceStable(chapters, func(i, j int) bool {
		return CompareChapters(chapters[i], chapters[j]) > 0
	})
}
