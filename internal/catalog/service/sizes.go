package service

import "sort"

// canonicalSizeOrder garment size ladder. Sizes outside the ladder sort
// lexicographically after it (free-size, age bands, odd vendor codes).
var canonicalSizeOrder = map[string]int{
	"XXS": 0,
	"XS":  1,
	"S":   2,
	"M":   3,
	"L":   4,
	"XL":  5,
	"XXL": 6,
	"3XL": 7,
	"4XL": 8,
}

// sizeLess orders two size labels: ladder first, then lexicographic
func sizeLess(a, b string) bool {
	ai, aok := canonicalSizeOrder[a]
	bi, bok := canonicalSizeOrder[b]
	switch {
	case aok && bok:
		return ai < bi
	case aok:
		return true
	case bok:
		return false
	default:
		return a < b
	}
}

// sortSizes sorts size labels in place in canonical order
func sortSizes(sizes []string) {
	sort.SliceStable(sizes, func(i, j int) bool {
		return sizeLess(sizes[i], sizes[j])
	})
}
