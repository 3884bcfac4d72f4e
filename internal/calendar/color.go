package calendar

import (
	"hash/fnv"
	"sort"
	"strings"
)

// InfoColor is the color tag that marks an event as informational. Grouping
// never assigns it.
const InfoColor = 8

// palette is every assignable event color of the provider except InfoColor.
var palette = []int{1, 2, 3, 4, 5, 6, 7, 9, 10, 11}

func paletteIndex(s string) int {
	h := fnv.New32a()
	h.Write([]byte(s))
	return int(h.Sum32() % uint32(len(palette)))
}

// EventColor is the color an event falls back to once it leaves a group.
func EventColor(id string) int {
	return palette[paletteIndex(id)]
}

// GroupColor is the shared color of a set of linked events. It does not depend
// on the order of ids.
func GroupColor(ids []string) int {
	sorted := append([]string(nil), ids...)
	sort.Strings(sorted)
	return palette[paletteIndex(strings.Join(sorted, "\x00"))]
}

// UngroupColors assigns each id its EventColor, moving along the palette when
// an earlier id (in sorted order) already took that color. Results are stable
// for the same set of ids. Colors repeat only when ids outnumber the palette.
func UngroupColors(ids []string) map[string]int {
	sorted := append([]string(nil), ids...)
	sort.Strings(sorted)

	out := make(map[string]int, len(sorted))
	used := make(map[int]bool, len(palette))
	for _, id := range sorted {
		if _, done := out[id]; done {
			continue
		}
		if len(used) == len(palette) {
			clear(used)
		}
		i := paletteIndex(id)
		for used[palette[i]] {
			i = (i + 1) % len(palette)
		}
		used[palette[i]] = true
		out[id] = palette[i]
	}
	return out
}
