package engine

import (
	"cmp"
	"net/netip"
	"slices"

	"github.com/lc/dnsfan/internal/dnsresolver"
)

// AddrCount is one row of the ranking: an address and how many answers
// contained it across all servers.
type AddrCount struct {
	Addr  netip.Addr
	Count int
}

// Frequencies counts every address of every successful outcome. An address
// returned by k servers has count k; an address repeated inside one answer
// counts each time.
func Frequencies(outcomes []Outcome) map[netip.Addr]int {
	freq := make(map[netip.Addr]int)
	for _, o := range outcomes {
		if o.Kind != dnsresolver.Success {
			continue
		}
		for _, a := range o.Addrs {
			freq[a]++
		}
	}
	return freq
}

// Rank orders freq by count, highest first. Equal counts are ordered by
// ascending address so the output does not depend on map iteration.
func Rank(freq map[netip.Addr]int) []AddrCount {
	ranked := make([]AddrCount, 0, len(freq))
	for addr, n := range freq {
		ranked = append(ranked, AddrCount{Addr: addr, Count: n})
	}
	slices.SortFunc(ranked, func(a, b AddrCount) int {
		if c := cmp.Compare(b.Count, a.Count); c != 0 {
			return c
		}
		return a.Addr.Compare(b.Addr)
	})
	return ranked
}

// Aggregate ranks the addresses found in outcomes. It returns an empty,
// non-nil slice when no outcome succeeded.
func Aggregate(outcomes []Outcome) []AddrCount {
	return Rank(Frequencies(outcomes))
}
