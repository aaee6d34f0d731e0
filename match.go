package lzmatch

// Match is a back reference: Len bytes at the current position equal the
// Len bytes Dist+1 positions earlier.
type Match struct {
	Len  uint32
	Dist uint32
}

// Longest returns the last (and so the longest) match of a GetMatches result.
func Longest(ms []Match) (Match, bool) {
	if len(ms) == 0 {
		return Match{}, false
	}

	return ms[len(ms)-1], true
}
