package remote

import (
	"strconv"
	"strings"
)

// CompareVersions compares dotted numeric versions like "1.4.2". It returns
// -1, 0 or 1. Missing segments count as zero, a leading "v" is ignored, and
// non-numeric segments compare as zero.
func CompareVersions(a, b string) int {
	as := segments(a)
	bs := segments(b)
	n := len(as)
	if len(bs) > n {
		n = len(bs)
	}
	for i := 0; i < n; i++ {
		av, bv := 0, 0
		if i < len(as) {
			av = as[i]
		}
		if i < len(bs) {
			bv = bs[i]
		}
		if av != bv {
			if av < bv {
				return -1
			}
			return 1
		}
	}
	return 0
}

// IsSupported reports whether current satisfies the service's minimum
// version. An empty minimum never gates.
func IsSupported(current, min string) bool {
	if min == "" {
		return true
	}
	if current == "" || current == "dev" {
		// Development builds are never locked out.
		return true
	}
	return CompareVersions(current, min) >= 0
}

func segments(v string) []int {
	v = strings.TrimPrefix(strings.TrimSpace(v), "v")
	if v == "" {
		return nil
	}
	parts := strings.Split(v, ".")
	out := make([]int, len(parts))
	for i, p := range parts {
		n, err := strconv.Atoi(p)
		if err != nil {
			n = 0
		}
		out[i] = n
	}
	return out
}
