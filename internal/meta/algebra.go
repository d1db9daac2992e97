package meta

import (
	"errors"
	"fmt"
	"time"
)

// ErrBrokenChain reports a diff list whose links do not form a single chain.
var ErrBrokenChain = errors.New("diff list is not a single chain")

// GidRange is a half-open [GidB, GidE) merge window.
type GidRange struct {
	GidB uint64
	GidE uint64
}

func (r GidRange) String() string {
	return fmt.Sprintf("(%d, %d)", r.GidB, r.GidE)
}

// LatestGidInfoBefore returns the entry with the greatest gid whose timestamp
// is at or before t. The first entry is never a candidate: the oldest
// restorable gid is the volume's current base, and applying up to it changes
// nothing.
func LatestGidInfoBefore(t time.Time, infos []GidInfo) (GidInfo, bool) {
	if len(infos) <= 1 {
		return GidInfo{}, false
	}
	var (
		best  GidInfo
		found bool
	)
	for _, info := range infos[1:] {
		if info.Timestamp.After(t) {
			continue
		}
		if !found || info.Gid > best.Gid {
			best = info
			found = true
		}
	}
	return best, found
}

// MergeGidRange resolves the next merge window of a diff chain: the first run
// of consecutive mergeable diffs, widened to include the run's immediate
// predecessor, which the run coalesces into. Compressed diffs never
// participate. Returns false when the chain holds no mergeable diff.
//
// The chain must be linear (each diff's To equal to the next diff's From);
// anything else is ErrBrokenChain.
func MergeGidRange(chain []Diff) (GidRange, bool, error) {
	for i := 1; i < len(chain); i++ {
		if chain[i].From != chain[i-1].To {
			return GidRange{}, false, fmt.Errorf("%w: %s then %s",
				ErrBrokenChain, chain[i-1], chain[i])
		}
	}

	start := -1
	for i, d := range chain {
		if d.Mergeable && !d.Compressed {
			start = i
			break
		}
	}
	if start < 0 {
		return GidRange{}, false, nil
	}

	end := start
	for end+1 < len(chain) && chain[end+1].Mergeable && !chain[end+1].Compressed {
		end++
	}

	first := start
	if start > 0 && !chain[start-1].Compressed {
		first = start - 1
	}
	return GidRange{GidB: chain[first].From.GidB, GidE: chain[end].To.GidE}, true, nil
}

// TotalDiffSize sums the byte sizes of a diff list.
func TotalDiffSize(diffs []Diff) int64 {
	var total int64
	for _, d := range diffs {
		total += d.Size
	}
	return total
}
