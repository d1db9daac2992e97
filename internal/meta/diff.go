package meta

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// TimestampLayout is the timestamp form used by the admin text protocol.
const TimestampLayout = "2006-01-02T15:04:05"

// Diff is a directed edge in gid space describing one wdiff file: the
// snapshot it applies from, the snapshot it produces, two flags, the wdiff
// creation time and its byte size.
//
// Mergeable marks a diff that may be coalesced into its predecessor.
// Compressed marks a diff produced by hash backup or replication; such diffs
// never participate in merges.
type Diff struct {
	From       Snapshot
	To         Snapshot
	Mergeable  bool
	Compressed bool
	Timestamp  time.Time
	Size       int64
}

// flags renders the two-character flag field.
func (d Diff) flags() string {
	b := [2]byte{'-', '-'}
	if d.Mergeable {
		b[0] = 'M'
	}
	if d.Compressed {
		b[1] = 'C'
	}
	return string(b[:])
}

// String renders the canonical form |from|-->|to| <flags> <timestamp> <size>.
func (d Diff) String() string {
	return fmt.Sprintf("%s-->%s %s %s %d",
		d.From, d.To, d.flags(), d.Timestamp.Format(TimestampLayout), d.Size)
}

// ParseDiff parses the canonical diff line.
func ParseDiff(text string) (Diff, error) {
	fields := strings.Fields(text)
	if len(fields) != 4 {
		return Diff{}, &ParseError{Field: "diff", Input: text, Reason: "want 4 fields"}
	}

	fromPart, toPart, ok := strings.Cut(fields[0], "-->")
	if !ok {
		return Diff{}, &ParseError{Field: "diff", Input: text, Reason: "missing '-->'"}
	}
	from, err := ParseSnapshot(fromPart)
	if err != nil {
		return Diff{}, err
	}
	to, err := ParseSnapshot(toPart)
	if err != nil {
		return Diff{}, err
	}

	flags := fields[1]
	if len(flags) != 2 ||
		(flags[0] != 'M' && flags[0] != '-') ||
		(flags[1] != 'C' && flags[1] != '-') {
		return Diff{}, &ParseError{Field: "diff", Input: text, Reason: "bad flag field"}
	}

	ts, err := time.Parse(TimestampLayout, fields[2])
	if err != nil {
		return Diff{}, &ParseError{Field: "diff", Input: text, Reason: "bad timestamp"}
	}

	size, err := strconv.ParseInt(fields[3], 10, 64)
	if err != nil || size < 0 {
		return Diff{}, &ParseError{Field: "diff", Input: text, Reason: "bad size"}
	}

	return Diff{
		From:       from,
		To:         to,
		Mergeable:  flags[0] == 'M',
		Compressed: flags[1] == 'C',
		Timestamp:  ts,
		Size:       size,
	}, nil
}

// ParseDiffList parses one diff per non-empty line.
func ParseDiffList(text string) ([]Diff, error) {
	var diffs []Diff
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		d, err := ParseDiff(line)
		if err != nil {
			return nil, err
		}
		diffs = append(diffs, d)
	}
	return diffs, nil
}
