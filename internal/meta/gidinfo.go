package meta

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// GidInfo pairs a gid with the wall-clock time it became restorable.
// Well-formed sequences are ordered by gid, monotonic with timestamp.
type GidInfo struct {
	Gid       uint64
	Timestamp time.Time
}

// String renders "<gid> <timestamp>".
func (g GidInfo) String() string {
	return fmt.Sprintf("%d %s", g.Gid, g.Timestamp.Format(TimestampLayout))
}

// ParseGidInfo parses a "<gid> <timestamp>" line.
func ParseGidInfo(text string) (GidInfo, error) {
	gidPart, tsPart, ok := strings.Cut(strings.TrimSpace(text), " ")
	if !ok {
		return GidInfo{}, &ParseError{Field: "gid info", Input: text, Reason: "want 2 fields"}
	}
	gid, err := strconv.ParseUint(gidPart, 10, 64)
	if err != nil {
		return GidInfo{}, &ParseError{Field: "gid info", Input: text, Reason: "bad gid"}
	}
	ts, err := time.Parse(TimestampLayout, strings.TrimSpace(tsPart))
	if err != nil {
		return GidInfo{}, &ParseError{Field: "gid info", Input: text, Reason: "bad timestamp"}
	}
	return GidInfo{Gid: gid, Timestamp: ts}, nil
}

// ParseGidInfoList parses one gid info per non-empty line.
func ParseGidInfoList(text string) ([]GidInfo, error) {
	var infos []GidInfo
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		info, err := ParseGidInfo(line)
		if err != nil {
			return nil, err
		}
		infos = append(infos, info)
	}
	return infos, nil
}
