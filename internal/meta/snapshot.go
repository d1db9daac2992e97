package meta

import (
	"fmt"
	"strconv"
	"strings"
)

// MaxGid is the open/unbounded generation id sentinel.
const MaxGid = ^uint64(0)

// Snapshot identifies a backup point as a gid range. GidB == GidE denotes a
// clean (single point) snapshot; GidB < GidE denotes a dirty snapshot whose
// upper bound is still open.
type Snapshot struct {
	GidB uint64
	GidE uint64
}

// CleanSnapshot returns the clean snapshot at gid.
func CleanSnapshot(gid uint64) Snapshot {
	return Snapshot{GidB: gid, GidE: gid}
}

// OpenSnapshot returns the dirty snapshot starting at gid with an unbounded
// upper end.
func OpenSnapshot(gid uint64) Snapshot {
	return Snapshot{GidB: gid, GidE: MaxGid}
}

// IsClean reports whether the snapshot covers a single gid.
func (s Snapshot) IsClean() bool {
	return s.GidB == s.GidE
}

// Valid reports whether the gid range is well formed.
func (s Snapshot) Valid() bool {
	return s.GidB <= s.GidE
}

// String renders the canonical text form |gidB,gidE|, collapsed to |gidB|
// for clean snapshots.
func (s Snapshot) String() string {
	if s.IsClean() {
		return fmt.Sprintf("|%d|", s.GidB)
	}
	return fmt.Sprintf("|%d,%d|", s.GidB, s.GidE)
}

// ParseSnapshot parses the canonical |gidB[,gidE]| form.
func ParseSnapshot(text string) (Snapshot, error) {
	body, ok := strings.CutPrefix(text, "|")
	if !ok {
		return Snapshot{}, &ParseError{Field: "snapshot", Input: text, Reason: "missing leading '|'"}
	}
	body, ok = strings.CutSuffix(body, "|")
	if !ok {
		return Snapshot{}, &ParseError{Field: "snapshot", Input: text, Reason: "missing trailing '|'"}
	}

	gidB, gidE, found := strings.Cut(body, ",")
	b, err := strconv.ParseUint(gidB, 10, 64)
	if err != nil {
		return Snapshot{}, &ParseError{Field: "snapshot", Input: text, Reason: "bad begin gid"}
	}
	if !found {
		return CleanSnapshot(b), nil
	}
	e, err := strconv.ParseUint(gidE, 10, 64)
	if err != nil {
		return Snapshot{}, &ParseError{Field: "snapshot", Input: text, Reason: "bad end gid"}
	}
	s := Snapshot{GidB: b, GidE: e}
	if !s.Valid() {
		return Snapshot{}, &ParseError{Field: "snapshot", Input: text, Reason: "begin gid exceeds end gid"}
	}
	return s, nil
}

// MetaState is the durable recovery point of an archive volume: the base
// snapshot is guaranteed consistent, and Applying (if set) is a snapshot in
// the middle of being materialized onto the base.
type MetaState struct {
	Base     Snapshot
	Applying *Snapshot
}

// NewMetaState returns a meta state with only a base snapshot.
func NewMetaState(base Snapshot) MetaState {
	return MetaState{Base: base}
}

// NewApplyingMetaState returns a meta state with an in-progress applying
// snapshot.
func NewApplyingMetaState(base, applying Snapshot) MetaState {
	return MetaState{Base: base, Applying: &applying}
}

// IsApplying reports whether an apply is in progress.
func (m MetaState) IsApplying() bool {
	return m.Applying != nil
}

// Equal reports structural equality, including absence of Applying.
func (m MetaState) Equal(other MetaState) bool {
	if m.Base != other.Base {
		return false
	}
	if (m.Applying == nil) != (other.Applying == nil) {
		return false
	}
	return m.Applying == nil || *m.Applying == *other.Applying
}

// String renders <|base|> or <|base|-->|applying|>.
func (m MetaState) String() string {
	if m.Applying == nil {
		return fmt.Sprintf("<%s>", m.Base)
	}
	return fmt.Sprintf("<%s-->%s>", m.Base, *m.Applying)
}

// ParseMetaState parses the <|base|[-->|applying|]> form.
func ParseMetaState(text string) (MetaState, error) {
	body, ok := strings.CutPrefix(text, "<")
	if !ok {
		return MetaState{}, &ParseError{Field: "meta state", Input: text, Reason: "missing leading '<'"}
	}
	body, ok = strings.CutSuffix(body, ">")
	if !ok {
		return MetaState{}, &ParseError{Field: "meta state", Input: text, Reason: "missing trailing '>'"}
	}

	basePart, applyPart, applying := strings.Cut(body, "-->")
	base, err := ParseSnapshot(basePart)
	if err != nil {
		return MetaState{}, err
	}
	if !applying {
		return NewMetaState(base), nil
	}
	apply, err := ParseSnapshot(applyPart)
	if err != nil {
		return MetaState{}, err
	}
	return NewApplyingMetaState(base, apply), nil
}
