package meta

import (
	"strconv"
	"strings"
	"time"
)

// ParsePeriod parses "<integer>[m|h|d]"; a bare integer counts seconds.
func ParsePeriod(text string) (time.Duration, error) {
	if text == "" {
		return 0, &ParseError{Field: "period", Input: text, Reason: "empty"}
	}
	unit := time.Second
	num := text
	switch text[len(text)-1] {
	case 'm':
		unit = time.Minute
		num = text[:len(text)-1]
	case 'h':
		unit = time.Hour
		num = text[:len(text)-1]
	case 'd':
		unit = 24 * time.Hour
		num = text[:len(text)-1]
	default:
		if text[len(text)-1] < '0' || text[len(text)-1] > '9' {
			return 0, &ParseError{Field: "period", Input: text, Reason: "unknown suffix"}
		}
	}
	n, err := strconv.ParseUint(num, 10, 32)
	if err != nil {
		return 0, &ParseError{Field: "period", Input: text, Reason: "bad number"}
	}
	return time.Duration(n) * unit, nil
}

// ParseByteSize parses "<integer>[K|M|G]" as KiB/MiB/GiB multiples.
func ParseByteSize(text string) (int64, error) {
	if text == "" {
		return 0, &ParseError{Field: "size", Input: text, Reason: "empty"}
	}
	var unit int64 = 1
	num := text
	switch text[len(text)-1] {
	case 'K':
		unit = 1 << 10
		num = text[:len(text)-1]
	case 'M':
		unit = 1 << 20
		num = text[:len(text)-1]
	case 'G':
		unit = 1 << 30
		num = text[:len(text)-1]
	default:
		if text[len(text)-1] < '0' || text[len(text)-1] > '9' {
			return 0, &ParseError{Field: "size", Input: text, Reason: "unknown suffix"}
		}
	}
	n, err := strconv.ParseInt(num, 10, 64)
	if err != nil || n < 0 {
		return 0, &ParseError{Field: "size", Input: text, Reason: "bad number"}
	}
	return n * unit, nil
}

// CompressAlgo names a wdiff compression algorithm.
type CompressAlgo string

const (
	CompressNone   CompressAlgo = "none"
	CompressSnappy CompressAlgo = "snappy"
	CompressGzip   CompressAlgo = "gzip"
	CompressLzma   CompressAlgo = "lzma"
)

// CompressOpt is a parsed "<algo>[:<level>[:<numCPU>]]" option.
type CompressOpt struct {
	Algo   CompressAlgo
	Level  int
	NumCPU int
}

// String renders the canonical full form algo:level:numCPU.
func (c CompressOpt) String() string {
	return string(c.Algo) + ":" + strconv.Itoa(c.Level) + ":" + strconv.Itoa(c.NumCPU)
}

// ParseCompressOpt parses "<algo>[:<level>[:<numCPU>]]"; missing numeric
// fields default to 0.
func ParseCompressOpt(text string) (CompressOpt, error) {
	parts := strings.Split(text, ":")
	if len(parts) > 3 {
		return CompressOpt{}, &ParseError{Field: "compress", Input: text, Reason: "too many fields"}
	}

	var opt CompressOpt
	switch CompressAlgo(parts[0]) {
	case CompressNone, CompressSnappy, CompressGzip, CompressLzma:
		opt.Algo = CompressAlgo(parts[0])
	default:
		return CompressOpt{}, &ParseError{Field: "compress", Input: text, Reason: "unknown algorithm"}
	}

	if len(parts) >= 2 {
		level, err := strconv.Atoi(parts[1])
		if err != nil || level < 0 {
			return CompressOpt{}, &ParseError{Field: "compress", Input: text, Reason: "bad level"}
		}
		opt.Level = level
	}
	if len(parts) == 3 {
		n, err := strconv.Atoi(parts[2])
		if err != nil || n < 0 {
			return CompressOpt{}, &ParseError{Field: "compress", Input: text, Reason: "bad cpu count"}
		}
		opt.NumCPU = n
	}
	return opt, nil
}
