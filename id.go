package fivenine

import (
	"math/rand/v2"
	"strconv"
	"strings"
	"time"
)

const (
	// idHalf is the number of distinct 6-digit base-36 values.
	idHalf = 36 * 36 * 36 * 36 * 36 * 36

	// idChecksum is the divisor every event ID is rounded down to.
	idChecksum = 37

	// EventIDLen is the length of a generated event ID.
	EventIDLen = 12
)

// IDGenerator mints event IDs.
type IDGenerator interface {
	Generate() string
}

// IDGeneratorFunc adapts a plain function to IDGenerator.
type IDGeneratorFunc func() string

// Generate calls f.
func (f IDGeneratorFunc) Generate() string { return f() }

// RandSource is the entropy consumed by IdGenerator. *rand.Rand from
// math/rand/v2 satisfies it.
type RandSource interface {
	Uint64N(n uint64) uint64
}

// globalRand uses the package-level math/rand/v2 source, which is safe for
// concurrent use.
type globalRand struct{}

func (globalRand) Uint64N(n uint64) uint64 { return rand.Uint64N(n) }

// IdGenerator produces 12-character base-36 event IDs.
//
// The six most significant digits are the current Unix time in seconds
// modulo 36^6, the six least significant digits are random, and the whole
// value is rounded down to a multiple of 37 so that receivers can reject
// garbled IDs. IDs minted close in time share a prefix.
type IdGenerator struct {
	now  func() time.Time
	rand RandSource
}

// NewIdGenerator creates a generator reading time from now and entropy from
// rnd. Nil arguments fall back to time.Now and the global math/rand/v2
// source.
func NewIdGenerator(now func() time.Time, rnd RandSource) *IdGenerator {
	if now == nil {
		now = time.Now
	}
	if rnd == nil {
		rnd = globalRand{}
	}
	return &IdGenerator{now: now, rand: rnd}
}

// DefaultIdGenerator returns a generator backed by the wall clock and the
// global random source.
func DefaultIdGenerator() *IdGenerator {
	return NewIdGenerator(nil, nil)
}

// Generate returns a new event ID.
func (g *IdGenerator) Generate() string {
	timePart := uint64(g.now().Unix()) % idHalf
	randPart := g.rand.Uint64N(idHalf)
	full := timePart*idHalf + randPart
	return formatEventID(full - full%idChecksum)
}

// formatEventID encodes v as uppercase base-36, left padded to EventIDLen.
func formatEventID(v uint64) string {
	s := strings.ToUpper(strconv.FormatUint(v, 36))
	if len(s) >= EventIDLen {
		return s
	}
	return strings.Repeat("0", EventIDLen-len(s)) + s
}

// ParseEventID decodes an event ID into its numeric value. It fails with
// ErrInvalidEventID unless id is 12 uppercase base-36 digits whose value
// is divisible by 37.
func ParseEventID(id string) (uint64, error) {
	if len(id) != EventIDLen {
		return 0, ErrInvalidEventID
	}
	for i := 0; i < len(id); i++ {
		c := id[i]
		if !(c >= '0' && c <= '9' || c >= 'A' && c <= 'Z') {
			return 0, ErrInvalidEventID
		}
	}
	v, err := strconv.ParseUint(id, 36, 64)
	if err != nil {
		return 0, ErrInvalidEventID
	}
	if v%idChecksum != 0 {
		return 0, ErrInvalidEventID
	}
	return v, nil
}

// ValidEventID reports whether id is a well-formed event ID.
func ValidEventID(id string) bool {
	_, err := ParseEventID(id)
	return err == nil
}

// EventIDTime returns the time component of an event ID, i.e. the Unix
// seconds modulo 36^6 it was minted at. The checksum rounding may have
// lowered it by one.
func EventIDTime(id string) (uint64, error) {
	v, err := ParseEventID(id)
	if err != nil {
		return 0, err
	}
	return v / idHalf, nil
}
