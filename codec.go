package quintctl

import (
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"
)

// DecodedValue is a register reading converted to engineering units.
type DecodedValue struct {
	Def   *RegisterDef
	Value float64
	Raw   uint32
}

// Join combines the words of a register into one raw value. 32-bit registers are delivered low
// word first.
func Join(def *RegisterDef, words []uint16) (uint32, error) {
	if len(words) != int(def.Words()) {
		return 0, fmt.Errorf("%w: %s: expected %d registers, got %d", ErrTransport, def.Name, def.Words(), len(words))
	}
	var raw uint32
	for i, w := range words {
		raw |= uint32(w) << (16 * i)
	}
	return raw, nil
}

// Split is the inverse of Join.
func Split(def *RegisterDef, raw uint32) []uint16 {
	words := make([]uint16, def.Words())
	for i := range words {
		words[i] = uint16(raw >> (16 * i))
	}
	return words
}

// Decode converts the words read from the device into a scaled value.
func Decode(def *RegisterDef, words []uint16) (DecodedValue, error) {
	raw, err := Join(def, words)
	if err != nil {
		return DecodedValue{}, err
	}

	var v float64
	switch {
	case def.Signed && def.Width == Width32:
		v = float64(int32(raw))
	case def.Signed:
		v = float64(int16(uint16(raw)))
	default:
		v = float64(raw)
	}
	return DecodedValue{Def: def, Value: v * def.scale(), Raw: raw}, nil
}

// Encode converts an engineering value into the words to write, rounding to the nearest raw
// integer.
func Encode(def *RegisterDef, value float64) ([]uint16, error) {
	if !def.Writable {
		return nil, fmt.Errorf("%w: %s", ErrNotWritable, def.Name)
	}
	if math.IsNaN(value) || math.IsInf(value, 0) {
		return nil, fmt.Errorf("%w: %s: %v", ErrEncodeRange, def.Name, value)
	}
	if def.Min != nil && value < *def.Min || def.Max != nil && value > *def.Max {
		return nil, fmt.Errorf("%w: %s: %v not within %s", ErrEncodeRange, def.Name, value, limits(def))
	}
	return encodeRaw(def, math.Round(value/def.scale()))
}

// EncodeRaw checks a raw integer against the register width and returns its words. Scale and
// limits are not applied.
func EncodeRaw(def *RegisterDef, raw int64) ([]uint16, error) {
	if !def.Writable {
		return nil, fmt.Errorf("%w: %s", ErrNotWritable, def.Name)
	}
	return encodeRaw(def, float64(raw))
}

func encodeRaw(def *RegisterDef, r float64) ([]uint16, error) {
	lo, hi := rawRange(def)
	if r < lo || r > hi {
		return nil, fmt.Errorf("%w: %s: raw value %v not within [%v, %v]", ErrEncodeRange, def.Name, r, lo, hi)
	}
	return Split(def, uint32(int64(r))), nil
}

func rawRange(def *RegisterDef) (lo, hi float64) {
	switch {
	case def.Signed && def.Width == Width32:
		return math.MinInt32, math.MaxInt32
	case def.Signed:
		return math.MinInt16, math.MaxInt16
	case def.Width == Width32:
		return 0, math.MaxUint32
	default:
		return 0, math.MaxUint16
	}
}

func limits(def *RegisterDef) string {
	lo, hi := "-inf", "+inf"
	if def.Min != nil {
		lo = formatNumber(*def.Min, def.scale())
	}
	if def.Max != nil {
		hi = formatNumber(*def.Max, def.scale())
	}
	return "[" + lo + ", " + hi + "]"
}

// Format renders a decoded value for display. Labels take precedence over the register kind.
func Format(v DecodedValue) string {
	d := v.Def
	if label, ok := d.Labels[v.Raw]; ok {
		return label
	}
	if d.Classify != nil {
		return d.Classify(v.Raw)
	}

	switch d.Kind {
	case KindBool:
		if v.Raw != 0 {
			return "on"
		}
		return "off"
	case KindBits:
		return strconv.FormatUint(uint64(v.Raw), 10)
	}
	return withUnit(formatNumber(v.Value, d.scale()), d.Unit)
}

// SetBits returns the descriptions of the bits set in a bit field register, lowest bit first.
func SetBits(v DecodedValue) []string {
	if v.Def.Kind != KindBits {
		return nil
	}
	bits := make([]uint, 0, len(v.Def.Bits))
	for b := range v.Def.Bits {
		bits = append(bits, b)
	}
	sort.Slice(bits, func(i, j int) bool { return bits[i] < bits[j] })

	var descr []string
	for _, b := range bits {
		if (v.Raw>>b)&1 == 1 {
			descr = append(descr, v.Def.Bits[b])
		}
	}
	return descr
}

// FormatRaw renders undecoded register words.
func FormatRaw(def *RegisterDef, words []uint16) string {
	return withUnit(fmt.Sprint(words), def.Unit)
}

// formatNumber prints v with as many decimal places as the scale factor has.
func formatNumber(v, scale float64) string {
	decimals := 0
	s := strconv.FormatFloat(scale, 'f', -1, 64)
	if i := strings.IndexByte(s, '.'); i >= 0 {
		decimals = len(s) - i - 1
	}
	return strconv.FormatFloat(v, 'f', decimals, 64)
}

func withUnit(s, unit string) string {
	if unit == "" {
		return s
	}
	return s + " " + unit
}
