package quintctl

// Kind selects how a decoded register value is rendered.
type Kind string

const (
	KindInt   Kind = "int"   // numeric value with unit
	KindBool  Kind = "bool"  // on | off
	KindState Kind = "state" // enumeration through Labels or Classify
	KindBits  Kind = "bits"  // bit field with per bit descriptions
)

// Width is the number of bits a register spans on the wire.
type Width uint8

const (
	Width16 Width = 16
	Width32 Width = 32
)

// Words returns the number of 16-bit modbus registers the width occupies.
func (w Width) Words() uint16 {
	if w == Width32 {
		return 2
	}
	return 1
}

// RegisterDef describes one named register of the UPS.
type RegisterDef struct {
	Name        string            // the documented register name
	Aliases     []string          // alternative names accepted on the command line
	Address     uint16            // the address of the first register word
	Width       Width             // Width16 | Width32
	Signed      bool              // two's complement value
	Scale       float64           // engineering value = raw * Scale, 0 means 1
	Unit        string            // unit of the scaled value
	Writable    bool              // write access through set
	Kind        Kind              // int | bool | state | bits
	Labels      map[uint32]string // raw values with a special meaning (e.g. 65535: not initialized)
	Classify    func(raw uint32) string
	Bits        map[uint]string // bit descriptions for KindBits
	Min, Max    *float64        // allowed range of the scaled value, nil if unbounded
	Description string
}

// Words returns the number of 16-bit registers this definition spans.
func (d *RegisterDef) Words() uint16 {
	return d.Width.Words()
}

// End returns the address following the last word of the register.
func (d *RegisterDef) End() uint32 {
	return uint32(d.Address) + uint32(d.Words())
}

func (d *RegisterDef) scale() float64 {
	if d.Scale == 0 {
		return 1
	}
	return d.Scale
}

func bound(v float64) *float64 {
	return &v
}
