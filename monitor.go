package quintctl

import (
	"context"
	"fmt"
	"log/slog"
	"time"
)

// maxBlockWords is the number of registers fetched with one request while monitoring.
const maxBlockWords = 16

// AddressRange is the half-open address span [Start, End).
type AddressRange struct {
	Start uint16 `yaml:"start"`
	End   uint16 `yaml:"end"`
}

// Reading is the outcome of one register in a monitor cycle.
type Reading struct {
	Value    DecodedValue
	Words    []uint16
	Reported bool // passed the change filter
}

// block is a run of adjacent registers read with a single request.
type block struct {
	addr  uint16
	words uint16
	defs  []*RegisterDef
}

// planBlocks groups address ordered registers into contiguous runs of at most maxBlockWords.
// Addresses that are neither catalog entries nor inside a scan range are not read.
func planBlocks(defs []*RegisterDef) []block {
	var blocks []block
	for _, def := range defs {
		if n := len(blocks); n > 0 {
			b := &blocks[n-1]
			if uint32(b.addr)+uint32(b.words) == uint32(def.Address) && b.words+def.Words() <= maxBlockWords {
				b.words += def.Words()
				b.defs = append(b.defs, def)
				continue
			}
		}
		blocks = append(blocks, block{addr: def.Address, words: def.Words(), defs: []*RegisterDef{def}})
	}
	return blocks
}

// Session is one monitor run. Its filter state starts empty and lives as long as the session.
type Session struct {
	d      *Dispatcher
	blocks []block
	state  *FilterState
	count  int
}

// NewSession prepares a monitor session over the catalog and the scan ranges minus the skipped
// registers.
func (d *Dispatcher) NewSession() *Session {
	defs := d.withoutSkipped(d.monitored(), d.monitorSkip)
	return &Session{
		d:      d,
		blocks: planBlocks(defs),
		state:  NewFilterState(d.opts.Filter),
		count:  len(defs),
	}
}

// monitored returns the catalog plus one anonymous register for every scanned address that no
// catalog entry covers, in address order.
func (d *Dispatcher) monitored() []*RegisterDef {
	defs := d.catalog.All()
	covered := make(map[uint16]bool)
	for _, def := range defs {
		for a := uint32(def.Address); a < def.End(); a++ {
			covered[uint16(a)] = true
		}
	}
	for _, r := range d.opts.MonitorScan {
		for a := uint32(r.Start); a < uint32(r.End); a++ {
			if covered[uint16(a)] {
				continue
			}
			covered[uint16(a)] = true
			defs = append(defs, unmapped(uint16(a)))
		}
	}
	return byAddress(defs)
}

// unmapped describes a register the catalog does not know. It is reported by its address.
func unmapped(addr uint16) *RegisterDef {
	return &RegisterDef{Name: fmt.Sprintf("0x%04x", addr), Address: addr, Width: Width16, Kind: KindInt}
}

// Registers returns the number of monitored registers.
func (s *Session) Registers() int {
	return s.count
}

// Cycle reads all monitored registers once and runs them through the change filter. If ctx
// ends while reading, the partial cycle is discarded and ctx.Err() is returned.
func (s *Session) Cycle(ctx context.Context) ([]Reading, error) {
	type fetched struct {
		def   *RegisterDef
		words []uint16
	}
	var all []fetched
	for _, b := range s.blocks {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		words, err := s.d.read(b.addr, b.words, b.defs[0].Name)
		if err != nil {
			return nil, err
		}
		off := uint16(0)
		for _, def := range b.defs {
			all = append(all, fetched{def: def, words: words[off : off+def.Words()]})
			off += def.Words()
		}
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	readings := make([]Reading, 0, len(all))
	for _, f := range all {
		v, err := s.decode(f.def, f.words)
		if err != nil {
			return nil, err
		}
		readings = append(readings, Reading{Value: v, Words: f.words, Reported: s.state.Observe(v)})
	}
	return readings, nil
}

// decode bypasses scaling in raw mode so thresholds apply to raw values.
func (s *Session) decode(def *RegisterDef, words []uint16) (DecodedValue, error) {
	if !s.d.opts.Raw {
		return Decode(def, words)
	}
	raw, err := Join(def, words)
	if err != nil {
		return DecodedValue{}, err
	}
	return DecodedValue{Def: def, Value: float64(raw), Raw: raw}, nil
}

func (d *Dispatcher) monitor(ctx context.Context, a Monitor) error {
	s := d.NewSession()
	slog.Info("monitor session started", "registers", s.Registers(), "interval", a.Interval)

	for {
		readings, err := s.Cycle(ctx)
		if ctx.Err() != nil {
			slog.Info("monitor session interrupted")
			return nil
		}
		if err != nil {
			return err
		}

		prefix := d.now().Format(time.TimeOnly) + " "
		for _, r := range readings {
			if !r.Reported {
				continue
			}
			if !d.opts.Raw {
				d.printValue(prefix, r.Value)
				continue
			}
			if err := d.print(prefix, r.Value.Def, r.Words); err != nil {
				return err
			}
		}

		if a.Interval == 0 || !wait(ctx, a.Interval) {
			return nil
		}
	}
}
