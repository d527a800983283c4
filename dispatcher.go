package quintctl

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sort"
	"strconv"
	"strings"
	"time"
)

// Port is the modbus connection used by the dispatcher.
type Port interface {
	ReadRegisters(addr uint16, quantity uint16) ([]uint16, error)
	WriteRegisters(addr uint16, values []uint16) error
	Close() error
}

type Options struct {
	Raw         bool           // print and write raw register values
	Filter      ChangeFilter   // monitor thresholds
	Skip        []string       // addresses or register names left out of dump, dumpall and monitor
	MonitorSkip []string       // additional registers left out of monitor only
	MonitorScan []AddressRange // address ranges monitor reads in full, known registers or not
	DumpSet     []string       // registers read by dump without parameters, nil for the documented set
}

// Dispatcher runs actions against a port and writes the results to out.
type Dispatcher struct {
	catalog     *Catalog
	port        Port
	out         io.Writer
	opts        Options
	skip        map[uint16]bool
	monitorSkip map[uint16]bool
	dumpSet     []*RegisterDef
	now         func() time.Time
}

func NewDispatcher(catalog *Catalog, port Port, out io.Writer, opts Options) (*Dispatcher, error) {
	skip, err := resolveAddresses(catalog, opts.Skip)
	if err != nil {
		return nil, err
	}
	monitorSkip, err := resolveAddresses(catalog, opts.MonitorSkip)
	if err != nil {
		return nil, err
	}
	var dumpSet []*RegisterDef
	if opts.DumpSet != nil {
		if dumpSet, err = catalog.LookupAll(opts.DumpSet); err != nil {
			return nil, err
		}
	}
	return &Dispatcher{
		catalog:     catalog,
		port:        port,
		out:         out,
		opts:        opts,
		skip:        skip,
		monitorSkip: monitorSkip,
		dumpSet:     dumpSet,
		now:         time.Now,
	}, nil
}

// CheckOptions resolves the register names used in opts, so that a misspelled skip or dump entry
// is rejected before the modbus link is opened.
func CheckOptions(catalog *Catalog, opts Options) error {
	_, err := NewDispatcher(catalog, nil, io.Discard, opts)
	return err
}

// resolveAddresses accepts numeric addresses (also comma separated) and register names.
func resolveAddresses(catalog *Catalog, entries []string) (map[uint16]bool, error) {
	addrs := make(map[uint16]bool)
	for _, e := range entries {
		for _, s := range strings.Split(e, ",") {
			s = strings.TrimSpace(s)
			if s == "" {
				continue
			}
			if a, err := strconv.ParseUint(s, 0, 16); err == nil {
				addrs[uint16(a)] = true
				continue
			}
			def, err := catalog.Lookup(s)
			if err != nil {
				return nil, err
			}
			addrs[def.Address] = true
		}
	}
	return addrs, nil
}

// Run executes a single action. Interrupting a repeating action through ctx is not an error.
func (d *Dispatcher) Run(ctx context.Context, a Action) error {
	switch a := a.(type) {
	case Get:
		return d.get(ctx, a)
	case Set:
		return d.set(a)
	case Dump:
		return d.dump(a)
	case DumpAll:
		return d.readAndPrint(d.withoutSkipped(d.catalog.All()))
	case Monitor:
		return d.monitor(ctx, a)
	default:
		return fmt.Errorf("%w: unsupported action %T", ErrInvalidArguments, a)
	}
}

func (d *Dispatcher) get(ctx context.Context, a Get) error {
	defs, err := d.catalog.LookupAll(a.Names)
	if err != nil {
		return err
	}

	for {
		if err := d.readAndPrint(defs); err != nil {
			return err
		}
		if a.Interval == 0 || !wait(ctx, a.Interval) {
			return nil
		}
	}
}

func (d *Dispatcher) set(a Set) error {
	def, err := d.catalog.Lookup(a.Name)
	if err != nil {
		return err
	}
	if !def.Writable {
		return fmt.Errorf("%w: %s", ErrNotWritable, def.Name)
	}

	var words []uint16
	if d.opts.Raw {
		raw, perr := strconv.ParseInt(a.Value, 0, 64)
		if perr != nil {
			return fmt.Errorf("%w: raw value %q: %v", ErrInvalidArguments, a.Value, perr)
		}
		words, err = EncodeRaw(def, raw)
	} else {
		v, perr := parseValue(a.Value)
		if perr != nil {
			return fmt.Errorf("%w: value %q: %v", ErrInvalidArguments, a.Value, perr)
		}
		words, err = Encode(def, v)
	}
	if err != nil {
		return err
	}

	if err := d.port.WriteRegisters(def.Address, words); err != nil {
		return fmt.Errorf("%w: write %s at 0x%04x: %w", ErrTransport, def.Name, def.Address, err)
	}
	fmt.Fprintf(d.out, "%s: wrote %s %v\n", def.Name, a.Value, words)
	return nil
}

// parseValue accepts integers in any base strconv understands (0x1f, 0b101, 017) and floats.
func parseValue(s string) (float64, error) {
	if i, err := strconv.ParseInt(s, 0, 64); err == nil {
		return float64(i), nil
	}
	return strconv.ParseFloat(s, 64)
}

func (d *Dispatcher) dump(a Dump) error {
	var defs []*RegisterDef
	var err error
	switch {
	case len(a.Names) > 0:
		defs, err = d.catalog.LookupAll(a.Names)
	case d.dumpSet != nil:
		defs = d.dumpSet
	default:
		defs = d.catalog.Documented()
	}
	if err != nil {
		return err
	}
	return d.readAndPrint(d.withoutSkipped(byAddress(defs)))
}

// byAddress sorts defs by address and drops duplicates.
func byAddress(defs []*RegisterDef) []*RegisterDef {
	sorted := append([]*RegisterDef(nil), defs...)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Address < sorted[j].Address })
	out := sorted[:0]
	for i, def := range sorted {
		if i > 0 && sorted[i-1] == def {
			continue
		}
		out = append(out, def)
	}
	return out
}

func (d *Dispatcher) withoutSkipped(defs []*RegisterDef, extra ...map[uint16]bool) []*RegisterDef {
	var out []*RegisterDef
next:
	for _, def := range defs {
		if d.skip[def.Address] {
			continue
		}
		for _, m := range extra {
			if m[def.Address] {
				continue next
			}
		}
		out = append(out, def)
	}
	return out
}

func (d *Dispatcher) readAndPrint(defs []*RegisterDef) error {
	for _, def := range defs {
		words, err := d.read(def.Address, def.Words(), def.Name)
		if err != nil {
			return err
		}
		if err := d.print("", def, words); err != nil {
			return err
		}
	}
	return nil
}

func (d *Dispatcher) read(addr, quantity uint16, name string) ([]uint16, error) {
	words, err := d.port.ReadRegisters(addr, quantity)
	if err != nil {
		return nil, fmt.Errorf("%w: read %s at 0x%04x: %w", ErrTransport, name, addr, err)
	}
	if len(words) != int(quantity) {
		return nil, fmt.Errorf("%w: read %s at 0x%04x: expected %d registers, got %d", ErrTransport, name, addr, quantity, len(words))
	}
	slog.Debug("read registers", "name", name, "addr", addr, "values", words)
	return words, nil
}

func (d *Dispatcher) print(prefix string, def *RegisterDef, words []uint16) error {
	if d.opts.Raw {
		fmt.Fprintf(d.out, "%s%s: %s\n", prefix, def.Name, FormatRaw(def, words))
		return nil
	}
	v, err := Decode(def, words)
	if err != nil {
		return err
	}
	d.printValue(prefix, v)
	return nil
}

func (d *Dispatcher) printValue(prefix string, v DecodedValue) {
	fmt.Fprintf(d.out, "%s%s: %s\n", prefix, v.Def.Name, Format(v))
	for _, descr := range SetBits(v) {
		fmt.Fprintf(d.out, " - %s\n", descr)
	}
}

// wait blocks for interval and returns false if ctx ends first.
func wait(ctx context.Context, interval time.Duration) bool {
	if ctx.Err() != nil {
		return false
	}
	t := time.NewTimer(interval)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
