package quintctl

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// Catalog is the immutable set of registers known for a device. It is built once at start up and
// only read afterwards.
type Catalog struct {
	defs   []*RegisterDef
	byName map[string]*RegisterDef
	byFold map[string]*RegisterDef
	byAddr map[uint16]*RegisterDef
}

// prefixes of the vendor's I/O register names, stripped to derive a short alias
var aliasPrefixes = []string{"OUT_LUDW_", "OUT_LUDI_", "OUT_LUI_", "OUT_LX_"}

// NewCatalog validates defs and returns them as a catalog ordered by address.
func NewCatalog(defs ...RegisterDef) (*Catalog, error) {
	c := &Catalog{
		byName: make(map[string]*RegisterDef),
		byFold: make(map[string]*RegisterDef),
		byAddr: make(map[uint16]*RegisterDef),
	}

	for i := range defs {
		d := defs[i]
		if d.Name == "" {
			return nil, fmt.Errorf("%w: register at 0x%04x has no name", ErrCatalog, d.Address)
		}
		if d.Width == 0 {
			d.Width = Width16
		}
		if d.Width != Width16 && d.Width != Width32 {
			return nil, fmt.Errorf("%w: %s: unsupported width %d", ErrCatalog, d.Name, d.Width)
		}
		if d.Kind == "" {
			d.Kind = KindInt
		}
		d.Aliases = append([]string(nil), d.Aliases...)
		for _, p := range aliasPrefixes {
			if short, ok := strings.CutPrefix(d.Name, p); ok && !contains(d.Aliases, short) {
				d.Aliases = append(d.Aliases, short)
				break
			}
		}

		def := &d
		for _, key := range append([]string{d.Name}, d.Aliases...) {
			if _, ok := c.byName[key]; ok {
				return nil, fmt.Errorf("%w: duplicate register name %q", ErrCatalog, key)
			}
			c.byName[key] = def
			fold := strings.ToLower(key)
			if _, ok := c.byFold[fold]; !ok {
				c.byFold[fold] = def
			}
		}
		c.defs = append(c.defs, def)
	}

	sort.SliceStable(c.defs, func(i, j int) bool {
		return c.defs[i].Address < c.defs[j].Address
	})
	for i, d := range c.defs {
		if i > 0 && uint32(d.Address) < c.defs[i-1].End() {
			return nil, fmt.Errorf("%w: %s at 0x%04x overlaps %s", ErrCatalog, d.Name, d.Address, c.defs[i-1].Name)
		}
		c.byAddr[d.Address] = d
	}

	return c, nil
}

// MustCatalog is like NewCatalog but panics on an invalid definition table.
func MustCatalog(defs ...RegisterDef) *Catalog {
	c, err := NewCatalog(defs...)
	if err != nil {
		panic(err)
	}
	return c
}

// Lookup resolves a register by name, alias, case insensitive name or numeric address.
func (c *Catalog) Lookup(key string) (*RegisterDef, error) {
	if d, ok := c.byName[key]; ok {
		return d, nil
	}
	if d, ok := c.byFold[strings.ToLower(key)]; ok {
		return d, nil
	}
	if addr, err := strconv.ParseUint(key, 0, 16); err == nil {
		if d, ok := c.byAddr[uint16(addr)]; ok {
			return d, nil
		}
	}
	return nil, fmt.Errorf("%w: %s", ErrUnknownRegister, key)
}

// LookupAll resolves every key or returns the first failure.
func (c *Catalog) LookupAll(keys []string) ([]*RegisterDef, error) {
	defs := make([]*RegisterDef, 0, len(keys))
	for _, k := range keys {
		d, err := c.Lookup(k)
		if err != nil {
			return nil, err
		}
		defs = append(defs, d)
	}
	return defs, nil
}

// ByAddress returns the register starting at addr.
func (c *Catalog) ByAddress(addr uint16) (*RegisterDef, bool) {
	d, ok := c.byAddr[addr]
	return d, ok
}

// All returns every register in ascending address order.
func (c *Catalog) All() []*RegisterDef {
	return append([]*RegisterDef(nil), c.defs...)
}

// Documented returns the registers of the vendor's official modbus documentation. Their names
// carry the OUT_ prefix, everything else was taken from the driver XML.
func (c *Catalog) Documented() []*RegisterDef {
	var defs []*RegisterDef
	for _, d := range c.defs {
		if strings.HasPrefix(d.Name, "OUT_") {
			defs = append(defs, d)
		}
	}
	return defs
}

// WithOverlay returns a new catalog where defs replace entries of the same name and are added
// otherwise.
func (c *Catalog) WithOverlay(defs ...RegisterDef) (*Catalog, error) {
	replaced := make(map[string]bool)
	for _, d := range defs {
		replaced[d.Name] = true
	}

	var merged []RegisterDef
	for _, d := range c.defs {
		if replaced[d.Name] {
			continue
		}
		base := *d
		base.Aliases = nil
		for _, a := range d.Aliases {
			if !isDerivedAlias(d.Name, a) {
				base.Aliases = append(base.Aliases, a)
			}
		}
		merged = append(merged, base)
	}
	merged = append(merged, defs...)
	return NewCatalog(merged...)
}

func isDerivedAlias(name, alias string) bool {
	for _, p := range aliasPrefixes {
		if short, ok := strings.CutPrefix(name, p); ok {
			return short == alias
		}
	}
	return false
}

func contains(ss []string, s string) bool {
	for _, v := range ss {
		if v == s {
			return true
		}
	}
	return false
}
