package quintctl

import (
	"fmt"
	"time"
)

// Action is one of Get, Set, Dump, DumpAll or Monitor.
type Action interface {
	Action() string
}

// Get reads the named registers. A non-zero Interval repeats the read until interrupted.
type Get struct {
	Names    []string
	Interval time.Duration
}

// Set writes Value to the named register. Value is kept as typed by the user and parsed by
// the dispatcher, depending on whether raw mode is active.
type Set struct {
	Name  string
	Value string
}

// Dump reads a subset of the catalog. An empty Names selects the configured default.
type Dump struct {
	Names []string
}

// DumpAll reads the whole catalog.
type DumpAll struct{}

// Monitor polls every Interval and prints significant changes. A zero Interval is a single pass.
type Monitor struct {
	Interval time.Duration
}

func (Get) Action() string     { return "get" }
func (Set) Action() string     { return "set" }
func (Dump) Action() string    { return "dump" }
func (DumpAll) Action() string { return "dumpall" }
func (Monitor) Action() string { return "monitor" }

// Actions lists the accepted action names.
var Actions = []string{"monitor", "set", "dump", "dumpall", "get"}

// ParseAction validates the action parameters given on the command line. An empty name selects
// dump. repeat is the poll interval used by get and monitor.
func ParseAction(name string, params []string, repeat time.Duration) (Action, error) {
	if repeat < 0 {
		return nil, fmt.Errorf("%w: negative repeat interval %v", ErrInvalidArguments, repeat)
	}

	switch name {
	case "", "dump":
		return Dump{Names: params}, nil
	case "dumpall":
		if len(params) != 0 {
			return nil, fmt.Errorf("%w: dumpall takes no parameters, got %d", ErrInvalidArguments, len(params))
		}
		return DumpAll{}, nil
	case "get":
		if len(params) == 0 {
			return nil, fmt.Errorf("%w: get needs at least one register", ErrInvalidArguments)
		}
		return Get{Names: params, Interval: repeat}, nil
	case "set":
		if len(params) != 2 {
			return nil, fmt.Errorf("%w: set needs exactly 2 parameters (register and value), got %d", ErrInvalidArguments, len(params))
		}
		return Set{Name: params[0], Value: params[1]}, nil
	case "monitor":
		if len(params) != 0 {
			return nil, fmt.Errorf("%w: monitor takes no parameters, got %d", ErrInvalidArguments, len(params))
		}
		return Monitor{Interval: repeat}, nil
	default:
		return nil, fmt.Errorf("%w: unknown action %q", ErrInvalidArguments, name)
	}
}

// CheckAction resolves the registers an action refers to, so that invalid input is rejected
// before the modbus link is opened.
func CheckAction(catalog *Catalog, a Action) error {
	switch a := a.(type) {
	case Get:
		_, err := catalog.LookupAll(a.Names)
		return err
	case Dump:
		_, err := catalog.LookupAll(a.Names)
		return err
	case Set:
		def, err := catalog.Lookup(a.Name)
		if err != nil {
			return err
		}
		if !def.Writable {
			return fmt.Errorf("%w: %s", ErrNotWritable, def.Name)
		}
	}
	return nil
}
