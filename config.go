package quintctl

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"
)

// Config holds connection settings and catalog adjustments. Command line flags override it.
type Config struct {
	Device       string         `yaml:"device"`
	Driver       string         `yaml:"driver"` // simonvetter | goburrow
	Serial       Serial         `yaml:"serial"`
	UnitID       uint8          `yaml:"unit_id"`
	RegisterType string         `yaml:"register_type"` // input | holding
	Skip         []string       `yaml:"skip"`
	MonitorSkip  []string       `yaml:"monitor_skip"`
	MonitorScan  []AddressRange `yaml:"monitor_scan"`
	Dump         []string       `yaml:"dump"`
	Registers    []RegisterSpec `yaml:"registers"`
}

type Serial struct {
	Timeout  int    `yaml:"timeout"` // milliseconds
	Speed    int    `yaml:"speed"`
	DataBits int    `yaml:"data_bits"`
	Parity   string `yaml:"parity"` // none | even | odd
	StopBits int    `yaml:"stop_bits"`
}

// RegisterSpec is a register definition as written in the config file.
type RegisterSpec struct {
	Name        string            `yaml:"name"`
	Aliases     []string          `yaml:"aliases"`
	Address     uint16            `yaml:"address"`
	Width       uint8             `yaml:"width"`
	Signed      bool              `yaml:"signed"`
	Scale       float64           `yaml:"scale"`
	Unit        string            `yaml:"unit"`
	Writable    bool              `yaml:"writable"`
	Kind        string            `yaml:"kind"`
	Labels      map[uint32]string `yaml:"labels"`
	Bits        map[uint]string   `yaml:"bits"`
	Min         *float64          `yaml:"min"`
	Max         *float64          `yaml:"max"`
	Description string            `yaml:"description"`
}

// Def converts r into a catalog entry.
func (r RegisterSpec) Def() RegisterDef {
	return RegisterDef{
		Name:        r.Name,
		Aliases:     r.Aliases,
		Address:     r.Address,
		Width:       Width(r.Width),
		Signed:      r.Signed,
		Scale:       r.Scale,
		Unit:        r.Unit,
		Writable:    r.Writable,
		Kind:        Kind(r.Kind),
		Labels:      r.Labels,
		Bits:        r.Bits,
		Min:         r.Min,
		Max:         r.Max,
		Description: r.Description,
	}
}

// DefaultConfig returns the settings of a QUINT4-UPS/24DC on its USB/RS-485 interface.
func DefaultConfig() Config {
	return Config{
		Device: "/dev/ttyUSB0",
		Driver: "simonvetter",
		Serial: Serial{
			Timeout:  1000,
			Speed:    115200,
			DataBits: 8,
			Parity:   "even",
			StopBits: 1,
		},
		UnitID:       192,
		RegisterType: "input",
		MonitorSkip:  append([]string(nil), MonitorSkip...),
		MonitorScan:  append([]AddressRange(nil), MonitorScan...),
	}
}

// LoadConfig reads a YAML (or JSON) config file on top of the defaults.
func LoadConfig(configPath string) (Config, error) {
	config := DefaultConfig()
	if !exists(configPath) {
		return Config{}, fmt.Errorf("configuration file not found: %s", configPath)
	}

	bb, err := os.ReadFile(configPath)
	if err != nil {
		return Config{}, fmt.Errorf("error reading file: %w", err)
	}
	dec := yaml.NewDecoder(bytes.NewReader(bb))
	dec.KnownFields(true)
	if err := dec.Decode(&config); err != nil && !errors.Is(err, io.EOF) {
		return Config{}, fmt.Errorf("error decoding file %s: %w", configPath, err)
	}
	if err := config.Validate(); err != nil {
		return Config{}, err
	}
	return config, nil
}

// Validate checks the enumerated settings.
func (c Config) Validate() error {
	switch c.Driver {
	case "simonvetter", "goburrow":
	default:
		return fmt.Errorf("%w: unknown driver %q (should be simonvetter or goburrow)", ErrInvalidArguments, c.Driver)
	}
	switch c.Serial.Parity {
	case "none", "even", "odd":
	default:
		return fmt.Errorf("%w: unknown parity %q (should be one of none, even or odd)", ErrInvalidArguments, c.Serial.Parity)
	}
	switch c.RegisterType {
	case "input", "holding":
	default:
		return fmt.Errorf("%w: unknown register type %q (should be input or holding)", ErrInvalidArguments, c.RegisterType)
	}
	for _, r := range c.MonitorScan {
		if r.End <= r.Start {
			return fmt.Errorf("%w: empty monitor scan range 0x%04x-0x%04x", ErrInvalidArguments, r.Start, r.End)
		}
	}
	if c.Device == "" {
		return fmt.Errorf("%w: no device", ErrInvalidArguments)
	}
	return nil
}

// Catalog returns the built-in catalog with the registers of the config file applied.
func (c Config) Catalog() (*Catalog, error) {
	catalog := Quint24DC()
	if len(c.Registers) == 0 {
		return catalog, nil
	}
	defs := make([]RegisterDef, 0, len(c.Registers))
	for _, r := range c.Registers {
		defs = append(defs, r.Def())
	}
	return catalog.WithOverlay(defs...)
}

func exists(filePath string) bool {
	_, err := os.Stat(filePath)
	return err == nil || !os.IsNotExist(err)
}
