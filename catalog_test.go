package quintctl

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLookup(t *testing.T) {
	c := Quint24DC()

	tests := []struct {
		key  string
		want string
	}{
		{"OUT_LUI_OutputVoltage", "OUT_LUI_OutputVoltage"},
		{"OutputVoltage", "OUT_LUI_OutputVoltage"},
		{"outputvoltage", "OUT_LUI_OutputVoltage"},
		{"OutputVoltage2", "OUT_LUI_OutputVoltage2"},
		{"BatteryMode", "OUT_LX_BatteryMode"},
		{"ActualAlarm", "OUT_LUDW_ActualAlarm"},
		{"fw_version", "FW_VERSION"},
		{"0x7431", "OUT_LUI_OutputVoltage"},
		{"29745", "OUT_LUI_OutputVoltage"},
	}
	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			def, err := c.Lookup(tt.key)
			require.NoError(t, err)
			assert.Equal(t, tt.want, def.Name)
		})
	}
}

func TestLookupUnknown(t *testing.T) {
	c := Quint24DC()

	for _, key := range []string{"nope", "", "0x7432", "OUT_LUI_"} {
		_, err := c.Lookup(key)
		assert.ErrorIs(t, err, ErrUnknownRegister, key)
	}

	_, err := c.LookupAll([]string{"OutputVoltage", "nope"})
	assert.ErrorIs(t, err, ErrUnknownRegister)
}

func TestAllIsOrderedByAddress(t *testing.T) {
	all := Quint24DC().All()
	require.Len(t, all, len(quint24DCRegisters))
	for i := 1; i < len(all); i++ {
		assert.Less(t, all[i-1].Address, all[i].Address)
	}
}

func TestDocumented(t *testing.T) {
	docs := Quint24DC().Documented()
	assert.NotEmpty(t, docs)
	for _, d := range docs {
		assert.Contains(t, d.Name, "OUT_")
	}
}

func TestNewCatalogRejectsInvalidTables(t *testing.T) {
	tests := []struct {
		name string
		defs []RegisterDef
	}{
		{"missing name", []RegisterDef{{Address: 1}}},
		{"duplicate name", []RegisterDef{{Name: "A", Address: 1}, {Name: "A", Address: 2}}},
		{"alias clash", []RegisterDef{{Name: "A", Address: 1}, {Name: "B", Aliases: []string{"A"}, Address: 2}}},
		{"overlap", []RegisterDef{{Name: "A", Address: 1, Width: Width32}, {Name: "B", Address: 2}}},
		{"width", []RegisterDef{{Name: "A", Address: 1, Width: 8}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewCatalog(tt.defs...)
			assert.ErrorIs(t, err, ErrCatalog)
		})
	}
}

func TestNewCatalogDefaults(t *testing.T) {
	c := MustCatalog(RegisterDef{Name: "A", Address: 3})
	d, err := c.Lookup("A")
	require.NoError(t, err)
	assert.Equal(t, Width16, d.Width)
	assert.Equal(t, KindInt, d.Kind)

	got, ok := c.ByAddress(3)
	assert.True(t, ok)
	assert.Same(t, d, got)
}

func TestWithOverlay(t *testing.T) {
	base := Quint24DC()
	c, err := base.WithOverlay(
		RegisterDef{Name: "OUT_LUI_OutputVoltage", Address: 0x7431, Scale: 0.001, Unit: "V"},
		RegisterDef{Name: "VENDOR_ID", Aliases: []string{"vendor"}, Address: 0x0000},
	)
	require.NoError(t, err)

	d, err := c.Lookup("OutputVoltage")
	require.NoError(t, err)
	assert.Equal(t, "V", d.Unit)

	d, err = c.Lookup("vendor")
	require.NoError(t, err)
	assert.Equal(t, "VENDOR_ID", d.Name)
	assert.Equal(t, "VENDOR_ID", c.All()[0].Name)

	// the base catalog is unchanged
	d, err = base.Lookup("OutputVoltage")
	require.NoError(t, err)
	assert.Equal(t, "mV", d.Unit)
	_, err = base.Lookup("vendor")
	assert.ErrorIs(t, err, ErrUnknownRegister)
}
