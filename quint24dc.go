package quintctl

// Register map of the QUINT4-UPS/24DC. The OUT_* registers come from the official modbus
// documentation, the remaining ones from the XML shipped with the vendor's driver package:
//
//	0x0000 vendor
//	0x1000 configuration
//	0x3000 parametrisation
//	0x6C00 status data
//	0x7400 I/O data
//	0x7800 control registers
var quint24DCRegisters = []RegisterDef{
	{Name: "OUT_LX_Remote", Address: 0x7400, Kind: KindBool, Labels: map[uint32]string{0: "on", 1: "off"}},
	{Name: "OUT_LX_BatteryMode", Address: 0x7401, Kind: KindBool},
	{Name: "OUT_LX_ShutdownEvent", Address: 0x7402, Kind: KindBool},
	{Name: "OUT_LX_BatteryCharging", Address: 0x7403, Kind: KindBool},
	{
		Name:    "OUT_LUI_PowerSourceBoost",
		Address: 0x7406,
		Kind:    KindState,
		Labels:  map[uint32]string{0: "I > Inominal", 1: "I < Inominal", 2: "not connected"},
	},
	{Name: "OUT_LUI_OutputVoltage", Address: 0x7431, Unit: "mV", Max: bound(30000)},
	{Name: "OUT_LUI_SocStateOfCharge", Address: 0x7435, Unit: "%", Labels: notInitialized},
	{Name: "OUT_LUI_SocStateResidualBackupTime", Address: 0x7436, Unit: "minutes", Labels: notInitialized},
	{Name: "OUT_LUI_BatteryVoltage", Address: 0x7460, Unit: "mV", Max: bound(30000)},
	{Name: "OUT_LUI_BatteryTemperature", Address: 0x7461, Unit: "K", Min: bound(200), Max: bound(400)},
	{Name: "OUT_LUI_OutputVoltage2", Address: 0x7462, Unit: "mV", Max: bound(3000)},
	{Name: "OUT_LUI_SocStateResidualBackupTimeS", Address: 0x7463, Unit: "s", Labels: notInitialized},
	{Name: "OUT_LUDI_BatteryNormCapacityWs", Address: 0x7464, Scale: 100, Unit: "Ws", Labels: notDetected},
	{Name: "OUT_LUI_BatteryDischaCurrent", Address: 0x7466, Unit: "mA"},
	{Name: "OUT_LUI_BatteryDetectedUnits", Address: 0x7467, Max: bound(15)},
	{Name: "OUT_LUDI_BatteryNormCapacitymAh", Address: 0x7468, Scale: 100, Unit: "mAh", Labels: notDetected},
	{Name: "OUT_LUI_BatteryInstalledType", Address: 0x7469, Kind: KindState, Classify: batteryType},
	{
		Name:    "OUT_LUDW_ActualAlarm",
		Address: 0x7490,
		Width:   Width32,
		Kind:    KindBits,
		Bits: map[uint]string{
			0:  "end of life (SOH)",
			4:  "end of life (Resistance)",
			5:  "end of life (Resistance)",
			6:  "end of life (Time)",
			7:  "end of life (Voltage)",
			9:  "no battery",
			10: "inconsistent technology",
			11: "overload cutoff",
			12: "low battery (Voltage)",
			13: "low battery (Charge)",
			14: "low battery (Time)",
			16: "service",
		},
	},
	{
		Name:    "OUT_LUDW_ActualWarning",
		Address: 0x7494,
		Kind:    KindBits,
		Bits: map[uint]string{
			0:  "end of life (SOH)",
			7:  "inconsistent capacity",
			8:  "less batteries",
			12: "low battery (Voltage)",
			13: "low battery (Charge)",
			14: "low battery (Time)",
			15: "service without battery registration",
		},
	},

	// 0x1000
	{Name: "FW_VERSION", Address: 0x1602},
	{Name: "BAT_INSTALLED_CAPACITY_NOMINAL", Address: 0x1611, Scale: 100, Unit: "mAh"},

	// 0x3000
	{
		Name:        "TIME_LIMIT_MODE_CUSTOM_BUFFER_TIME",
		Address:     0x3203,
		Unit:        "s",
		Writable:    true,
		Description: "seconds after power loss until output voltage is turned off (in custom mode only)",
	},

	// 0x6C00
	{Name: "COUNTER_BATTERY_MODE_EVENT", Address: 0x6C00, Width: Width32},
	{Name: "COUNTER_OPERATION_TIME", Address: 0x6C0C, Width: Width32},
	{Name: "COUNTER_USER_OPERATION_TIME", Address: 0x6C10, Width: Width32},

	// 0x7400
	{
		Name:    "STATUS_SERVICE",
		Address: 0x7405,
		Kind:    KindState,
		Labels: map[uint32]string{
			0: "not in service mode",
			1: "service mode by key",
			2: "service mode by stick",
			3: "service mode by PC",
		},
	},
	{Name: "INPUT_ACTUAL_VOLTAGE", Address: 0x7430, Unit: "mV"},
	{Name: "ACTUAL_CURRENT_CHARGING", Address: 0x7465, Unit: "mA"},
	{Name: "BATTERY_ACTUAL_ALL_VOLTAGE", Address: 0x7472, Unit: "mV"},
	{Name: "BATTERY_ACTUAL_TEMPERATURE", Address: 0x7473, Unit: "K"},
	{Name: "BATTERY_ACTUAL_INTERNAL_VOLTAGE", Address: 0x7477, Unit: "mV"},
	{Name: "ERROR_CODE_COUNTER", Address: 0x749A},

	// 0x7800
	{Name: "SET_SERVICE_MODE_BY_PC", Address: 0x7873, Writable: true, Max: bound(1)},
}

var (
	notInitialized = map[uint32]string{0xFFFF: "not initialized"}
	notDetected    = map[uint32]string{0xFFFF: "not detected"}
)

// batteryType derives the installed storage technology from the nominal voltage.
func batteryType(raw uint32) string {
	switch {
	case raw > 18000:
		return "Capacitor"
	case raw > 11000:
		return "Lithium battery"
	case raw > 1000:
		return "Lead battery"
	default:
		return "unknown"
	}
}

// Quint24DC returns the built-in catalog of the QUINT4-UPS/24DC.
func Quint24DC() *Catalog {
	return MustCatalog(quint24DCRegisters...)
}

// MonitorScan lists the address ranges monitor reads in full, including the registers the
// catalog has no name for.
var MonitorScan = []AddressRange{
	{Start: 0x6C00, End: 0x6C50},
	{Start: 0x7400, End: 0x74A0},
	{Start: 0x7800, End: 0x78A0},
}

// MonitorSkip lists registers left out of monitor by default. They are live measurements
// and counters that change on nearly every poll.
var MonitorSkip = []string{
	"COUNTER_OPERATION_TIME",
	"COUNTER_USER_OPERATION_TIME",
	"INPUT_ACTUAL_VOLTAGE",
	"BATTERY_ACTUAL_INTERNAL_VOLTAGE",
	"OUT_LUI_OutputVoltage",

	// unnamed, apparently live currents, voltages and temperatures
	"0x740b",
	"0x740c",
	"0x740d",
	"0x7432",
	"0x743c",
	"0x743d",
	"0x746c",
	"0x7478",
}
