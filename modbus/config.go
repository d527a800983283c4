package modbus

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/rwirdemann/quintctl"
)

// Open connects to config.Device with the configured driver. A device without scheme is a
// serial port, mem:// opens an empty in-memory register map.
func Open(config quintctl.Config) (quintctl.Port, error) {
	scheme, address := SplitDevice(config.Device)

	switch scheme {
	case "mem":
		mm := NewMemoryMap()
		mm.ReadHolding(config.RegisterType == "holding")
		slog.Info("using in-memory registers", "device", config.Device)
		return mm, nil
	case "rtu", "tcp":
	default:
		return nil, fmt.Errorf("unsupported device scheme %q", scheme)
	}

	switch config.Driver {
	case "goburrow":
		a, err := NewGoburrowAdapter(scheme, address, config)
		if err != nil {
			return nil, err
		}
		return a, nil
	default:
		a, err := NewAdapter(scheme+"://"+address, config)
		if err != nil {
			return nil, err
		}
		return a, nil
	}
}

// SplitDevice splits rtu:///dev/ttyUSB0 or tcp://host:502 into scheme and address.
func SplitDevice(device string) (scheme, address string) {
	splitURL := strings.SplitN(device, "://", 2)
	if len(splitURL) == 2 {
		return splitURL[0], splitURL[1]
	}
	return "rtu", device
}
