// Quintctl reads and writes the registers of a Phoenix Contact QUINT4 UPS over modbus RTU.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/rwirdemann/quintctl"
	"github.com/rwirdemann/quintctl/modbus"
)

var (
	longDescription = `
quintctl reads and writes the registers of a Phoenix Contact QUINT4-UPS/24DC through its
modbus interface. Registers are addressed by name, short alias (e.g. OutputVoltage) or address.
Without an action the documented I/O registers are dumped.
`

	examples = `
quintctl get OutputVoltage SocStateOfCharge
quintctl -D /dev/ttyUSB1 dumpall --skip-addr 0x7430,0x7477
quintctl monitor --repeat 5 --min-change-rel 0.05
quintctl set TIME_LIMIT_MODE_CUSTOM_BUFFER_TIME 120
`
)

type options struct {
	configPath    string
	device        string
	driver        string
	unitID        uint8
	speed         int
	registerType  string
	raw           bool
	minRel        float64
	minAbs        float64
	skip          []string
	repeat        int
	noDefaultSkip bool
	tui           bool
	logLevel      string
}

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cmd := newRootCommand(stdout, stderr)
	cmd.SetArgs(args)
	if err := cmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(stderr, "error: %v\n", err)
		return exitCode(err)
	}
	return 0
}

func exitCode(err error) int {
	if errors.Is(err, quintctl.ErrInvalidArguments) {
		return 2
	}
	return 1
}

func newRootCommand(stdout, stderr io.Writer) *cobra.Command {
	o := &options{}

	root := &cobra.Command{
		Use:           "quintctl",
		Short:         "read and write registers of a QUINT4 UPS",
		Long:          longDescription,
		Example:       examples,
		SilenceUsage:  true,
		SilenceErrors: true,
		Args: func(cmd *cobra.Command, args []string) error {
			if len(args) > 0 {
				return fmt.Errorf("%w: unknown action %q (should be one of %v)", quintctl.ErrInvalidArguments, args[0], quintctl.Actions)
			}
			return nil
		},
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return setupLogging(o.logLevel, stderr)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return o.execute(cmd, "dump", nil, stdout)
		},
	}
	root.SetOut(stdout)
	root.SetErr(stderr)
	root.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return fmt.Errorf("%w: %v", quintctl.ErrInvalidArguments, err)
	})

	flags := root.PersistentFlags()
	flags.StringVarP(&o.device, "device", "D", "/dev/ttyUSB0", "serial device, rtu://, tcp:// or mem:// url (mem:// starts with all registers zero)")
	flags.BoolVar(&o.raw, "raw", false, "print and write raw register values")
	flags.Float64Var(&o.minRel, "min-change-rel", 0, "minimum relative change reported by monitor (0.1 = 10%)")
	flags.Float64Var(&o.minAbs, "min-change-abs", 0, "minimum absolute change reported by monitor")
	flags.StringArrayVar(&o.skip, "skip-addr", nil, "address or register to leave out of dump, dumpall and monitor (repeatable, comma separated)")
	flags.IntVar(&o.repeat, "repeat", 0, "seconds between polls of get and monitor, 0 is a single pass")
	flags.StringVar(&o.configPath, "config", "", "YAML config file")
	flags.StringVar(&o.driver, "driver", "simonvetter", "modbus client library <simonvetter|goburrow>")
	flags.Uint8Var(&o.unitID, "unit-id", 192, "modbus unit (slave) id of the UPS")
	flags.IntVar(&o.speed, "speed", 115200, "serial bus speed in bps")
	flags.StringVar(&o.registerType, "register-type", "input", "modbus function used for reads <input|holding>")
	flags.StringVar(&o.logLevel, "log-level", "warn", "log level <debug|info|warn|error>")

	flags.BoolVar(&o.noDefaultSkip, "no-default-skip", false, "monitor also reads live measurements and counters")
	flags.BoolVar(&o.tui, "tui", false, "monitor shows a live table instead of a change log")

	for _, name := range quintctl.Actions {
		root.AddCommand(o.actionCommand(name, stdout))
	}

	return root
}

var actionUsage = map[string][2]string{
	"get":     {"get <register>...", "read registers"},
	"set":     {"set <register> <value>", "write a register"},
	"dump":    {"dump [register]...", "read the documented or the given registers"},
	"dumpall": {"dumpall", "read every known register"},
	"monitor": {"monitor", "poll the registers and print changes"},
}

func (o *options) actionCommand(name string, stdout io.Writer) *cobra.Command {
	return &cobra.Command{
		Use:   actionUsage[name][0],
		Short: actionUsage[name][1],
		Args:  cobra.ArbitraryArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return o.execute(cmd, name, args, stdout)
		},
	}
}

func (o *options) execute(cmd *cobra.Command, name string, params []string, stdout io.Writer) error {
	config, err := o.config(cmd.Flags())
	if err != nil {
		return err
	}
	catalog, err := config.Catalog()
	if err != nil {
		return err
	}
	action, err := quintctl.ParseAction(name, params, time.Duration(o.repeat)*time.Second)
	if err != nil {
		return err
	}
	if err := quintctl.CheckAction(catalog, action); err != nil {
		return err
	}
	opts := quintctl.Options{
		Raw:         o.raw,
		Filter:      quintctl.ChangeFilter{MinRel: o.minRel, MinAbs: o.minAbs},
		Skip:        config.Skip,
		MonitorSkip: config.MonitorSkip,
		MonitorScan: config.MonitorScan,
		DumpSet:     config.Dump,
	}
	if err := quintctl.CheckOptions(catalog, opts); err != nil {
		return err
	}

	port, err := modbus.Open(config)
	if err != nil {
		return fmt.Errorf("%w: %w", quintctl.ErrTransport, err)
	}
	defer func() {
		if err := port.Close(); err != nil {
			slog.Warn("closing modbus link failed", "err", err)
		}
	}()

	d, err := quintctl.NewDispatcher(catalog, port, stdout, opts)
	if err != nil {
		return err
	}

	if m, ok := action.(quintctl.Monitor); ok && o.tui {
		return runView(cmd.Context(), d, m.Interval, o.raw)
	}
	return d.Run(cmd.Context(), action)
}

// config loads the config file and applies the flags given on the command line.
func (o *options) config(flags *pflag.FlagSet) (quintctl.Config, error) {
	config := quintctl.DefaultConfig()
	if o.configPath != "" {
		var err error
		if config, err = quintctl.LoadConfig(o.configPath); err != nil {
			return quintctl.Config{}, err
		}
	}

	if flags.Changed("device") {
		config.Device = o.device
	}
	if flags.Changed("driver") {
		config.Driver = o.driver
	}
	if flags.Changed("unit-id") {
		config.UnitID = o.unitID
	}
	if flags.Changed("speed") {
		config.Serial.Speed = o.speed
	}
	if flags.Changed("register-type") {
		config.RegisterType = o.registerType
	}
	config.Skip = append(config.Skip, o.skip...)
	if o.noDefaultSkip {
		config.MonitorSkip = nil
	}
	if o.minRel < 0 || o.minAbs < 0 {
		return quintctl.Config{}, fmt.Errorf("%w: change thresholds must not be negative", quintctl.ErrInvalidArguments)
	}
	return config, config.Validate()
}

func setupLogging(level string, w io.Writer) error {
	var l slog.Level
	if err := l.UnmarshalText([]byte(level)); err != nil {
		return fmt.Errorf("%w: log level %q", quintctl.ErrInvalidArguments, level)
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: l})))
	return nil
}
