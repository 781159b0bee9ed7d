package main

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/alecthomas/kong"

	"m65/emu/log"
)

type mode byte

const (
	regionsMode  mode = iota // Print the physical memory map
	decodeMode               // Print CPU address decoding
	peekMode                 // Print memory bytes
	snapshotMode             // Save memory state
	versionMode              // Show m65 version
)

type (
	CLI struct {
		Regions  Regions  `cmd:"" help:"Print the physical memory map."`
		Decode   Decode   `cmd:"" help:"Print how each 4K block of the CPU address space is decoded."`
		Peek     Peek     `cmd:"" help:"Print memory contents."`
		Snapshot Snapshot `cmd:"" help:"Save the memory state as JSON."`
		Version  Version  `cmd:"" help:"Show m65 version."`

		Log logModMask `help:"${log_help}" placeholder:"mod0,mod1,..."`

		mode mode
	}

	Regions struct{}

	// Banking describes the banking state to set before decoding.
	Banking struct {
		DDR     byteValue `name:"ddr" help:"CPU port data direction register ($00)." default:"0xFF"`
		Port    byteValue `name:"port" help:"CPU port data register ($01)." default:"0xFF"`
		BankReg byteValue `name:"bankreg" help:"Banking register ($D030)." default:"0"`
		Hyper   bool      `name:"hyper" help:"Enter hypervisor mode."`
		Map     mapValue  `name:"map" help:"${map_help}" placeholder:"A,X,Y,Z"`
	}

	Decode struct {
		Banking `embed:""`
	}

	Machine struct {
		Config string `name:"config" help:"${config_help}" type:"existingfile"`
		ROM    string `name:"rom" help:"ROM image, overrides the configuration." type:"existingfile"`
	}

	Peek struct {
		Addrs []string `arg:"" name:"addr" help:"${addr_help}"`

		Count  int  `name:"count" short:"n" help:"Number of bytes to print per address." default:"1"`
		Linear bool `name:"linear" help:"Addresses are 28-bit physical addresses."`

		Machine `embed:""`
		Banking `embed:""`
	}

	Snapshot struct {
		Out string `name:"out" short:"o" help:"Output file." required:"" type:"path"`

		Machine `embed:""`
		Banking `embed:""`
	}

	Version struct{}
)

var vars = kong.Vars{
	"log_help":    "Enable logging for specified modules.",
	"map_help":    "Run MAP with these register values (hexadecimal).",
	"config_help": "Configuration file (default: the one in the m65 config directory).",
	"addr_help":   "Address to read, hexadecimal. Accepts $, 0x or no prefix.",
}

func parseArgs(args []string) CLI {
	var cfg CLI
	parser, err := kong.New(&cfg,
		kong.Name("m65"),
		kong.Description("MEGA65 memory decoder."),
		kong.UsageOnError(),
		kong.Help(printHelp),
		vars)
	if err != nil {
		panic(err)
	}

	ctx, err := parser.Parse(args)
	checkf(err, "failed to parse command line")

	switch strings.Fields(ctx.Command())[0] {
	case "regions":
		cfg.mode = regionsMode
	case "decode":
		cfg.mode = decodeMode
	case "peek":
		cfg.mode = peekMode
	case "snapshot":
		cfg.mode = snapshotMode
	case "version":
		cfg.mode = versionMode
	default:
		fatalf("unexpected command %q", ctx.Command())
	}
	return cfg
}

func printHelp(options kong.HelpOptions, ctx *kong.Context) error {
	if err := kong.DefaultHelpPrinter(options, ctx); err != nil {
		return err
	}
	loggingHelp := `
Log modules:
  The --log flag accepts a comma-separated list of modules.

  Valid log modules are:
%s

  As a special case, the following values are accepted:
    - no                     Disable all logging.
    - all                    Enable all logs.
`
	var strs []string
	for _, m := range log.ModuleNames() {
		strs = append(strs, "    - "+m)
	}

	fmt.Fprintf(os.Stderr, loggingHelp, strings.Join(strs, "\n"))
	return nil
}

type logModMask log.ModuleMask

// Decode decodes a comma-separated list of module names into a module mask.
//
// Implements kong.MapperValue interface.
func (lm logModMask) Decode(ctx *kong.DecodeContext) error {
	nolog := false
	allLogs := false

	tok := ctx.Scan.Pop()
	for _, v := range strings.Split(tok.Value.(string), ",") {
		switch v {
		case "all":
			allLogs = true
		case "no":
			nolog = true
		default:
			mod, ok := log.ModuleByName(v)
			if !ok {
				return fmt.Errorf("unknown log module %s", v)
			}
			lm |= logModMask(mod.Mask())
		}
	}

	if nolog {
		if allLogs {
			return fmt.Errorf("cannot use 'all' and 'no' together")
		}
		if lm != 0 {
			return fmt.Errorf("cannot combine 'no' with other log modules")
		}
		log.Disable()
		return nil
	}

	if allLogs {
		lm = logModMask(log.ModuleMaskAll)
	}

	log.EnableDebugModules(log.ModuleMask(lm))
	return nil
}

// parseHex parses a hexadecimal number, with an optional $ or 0x prefix.
func parseHex(s string, bits int) (uint64, error) {
	s = strings.TrimPrefix(s, "$")
	if len(s) > 2 && (s[:2] == "0x" || s[:2] == "0X") {
		s = s[2:]
	}
	return strconv.ParseUint(s, 16, bits)
}

type byteValue uint8

// Decode implements kong.MapperValue interface.
func (b *byteValue) Decode(ctx *kong.DecodeContext) error {
	tok := ctx.Scan.Pop()
	s, ok := tok.Value.(string)
	if !ok {
		return fmt.Errorf("expected a byte value, got %v", tok.Value)
	}
	v, err := parseHex(s, 8)
	if err != nil {
		return fmt.Errorf("invalid byte value %q", s)
	}
	*b = byteValue(v)
	return nil
}

// mapValue holds the A, X, Y and Z registers given to MAP.
type mapValue struct {
	regs [4]uint8
	set  bool
}

// Decode implements kong.MapperValue interface.
func (mv *mapValue) Decode(ctx *kong.DecodeContext) error {
	tok := ctx.Scan.Pop()
	s, ok := tok.Value.(string)
	if !ok {
		return fmt.Errorf("expected A,X,Y,Z, got %v", tok.Value)
	}
	fields := strings.Split(s, ",")
	if len(fields) != len(mv.regs) {
		return fmt.Errorf("expected A,X,Y,Z, got %q", s)
	}
	for i, f := range fields {
		v, err := parseHex(strings.TrimSpace(f), 8)
		if err != nil {
			return fmt.Errorf("invalid MAP register %q", f)
		}
		mv.regs[i] = uint8(v)
	}
	mv.set = true
	return nil
}

func checkf(err error, format string, args ...any) {
	if err == nil {
		return
	}
	fatalf(format+".\n"+err.Error(), args...)
}

func fatalf(format string, args ...any) {
	fmt.Fprintf(os.Stderr, "fatal error:")
	fmt.Fprintf(os.Stderr, "\n\t%s\n", fmt.Sprintf(format, args...))
	os.Exit(1)
}
