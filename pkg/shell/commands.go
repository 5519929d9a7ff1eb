package shell

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/LSC-Unicamp/processor-ci-communication/pkg/memfile"
)

// Command is one shell command: usage line, argument bounds, handler
type Command struct {
	Usage       string
	Description string
	MinArgs     int
	MaxArgs     int
	Handler     func(s *Shell, args []string) error
}

// parseHex accepts a bare or 0x-prefixed hexadecimal address or value
func parseHex(arg string) (uint32, error) {
	v, err := strconv.ParseUint(strings.TrimPrefix(arg, "0x"), 16, 32)
	if err != nil {
		return 0, fmt.Errorf("invalid hex value %q", arg)
	}
	return uint32(v), nil
}

// parseUint accepts a decimal count, size, or duration
func parseUint(arg string) (uint32, error) {
	v, err := strconv.ParseUint(arg, 10, 32)
	if err != nil {
		return 0, fmt.Errorf("invalid number %q", arg)
	}
	return uint32(v), nil
}

// parseBankFlag accepts the 0/1 second-memory selector
func parseBankFlag(arg string) (bool, error) {
	v, err := strconv.ParseUint(arg, 10, 32)
	if err != nil {
		return false, fmt.Errorf("invalid memory selector %q (want 0 or 1)", arg)
	}
	return v != 0, nil
}

// commandOrder fixes the help listing
var commandOrder = []string{
	"exit",
	"write_clk",
	"stop_clk",
	"resume_clk",
	"reset_core",
	"write_memory",
	"read_memory",
	"load_msb_accumulator",
	"load_lsb_accumulator",
	"add_to_accumulator",
	"write_accumulator_to_memory",
	"write_to_accumulator",
	"read_accumulator",
	"set_timeout",
	"set_memory_page_size",
	"run_memory_tests",
	"get_module_id",
	"set_breakpoint",
	"set_accumulator_as_breakpoint",
	"write_from_accumulator",
	"read_to_accumulator",
	"swap_memory_to_core",
	"until",
	"sync",
	"write_file_in_memory",
	"help",
}

// commands is assigned in init so the help handler can refer back to it
var commands map[string]Command

func init() {
	commands = map[string]Command{
		"exit": {
			Usage: "exit", Description: "Exits the shell.",
			Handler: func(s *Shell, _ []string) error { return errExit },
		},
		"write_clk": {
			Usage: "write_clk <n>", Description: "Sends n clock pulses.",
			MinArgs: 1, MaxArgs: 1,
			Handler: func(s *Shell, args []string) error {
				n, err := parseUint(args[0])
				if err != nil {
					return err
				}
				return s.ctrl.ClockPulses(n)
			},
		},
		"stop_clk": {
			Usage: "stop_clk", Description: "Stops the clock.",
			Handler: func(s *Shell, _ []string) error { return s.ctrl.StopClock() },
		},
		"resume_clk": {
			Usage: "resume_clk", Description: "Resumes the clock.",
			Handler: func(s *Shell, _ []string) error { return s.ctrl.ResumeClock() },
		},
		"reset_core": {
			Usage: "reset_core", Description: "Resets the core.",
			Handler: func(s *Shell, _ []string) error { return s.ctrl.ResetCore() },
		},
		"write_memory": {
			Usage:       "write_memory <address> <value> [second]",
			Description: "Writes to memory at the given address.",
			MinArgs:     2, MaxArgs: 3,
			Handler: func(s *Shell, args []string) error {
				addr, err := parseHex(args[0])
				if err != nil {
					return err
				}
				value, err := parseHex(args[1])
				if err != nil {
					return err
				}
				second := false
				if len(args) > 2 {
					if second, err = parseBankFlag(args[2]); err != nil {
						return err
					}
				}
				return s.ctrl.WriteMemory(addr, value, second)
			},
		},
		"read_memory": {
			Usage:       "read_memory <address> [second]",
			Description: "Reads from memory at the given address.",
			MinArgs:     1, MaxArgs: 2,
			Handler: func(s *Shell, args []string) error {
				addr, err := parseHex(args[0])
				if err != nil {
					return err
				}
				second := false
				if len(args) > 1 {
					if second, err = parseBankFlag(args[1]); err != nil {
						return err
					}
				}
				v, err := s.ctrl.ReadMemory(addr, second)
				if err != nil {
					return err
				}
				s.printWord(v)
				return nil
			},
		},
		"load_msb_accumulator": {
			Usage:       "load_msb_accumulator <value>",
			Description: "Loads MSB into the accumulator.",
			MinArgs:     1, MaxArgs: 1,
			Handler: func(s *Shell, args []string) error {
				v, err := parseHex(args[0])
				if err != nil {
					return err
				}
				return s.ctrl.LoadAccumulatorMSB(v)
			},
		},
		"load_lsb_accumulator": {
			Usage:       "load_lsb_accumulator <value>",
			Description: "Loads LSB into the accumulator.",
			MinArgs:     1, MaxArgs: 1,
			Handler: func(s *Shell, args []string) error {
				v, err := parseHex(args[0])
				if err != nil {
					return err
				}
				return s.ctrl.LoadAccumulatorLSB(v)
			},
		},
		"add_to_accumulator": {
			Usage:       "add_to_accumulator <value>",
			Description: "Adds a value to the accumulator.",
			MinArgs:     1, MaxArgs: 1,
			Handler: func(s *Shell, args []string) error {
				v, err := parseHex(args[0])
				if err != nil {
					return err
				}
				return s.ctrl.AddToAccumulator(v)
			},
		},
		"write_accumulator_to_memory": {
			Usage:       "write_accumulator_to_memory <address>",
			Description: "Writes the accumulator to memory.",
			MinArgs:     1, MaxArgs: 1,
			Handler: func(s *Shell, args []string) error {
				addr, err := parseHex(args[0])
				if err != nil {
					return err
				}
				return s.ctrl.StoreAccumulator(addr)
			},
		},
		"write_to_accumulator": {
			Usage:       "write_to_accumulator <value>",
			Description: "Writes directly to the accumulator.",
			MinArgs:     1, MaxArgs: 1,
			Handler: func(s *Shell, args []string) error {
				v, err := parseHex(args[0])
				if err != nil {
					return err
				}
				return s.ctrl.SetAccumulator(v)
			},
		},
		"read_accumulator": {
			Usage:       "read_accumulator",
			Description: "Reads the value of the accumulator.",
			Handler: func(s *Shell, _ []string) error {
				v, err := s.ctrl.Accumulator()
				if err != nil {
					return err
				}
				s.printWord(v)
				return nil
			},
		},
		"set_timeout": {
			Usage:       "set_timeout <timeout>",
			Description: "Sets the timeout duration.",
			MinArgs:     1, MaxArgs: 1,
			Handler: func(s *Shell, args []string) error {
				v, err := parseUint(args[0])
				if err != nil {
					return err
				}
				return s.ctrl.SetTimeout(v)
			},
		},
		"set_memory_page_size": {
			Usage:       "set_memory_page_size <size>",
			Description: "Sets the memory page size.",
			MinArgs:     1, MaxArgs: 1,
			Handler: func(s *Shell, args []string) error {
				v, err := parseUint(args[0])
				if err != nil {
					return err
				}
				return s.ctrl.SetMemoryPageSize(v)
			},
		},
		"run_memory_tests": {
			Usage:       "run_memory_tests <pages>",
			Description: "Runs memory tests.",
			MinArgs:     1, MaxArgs: 1,
			Handler: func(s *Shell, args []string) error {
				pages, err := parseUint(args[0])
				if err != nil {
					return err
				}
				v, err := s.ctrl.RunMemoryTest(pages)
				if err != nil {
					return err
				}
				s.printWord(v)
				return nil
			},
		},
		"get_module_id": {
			Usage:       "get_module_id",
			Description: "Gets the module ID.",
			Handler: func(s *Shell, _ []string) error {
				id, err := s.ctrl.ModuleID()
				if err != nil {
					return err
				}
				s.printWord(id)
				return nil
			},
		},
		"set_breakpoint": {
			Usage:       "set_breakpoint <address>",
			Description: "Sets a breakpoint at the address.",
			MinArgs:     1, MaxArgs: 1,
			Handler: func(s *Shell, args []string) error {
				addr, err := parseHex(args[0])
				if err != nil {
					return err
				}
				return s.ctrl.SetBreakpoint(addr)
			},
		},
		"set_accumulator_as_breakpoint": {
			Usage:       "set_accumulator_as_breakpoint",
			Description: "Sets the accumulator as a breakpoint.",
			Handler: func(s *Shell, _ []string) error {
				return s.ctrl.AccumulatorAsBreakpoint()
			},
		},
		"write_from_accumulator": {
			Usage:       "write_from_accumulator <n>",
			Description: "Writes n words from the accumulator pointer; prompts for each word.",
			MinArgs:     1, MaxArgs: 1,
			Handler: func(s *Shell, args []string) error {
				n, err := parseUint(args[0])
				if err != nil {
					return err
				}
				words := make([]uint32, 0, n)
				for i := uint32(0); i < n; i++ {
					line, err := s.readLine("")
					if err != nil {
						return fmt.Errorf("reading word %d: %w", i, err)
					}
					w, err := parseHex(strings.TrimSpace(line))
					if err != nil {
						return err
					}
					words = append(words, w)
				}
				return s.ctrl.WriteWords(words)
			},
		},
		"read_to_accumulator": {
			Usage:       "read_to_accumulator <n>",
			Description: "Reads n words from the accumulator pointer.",
			MinArgs:     1, MaxArgs: 1,
			Handler: func(s *Shell, args []string) error {
				n, err := parseUint(args[0])
				if err != nil {
					return err
				}
				words, err := s.ctrl.ReadWords(int(n))
				if err != nil {
					return err
				}
				s.printWords(words)
				return nil
			},
		},
		"swap_memory_to_core": {
			Usage:       "swap_memory_to_core",
			Description: "Swaps memory access priority with the core.",
			Handler: func(s *Shell, _ []string) error {
				return s.ctrl.SwapMemoryPriority()
			},
		},
		"until": {
			Usage:       "until",
			Description: "Executes until the stop condition is met.",
			Handler: func(s *Shell, _ []string) error {
				words, err := s.ctrl.RunUntilBreak()
				if err != nil {
					return err
				}
				s.printWords(words)
				return nil
			},
		},
		"sync": {
			Usage:       "sync",
			Description: "Synchronizes the interface with the processor.",
			Handler: func(s *Shell, _ []string) error {
				id, err := s.ctrl.Sync()
				if err != nil {
					return err
				}
				s.printWord(id)
				return nil
			},
		},
		"write_file_in_memory": {
			Usage:       "write_file_in_memory <path> [offset]",
			Description: "Writes the words of a hex image at the accumulator pointer.",
			MinArgs:     1, MaxArgs: 2,
			Handler: func(s *Shell, args []string) error {
				if len(args) > 1 {
					offset, err := parseHex(args[1])
					if err != nil {
						return err
					}
					if err := s.ctrl.AddToAccumulator(offset); err != nil {
						return err
					}
				}
				img, err := memfile.LoadFile(args[0])
				if err != nil {
					return err
				}
				if len(img.Segments) > 1 || (len(img.Segments) == 1 && img.Segments[0].Base != 0) {
					return fmt.Errorf("image uses @placement directives, load it with 'pci-comm load' instead")
				}
				var words []uint32
				if len(img.Segments) == 1 {
					words = img.Segments[0].Words
				}
				return s.ctrl.WriteWords(words)
			},
		},
		"help": {
			Usage:       "help [command]",
			Description: "Displays help for available commands.",
			MinArgs:     0, MaxArgs: 1,
			Handler: func(s *Shell, args []string) error {
				if len(args) == 1 {
					c, ok := commands[args[0]]
					if !ok {
						fmt.Fprintf(s.out, "Command %s not found.\n", args[0])
						return nil
					}
					fmt.Fprintf(s.out, "%s - %s\n", c.Usage, c.Description)
					return nil
				}
				fmt.Fprintln(s.out, "Available commands:")
				for _, name := range commandOrder {
					c := commands[name]
					fmt.Fprintf(s.out, "%s - %s\n", c.Usage, c.Description)
				}
				return nil
			},
		},
	}
}
