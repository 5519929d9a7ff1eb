// Package shell provides the interactive prompt for driving a board
// through an open controller connection. A line names one command from
// the registry in commands.go; unknown names and malformed arguments
// are reported without touching the transport, and only a broken
// transport ends the session.
package shell

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/peterh/liner"

	"github.com/LSC-Unicamp/processor-ci-communication/pkg/controller"
	"github.com/LSC-Unicamp/processor-ci-communication/pkg/transport"
)

// Prompt is printed before every input line
const Prompt = "ProcessorCIInterface> "

// historyFile keeps readline history between sessions
const historyFile = ".pci-comm_history"

// errExit signals a clean exit request from a command handler
var errExit = errors.New("exit requested")

// Shell is an interactive command interpreter bound to a controller
type Shell struct {
	ctrl *controller.Interface
	out  io.Writer

	// readLine supplies continuation lines for commands that consume
	// more input than their own line (write_from_accumulator)
	readLine func(prompt string) (string, error)
}

// New creates a shell driving ctrl, writing command output to out.
// A nil out defaults to stdout.
func New(ctrl *controller.Interface, out io.Writer) *Shell {
	if out == nil {
		out = os.Stdout
	}
	s := &Shell{ctrl: ctrl, out: out}

	stdin := bufio.NewScanner(os.Stdin)
	s.readLine = func(prompt string) (string, error) {
		fmt.Fprint(s.out, prompt)
		if !stdin.Scan() {
			if err := stdin.Err(); err != nil {
				return "", err
			}
			return "", io.EOF
		}
		return stdin.Text(), nil
	}
	return s
}

// Run drives the read-eval loop until exit, EOF, Ctrl-C at the prompt,
// or a fatal transport error. A user-requested exit returns nil.
func (s *Shell) Run() error {
	line := liner.NewLiner()
	defer line.Close()

	line.SetCtrlCAborts(true)
	line.SetCompleter(func(prefix string) (c []string) {
		for name := range commands {
			if strings.HasPrefix(name, strings.ToLower(prefix)) {
				c = append(c, name)
			}
		}
		return
	})

	if f, err := os.Open(historyFile); err == nil {
		line.ReadHistory(f)
		f.Close()
	}
	defer func() {
		if f, err := os.Create(historyFile); err == nil {
			line.WriteHistory(f)
			f.Close()
		}
	}()

	s.readLine = line.Prompt

	for {
		input, err := line.Prompt(Prompt)
		if err == liner.ErrPromptAborted || err == io.EOF {
			fmt.Fprintln(s.out)
			return nil
		}
		if err != nil {
			return err
		}
		input = strings.TrimSpace(input)
		if input == "" {
			continue
		}
		line.AppendHistory(input)

		if err := s.Execute(input); err != nil {
			if errors.Is(err, errExit) {
				return nil
			}
			return err
		}
	}
}

// Execute runs a single command line. Recoverable problems (unknown
// command, bad arguments, timeouts, protocol violations) are printed
// and swallowed; the returned error is non-nil only for an exit
// request or a fatal transport failure.
func (s *Shell) Execute(input string) error {
	fields := strings.Fields(input)
	if len(fields) == 0 {
		return nil
	}
	name, args := fields[0], fields[1:]

	cmd, ok := commands[name]
	if !ok {
		fmt.Fprintf(s.out, "unknown command %q\n", name)
		return nil
	}
	if len(args) < cmd.MinArgs || len(args) > cmd.MaxArgs {
		fmt.Fprintf(s.out, "usage: %s\n", cmd.Usage)
		return nil
	}

	err := cmd.Handler(s, args)
	switch {
	case err == nil:
		return nil
	case errors.Is(err, errExit):
		return err
	default:
		fmt.Fprintf(s.out, "error: %v\n", err)
		if fatal(err) {
			return err
		}
		return nil
	}
}

// fatal reports whether err means the transport itself is gone, as
// opposed to a recoverable timeout or protocol problem
func fatal(err error) bool {
	if errors.Is(err, transport.ErrTimeout) {
		return false
	}
	var ioErr *transport.IOError
	return errors.As(err, &ioErr)
}

// printWord prints a response word as the board sent it: big endian,
// two lowercase hex digits per byte
func (s *Shell) printWord(v uint32) {
	fmt.Fprintf(s.out, "%08x\n", v)
}

// printWords prints a multi-word response as one contiguous hex string
func (s *Shell) printWords(words []uint32) {
	for _, w := range words {
		fmt.Fprintf(s.out, "%08x", w)
	}
	fmt.Fprintln(s.out)
}
