package cmd

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"time"

	"github.com/spf13/cobra"

	"github.com/LSC-Unicamp/processor-ci-communication/pkg/controller"
	"github.com/LSC-Unicamp/processor-ci-communication/pkg/shell"
	"github.com/LSC-Unicamp/processor-ci-communication/pkg/sim"
	"github.com/LSC-Unicamp/processor-ci-communication/pkg/transport"
)

// version reported by --version and the version subcommand.
const version = "1.0.0"

// portEnv names the environment fallback for --port.
const portEnv = "PCI_COMM_PORT"

var (
	// Global flags
	verbose    bool
	port       string
	baudrate   int
	timeoutSec int
	startShell bool
)

var rootCmd = &cobra.Command{
	Use:   "pci-comm",
	Short: "ProcessorCI controller communication shell",
	Long: `Command and response shell for ProcessorCI verification controllers.
Talks to the FPGA-hosted controller over a serial device, a TCP bench
socket, a served board (ws://), or the built-in simulator.

Examples:
  pci-comm -p /dev/ttyUSB0 -s                       # Interactive shell over serial
  pci-comm -p sim -s                                # Shell against the built-in simulator
  pci-comm load program.hex -p tcp://bench:9999     # Burst-write a memory image
  pci-comm exec program.hex -p sim --breakpoint 0x40
  pci-comm serve -p /dev/ttyUSB0 --listen :8989     # Share the board over WebSocket
  pci-comm simulate --listen :9999                  # Software board on TCP`,
	Version: version,
	RunE:    runRoot,
}

// Execute runs the root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
	rootCmd.PersistentFlags().StringVarP(&port, "port", "p", "",
		"port for communication with the controller (serial device, tcp://host:port, ws://host/raw, or sim)")
	rootCmd.PersistentFlags().IntVarP(&baudrate, "baudrate", "b", transport.DefaultBaudRate,
		"baud rate for communication with the controller")
	rootCmd.PersistentFlags().IntVarP(&timeoutSec, "timeout", "t", 1,
		"timeout in seconds for communication with the controller")
	rootCmd.Flags().BoolVarP(&startShell, "shell", "s", false,
		"starts a shell for communication with the controller")
}

func runRoot(cmd *cobra.Command, args []string) error {
	if !startShell {
		fmt.Println("Shell not started")
		fmt.Println("To start the shell, use the -s or --shell flag")
		return nil
	}

	ctrl, err := openController()
	if err != nil {
		return err
	}
	defer ctrl.Close()

	id, err := ctrl.Sync()
	if err != nil {
		return fmt.Errorf("failed to sync with the controller: %w", err)
	}
	fmt.Printf("Connected to module 0x%08X\n", id)

	return shell.New(ctrl, nil).Run()
}

// readTimeout converts the -t flag into the transport receive budget.
func readTimeout() time.Duration {
	if timeoutSec <= 0 {
		return transport.DefaultReadTimeout
	}
	return time.Duration(timeoutSec) * time.Second
}

// openTransport opens the endpoint named by --port or PCI_COMM_PORT.
// The special name "sim" yields an in-process simulated board.
func openTransport() (transport.Transport, error) {
	endpoint := port
	if endpoint == "" {
		endpoint = os.Getenv(portEnv)
	}
	if endpoint == "" {
		return nil, fmt.Errorf("no port given: use -p/--port or set %s", portEnv)
	}

	if endpoint == "sim" || endpoint == "simulator" {
		if verbose {
			fmt.Println("Using simulated board")
		}
		board := sim.NewBoard(0)
		mock := transport.NewMock()
		mock.OnWrite = board.Process
		mock.SetReadTimeout(readTimeout())
		return mock, nil
	}

	return transport.Open(endpoint,
		transport.WithBaudRate(baudrate),
		transport.WithReadTimeout(readTimeout()))
}

// openController opens the configured endpoint and wraps it in a
// controller session.
func openController() (*controller.Interface, error) {
	tr, err := openTransport()
	if err != nil {
		return nil, err
	}
	return controller.New(tr, controllerOptions()...), nil
}

func controllerOptions() []controller.Option {
	if !verbose {
		return nil
	}
	return []controller.Option{
		controller.WithLogger(log.New(os.Stderr, "[pci-comm] ", log.LstdFlags)),
	}
}

// listenStop cancels the returned context on interrupt.
func listenStop() context.Context {
	ctx, cancel := context.WithCancel(context.Background())

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt)

	go func() {
		<-sigCh
		cancel()
	}()

	return ctx
}
