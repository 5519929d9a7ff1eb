package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/LSC-Unicamp/processor-ci-communication/pkg/sim"
)

var (
	simListen   string
	simModuleID string
)

var simulateCmd = &cobra.Command{
	Use:   "simulate",
	Short: "Run the TCP board simulator",
	Long: `Run a software model of the controller on a TCP listener. Point a
session at it with -p tcp://host:port to exercise the full stack
without hardware.

Examples:
  pci-comm simulate --listen :9999
  pci-comm -p tcp://localhost:9999 -s          # in another terminal`,
	RunE: runSimulate,
}

func init() {
	rootCmd.AddCommand(simulateCmd)

	simulateCmd.Flags().StringVar(&simListen, "listen", ":9999", "listen address")
	simulateCmd.Flags().StringVar(&simModuleID, "module-id", "",
		"module ID the board reports (hex)")
}

func runSimulate(cmd *cobra.Command, args []string) error {
	var id uint32
	if simModuleID != "" {
		v, err := parseWord(simModuleID)
		if err != nil {
			return fmt.Errorf("invalid --module-id: %w", err)
		}
		id = v
	}

	srv := sim.NewServer(sim.NewBoard(id), nil)
	if err := srv.Listen(simListen); err != nil {
		return err
	}
	return srv.Serve(listenStop())
}
