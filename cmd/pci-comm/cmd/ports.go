package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/LSC-Unicamp/processor-ci-communication/pkg/transport"
)

var portsCmd = &cobra.Command{
	Use:   "ports",
	Short: "List candidate controller ports",
	Long: `Scan the host for serial devices and known USB-UART bridges and print a
summary. Use this to find the right -p/--port value before starting a
session.`,
	RunE: runPorts,
}

func init() {
	rootCmd.AddCommand(portsCmd)
}

func runPorts(cmd *cobra.Command, args []string) error {
	paths, err := transport.ListPorts()
	if err != nil {
		return fmt.Errorf("list serial ports: %w", err)
	}
	if len(paths) == 0 {
		fmt.Println("No serial ports found.")
	} else {
		fmt.Println("Serial ports:")
		for _, path := range paths {
			fmt.Printf("  - %s\n", path)
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	bridges, err := transport.DiscoverBridges(ctx)
	if err != nil {
		return fmt.Errorf("discover bridges: %w", err)
	}
	if len(bridges) == 0 {
		fmt.Println("No known USB bridges detected.")
		return nil
	}
	fmt.Println("Detected USB bridges:")
	for _, bridge := range bridges {
		fmt.Printf("  - %s\n", bridge.Label())
	}
	return nil
}
