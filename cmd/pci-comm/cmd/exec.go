package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var execBreakpoint string

var execCmd = &cobra.Command{
	Use:   "exec <file>",
	Short: "Load a program and run it to the breakpoint",
	Long: `Load a hex memory image, reset the core, and let it run until the
end-of-execution address is reached or the controller gives up. The
address reached and the cycle count come back on stdout.

Examples:
  pci-comm exec program.hex -p /dev/ttyUSB0 --breakpoint 0x2000
  pci-comm exec program.hex -p sim --breakpoint 0x40`,
	Args: cobra.ExactArgs(1),
	RunE: runExec,
}

func init() {
	rootCmd.AddCommand(execCmd)

	execCmd.Flags().StringVar(&execBreakpoint, "breakpoint", "",
		"end-of-execution address (hex); defaults to the one already configured")
}

func runExec(cmd *cobra.Command, args []string) error {
	var bpAddr uint32
	if execBreakpoint != "" {
		addr, err := parseWord(execBreakpoint)
		if err != nil {
			return fmt.Errorf("invalid --breakpoint: %w", err)
		}
		bpAddr = addr
	}

	ctrl, err := openController()
	if err != nil {
		return err
	}
	defer ctrl.Close()

	if _, err := ctrl.Sync(); err != nil {
		return fmt.Errorf("failed to sync with the controller: %w", err)
	}
	if err := loadImage(ctrl, args[0]); err != nil {
		return err
	}
	if execBreakpoint != "" {
		if err := ctrl.SetBreakpoint(bpAddr); err != nil {
			return fmt.Errorf("failed to set breakpoint: %w", err)
		}
	}
	if err := ctrl.ResetCore(); err != nil {
		return fmt.Errorf("failed to reset the core: %w", err)
	}

	words, err := ctrl.RunUntilBreak()
	if err != nil {
		return fmt.Errorf("execution did not reach the breakpoint: %w", err)
	}
	fmt.Printf("Execution stopped at 0x%08X after %d cycles\n", words[0], words[1])
	return nil
}
