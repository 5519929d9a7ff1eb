package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/LSC-Unicamp/processor-ci-communication/pkg/controller"
	"github.com/LSC-Unicamp/processor-ci-communication/pkg/memfile"
	"github.com/LSC-Unicamp/processor-ci-communication/pkg/protocol"
)

var (
	loadSecondBank bool
	loadVerify     bool
	loadBreakpoint string
)

var loadCmd = &cobra.Command{
	Use:   "load <file|directory>",
	Short: "Load memory images into the controller",
	Long: `Parse one hex memory image (or every image in a directory) and write it
into controller memory. Words without a placement directive land at
word 0; @addr directives place their block at that word index.

Examples:
  pci-comm load program.hex -p /dev/ttyUSB0
  pci-comm load tests/ -p tcp://bench:9999 --verify
  pci-comm load boot.hex -p sim --second-bank --breakpoint 0x2000`,
	Args: cobra.ExactArgs(1),
	RunE: runLoad,
}

func init() {
	rootCmd.AddCommand(loadCmd)

	loadCmd.Flags().BoolVar(&loadSecondBank, "second-bank", false,
		"write into the secondary memory bank")
	loadCmd.Flags().BoolVar(&loadVerify, "verify", false,
		"read every image back and compare")
	loadCmd.Flags().StringVar(&loadBreakpoint, "breakpoint", "",
		"set the end-of-execution address after loading (hex)")
}

func runLoad(cmd *cobra.Command, args []string) error {
	var bpAddr uint32
	if loadBreakpoint != "" {
		addr, err := parseWord(loadBreakpoint)
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

	if err := loadPath(ctrl, args[0]); err != nil {
		return err
	}

	if loadBreakpoint != "" {
		if err := ctrl.SetBreakpoint(bpAddr); err != nil {
			return fmt.Errorf("failed to set breakpoint: %w", err)
		}
		fmt.Printf("Breakpoint set at 0x%08X\n", bpAddr)
	}
	return nil
}

// loadPath loads one image file, or every image in a directory.
func loadPath(ctrl *controller.Interface, path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return err
	}
	if !info.IsDir() {
		return loadImage(ctrl, path)
	}

	names, err := memfile.ListDir(path)
	if err != nil {
		return err
	}
	if len(names) == 0 {
		return fmt.Errorf("no image files in %s", path)
	}
	for _, name := range names {
		if err := loadImage(ctrl, filepath.Join(path, name)); err != nil {
			return err
		}
	}
	return nil
}

func loadImage(ctrl *controller.Interface, path string) error {
	img, err := memfile.LoadFile(path)
	if err != nil {
		return err
	}
	for _, seg := range img.Segments {
		if err := writeSegment(ctrl, seg); err != nil {
			return fmt.Errorf("%s: %w", filepath.Base(path), err)
		}
		if loadVerify {
			if err := verifySegment(ctrl, seg); err != nil {
				return fmt.Errorf("%s: %w", filepath.Base(path), err)
			}
		}
		fmt.Printf("Loaded %d words from %s at word 0x%06X\n",
			len(seg.Words), filepath.Base(path), seg.Base)
	}
	return nil
}

// writeSegment bursts into the primary bank through the accumulator
// pointer. The secondary bank has no burst path, so it goes word by
// word.
func writeSegment(ctrl *controller.Interface, seg memfile.Segment) error {
	if !loadSecondBank {
		return ctrl.LoadWordsAt(seg.Base, seg.Words)
	}
	for i, w := range seg.Words {
		addr := (seg.Base + uint32(i)) * protocol.WordSize
		if err := ctrl.WriteMemory(addr, w, true); err != nil {
			return err
		}
	}
	return nil
}

func verifySegment(ctrl *controller.Interface, seg memfile.Segment) error {
	if !loadSecondBank {
		return ctrl.VerifyWordsAt(seg.Base, seg.Words)
	}
	for i, want := range seg.Words {
		addr := (seg.Base + uint32(i)) * protocol.WordSize
		got, err := ctrl.ReadMemory(addr, true)
		if err != nil {
			return err
		}
		if got != want {
			return fmt.Errorf("verify mismatch at word 0x%06X: got 0x%08X, want 0x%08X",
				seg.Base+uint32(i), got, want)
		}
	}
	return nil
}

// parseWord parses a 32-bit hex value with or without the 0x prefix.
func parseWord(s string) (uint32, error) {
	v, err := strconv.ParseUint(strings.TrimPrefix(s, "0x"), 16, 32)
	if err != nil {
		return 0, fmt.Errorf("invalid hex value %q", s)
	}
	return uint32(v), nil
}
