package cmd

import (
	"log"
	"os"

	"github.com/spf13/cobra"

	"github.com/LSC-Unicamp/processor-ci-communication/pkg/remote"
)

var serveListen string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Share the board over WebSocket",
	Long: `Expose the connected board on an HTTP listener: a JSON command envelope
on /ws and a raw frame relay on /raw. A remote session opens the relay
as its port (-p ws://host:8989/raw) and works the board as if it were
local. One client operates the board at a time; the server turns the
rest away until it is free.

Examples:
  pci-comm serve -p /dev/ttyUSB0 --listen :8989
  pci-comm serve -p sim --listen 127.0.0.1:8989`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().StringVar(&serveListen, "listen", ":8989", "listen address")
}

func runServe(cmd *cobra.Command, args []string) error {
	tr, err := openTransport()
	if err != nil {
		return err
	}
	defer tr.Close()

	logger := log.New(os.Stderr, "[serve] ", log.LstdFlags)
	srv := remote.NewServer(tr, logger, controllerOptions()...)
	if err := srv.Listen(serveListen); err != nil {
		return err
	}
	return srv.Serve(listenStop())
}
