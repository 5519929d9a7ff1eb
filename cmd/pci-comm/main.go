package main

import "github.com/LSC-Unicamp/processor-ci-communication/cmd/pci-comm/cmd"

func main() {
	cmd.Execute()
}
