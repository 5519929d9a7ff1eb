package transport

import (
	"context"
	"fmt"

	"github.com/google/gousb"
)

// BridgeInfo describes a connected USB-UART bridge or FPGA board
// interface that likely backs one of the system's serial devices.
type BridgeInfo struct {
	Description string
	VendorID    uint16
	ProductID   uint16
}

// Label returns a user-friendly description for the bridge.
func (b BridgeInfo) Label() string {
	if b.Description != "" {
		return fmt.Sprintf("%s (%04X:%04X)", b.Description, b.VendorID, b.ProductID)
	}
	return fmt.Sprintf("USB device %04X:%04X", b.VendorID, b.ProductID)
}

// DiscoverBridges enumerates connected USB devices matching known
// USB-UART bridge and FPGA development board identifiers. Serial
// device paths come from ListPorts; this call tells the user which
// silicon sits behind them.
func DiscoverBridges(ctx context.Context) ([]BridgeInfo, error) {
	var results []BridgeInfo
	usb := gousb.NewContext()
	defer usb.Close()

	_, err := usb.OpenDevices(func(desc *gousb.DeviceDesc) bool {
		select {
		case <-ctx.Done():
			return false
		default:
		}

		if info, ok := classifyUSBDevice(desc); ok {
			results = append(results, info)
		}
		return false
	})
	if err != nil && err != gousb.ErrorAccess {
		return results, err
	}

	return results, nil
}

func classifyUSBDevice(desc *gousb.DeviceDesc) (BridgeInfo, bool) {
	for _, known := range knownBridgeVIDPIDs {
		if uint16(desc.Vendor) == known.VendorID && uint16(desc.Product) == known.ProductID {
			return BridgeInfo{
				Description: known.Description,
				VendorID:    known.VendorID,
				ProductID:   known.ProductID,
			}, true
		}
	}
	return BridgeInfo{}, false
}

type knownUSBDevice struct {
	VendorID    uint16
	ProductID   uint16
	Description string
}

var knownBridgeVIDPIDs = []knownUSBDevice{
	{VendorID: 0x0403, ProductID: 0x6001, Description: "FTDI FT232R"},
	{VendorID: 0x0403, ProductID: 0x6010, Description: "FTDI FT2232H (common on FPGA dev boards)"},
	{VendorID: 0x0403, ProductID: 0x6011, Description: "FTDI FT4232H"},
	{VendorID: 0x0403, ProductID: 0x6014, Description: "FTDI FT232H"},
	{VendorID: 0x0403, ProductID: 0x6015, Description: "FTDI FT231X"},
	{VendorID: 0x10C4, ProductID: 0xEA60, Description: "Silicon Labs CP210x"},
	{VendorID: 0x1A86, ProductID: 0x7523, Description: "WCH CH340"},
	{VendorID: 0x067B, ProductID: 0x2303, Description: "Prolific PL2303"},
	{VendorID: 0x2E8A, ProductID: 0x000A, Description: "Raspberry Pi Pico (CDC)"},
}
