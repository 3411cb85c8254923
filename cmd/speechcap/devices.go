package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/notune/speechcap/internal/capture"
)

func newDevicesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "devices",
		Short: "List available capture devices",
		RunE: func(cmd *cobra.Command, args []string) error {
			devices, err := capture.ListDevices()
			if err != nil {
				return err
			}
			if len(devices) == 0 {
				fmt.Println("No capture devices found.")
				return nil
			}

			fmt.Printf("Found %d capture device(s):\n", len(devices))
			for _, d := range devices {
				marker := " "
				if d.IsDefault {
					marker = "*"
				}
				fmt.Printf("  %s %d: %s [%s]\n", marker, d.Index, d.Name, d.ID)
			}
			fmt.Println("\n* = system default. Match a device with capture.device in the config.")
			return nil
		},
	}
}
