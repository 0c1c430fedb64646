package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/burtcorp/fivenine-tracker-go/internal/device"
)

func newDeviceIDCmd(flags *rootFlags) *cobra.Command {
	var path string

	cmd := &cobra.Command{
		Use:   "device-id",
		Short: "Print the persisted device ID, creating it if needed",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if flags.cfg.DeviceID != "" {
				fmt.Fprintln(cmd.OutOrStdout(), flags.cfg.DeviceID)
				return nil
			}
			id, err := device.Load(path, nil)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), id)
			return nil
		},
	}

	cmd.Flags().StringVar(&path, "file", device.DefaultPath(), "Device ID file")

	return cmd
}
