// LiveShop - Live Shopping Broadcast Backend
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/liveshop

package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/tomtom215/liveshop/internal/label"
)

func newLabelCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "label",
		Short: "Render order labels locally",
	}

	preview := &cobra.Command{
		Use:   "preview <customer_number>",
		Short: "Write a PNG preview of a label",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			price, _ := cmd.Flags().GetString("price")
			out, _ := cmd.Flags().GetString("out")
			scale, _ := cmd.Flags().GetInt("scale")

			f, err := os.Create(out)
			if err != nil {
				return err
			}
			if err := label.PNG(f, args[0], price, time.Now(), scale); err != nil {
				_ = f.Close()
				return err
			}
			if err := f.Close(); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "wrote %s\n", out)
			return nil
		},
	}
	preview.Flags().String("price", "0,00", "price printed bottom right")
	preview.Flags().String("out", "label.png", "output file")
	preview.Flags().Int("scale", label.PreviewScale, "screen pixels per printer dot")

	zpl := &cobra.Command{
		Use:   "zpl <customer_number>",
		Short: "Print the ZPL program for a label",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			price, _ := cmd.Flags().GetString("price")
			_, err := cmd.OutOrStdout().Write(label.Program(args[0], price, time.Now()))
			return err
		},
	}
	zpl.Flags().String("price", "0,00", "price printed bottom right")

	cmd.AddCommand(preview, zpl)
	return cmd
}
