// LiveShop - Live Shopping Broadcast Backend
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/liveshop

package main

import (
	"time"

	"github.com/spf13/cobra"

	"github.com/tomtom215/liveshop/internal/printing"
)

func newAgentCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "agent",
		Short: "Query the label print agent",
	}
	cmd.PersistentFlags().String("agent", "http://127.0.0.1:8765", "print agent base URL")

	client := func(cmd *cobra.Command) *printing.Client {
		base, _ := cmd.Flags().GetString("agent")
		return printing.NewClient(printing.ClientConfig{BaseURL: base, Timeout: 10 * time.Second})
	}

	status := &cobra.Command{
		Use:   "status",
		Short: "Show the discovered printer",
		RunE: func(cmd *cobra.Command, _ []string) error {
			st, err := client(cmd).Status(cmd.Context())
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), st)
		},
	}

	jobs := &cobra.Command{
		Use:   "jobs",
		Short: "List recent print jobs, newest first",
		RunE: func(cmd *cobra.Command, _ []string) error {
			limit, _ := cmd.Flags().GetInt("limit")
			list, err := client(cmd).Jobs(cmd.Context(), limit)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), list)
		},
	}
	jobs.Flags().Int("limit", 20, "number of jobs")

	testPrint := &cobra.Command{
		Use:   "test-print",
		Short: "Print the built-in test label",
		RunE: func(cmd *cobra.Command, _ []string) error {
			resp, err := client(cmd).TestPrint(cmd.Context())
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), resp)
		},
	}

	cmd.AddCommand(status, jobs, testPrint)
	return cmd
}
