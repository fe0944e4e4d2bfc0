// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 KeyFort Contributors

package main

import (
	"github.com/spf13/cobra"
)

// Global flags available to all subcommands.
var configFile string

// NewRootCmd creates the root command for the KeyFort CLI.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "keyfort",
		Short: "KeyFort - credential and session authority",
		Long: `KeyFort registers user identities, stores credentials irreversibly,
authenticates login attempts, and issues unforgeable session tokens.`,
	}

	// Global flag for config file path
	cmd.PersistentFlags().StringVar(&configFile, "config", "", "config file path")

	cmd.AddCommand(NewServeCmd())

	return cmd
}
