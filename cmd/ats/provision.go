package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"lark-ats/internal/ats"
)

func newProvisionCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "provision",
		Short: "Create the ATS table and its fields",
		Long:  "Creates the 採用管理（ATS） table in the configured Base app, then each field in order. A field that fails is reported and skipped.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			client, err := a.client()
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if _, err := ats.NewProvisioner(client, a.log, out).Provision(cmd.Context()); err != nil {
				fmt.Fprintf(cmd.ErrOrStderr(), "❌ Error creating ATS table: %v\n", err)
				return err
			}
			return nil
		},
	}
}
