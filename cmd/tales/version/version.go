// Package versioncmder provides the version command.
package versioncmder

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/papercomputeco/tales/pkg/cliui"
	"github.com/papercomputeco/tales/pkg/utils"
)

func NewVersionCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "version",
		Short: "Display the tales version",
		Long:  "Display the version, commit and build time of this tales binary.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			w := cmd.OutOrStdout()
			fmt.Fprintf(w, "%s %s\n", cliui.KeyStyle.Render("Version:"), utils.Version)
			fmt.Fprintf(w, "%s %s\n", cliui.KeyStyle.Render("Sha:"), utils.Sha)
			fmt.Fprintf(w, "%s %s\n", cliui.KeyStyle.Render("Built at:"), utils.Buildtime)
			return nil
		},
	}

	return cmd
}
