// Package talescmder is the root tales command.
package talescmder

import (
	"github.com/spf13/cobra"

	configcmder "github.com/papercomputeco/tales/cmd/tales/config"
	initcmder "github.com/papercomputeco/tales/cmd/tales/init"
	playcmder "github.com/papercomputeco/tales/cmd/tales/play"
	seedcmder "github.com/papercomputeco/tales/cmd/tales/seed"
	servecmder "github.com/papercomputeco/tales/cmd/tales/serve"
	versioncmder "github.com/papercomputeco/tales/cmd/tales/version"
)

const talesLongDesc string = `Tales is a narrated text adventure grounded in world memory.

Each command is classified, the relevant lore and past events are recalled
from a vector index, and a language model narrates what happens next.

Get started:
  tales init --preset ollama    Create a local .tales/ directory
  tales seed                    Load world lore into memory
  tales play                    Play in the terminal
  tales serve                   Serve sessions over HTTP and MCP`

const talesShortDesc string = "Tales - narrated text adventures"

func NewTalesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:          "tales",
		Short:        talesShortDesc,
		Long:         talesLongDesc,
		SilenceUsage: true,
	}

	// Global flags
	cmd.PersistentFlags().BoolP("debug", "d", false, "Enable debug logging")
	cmd.PersistentFlags().String("config-dir", "", "Use this directory instead of ./.tales or ~/.tales")

	cmd.AddCommand(configcmder.NewConfigCmd())
	cmd.AddCommand(initcmder.NewInitCmd())
	cmd.AddCommand(playcmder.NewPlayCmd())
	cmd.AddCommand(seedcmder.NewSeedCmd())
	cmd.AddCommand(servecmder.NewServeCmd())
	cmd.AddCommand(versioncmder.NewVersionCmd())

	return cmd
}
