package cmd

import (
	"log"

	"github.com/spf13/cobra"

	"github.com/lolski/common-sub000/internal/build"
)

// NewVersionCommand returns the command to get the reasoner version
func NewVersionCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "version",
		Short: "Return the reasoner version",
		Long:  "Return the reasoner version.",
		RunE:  version,
		Args:  cobra.NoArgs,
	}

	return cmd
}

// print out the built version
func version(_ *cobra.Command, _ []string) error {
	log.Printf("reasoner version %s date %s commit id %s", build.Version, build.Date, build.Commit)
	return nil
}
