package cmd

import (
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/hamlet-sim/hamlet-sim/sim/worldfile"
)

// validateCmd loads a world directory and reports what it found without
// running anything.
var validateCmd = &cobra.Command{
	Use:   "validate <world-dir>",
	Short: "Validate a world directory",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		def, err := worldfile.Load(args[0])
		if err != nil {
			logrus.Fatalf("World %s is invalid: %v", args[0], err)
		}
		logrus.Infof("World %s is valid: %d agents, %d objects, %d nodes",
			args[0], len(def.State.Agents), len(def.State.Objects), len(def.State.World.Nodes))
	},
}

func init() {
	rootCmd.AddCommand(validateCmd)
}
