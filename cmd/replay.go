package cmd

import (
	"errors"
	"io"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/hamlet-sim/hamlet-sim/sim"
	"github.com/hamlet-sim/hamlet-sim/sim/replay"
)

var replayVerbose bool

// replayCmd reads a recorded run log and prints a per-tick summary.
var replayCmd = &cobra.Command{
	Use:   "replay <run.jsonl.zst>",
	Short: "Inspect a recorded run log",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		reader, err := replay.Open(args[0])
		if err != nil {
			logrus.Fatalf("Open replay log: %v", err)
		}
		defer reader.Close()

		logrus.Infof("Replay header: %v", reader.Header())
		var ticks, events int
		for {
			t, err := reader.Next()
			if errors.Is(err, io.EOF) {
				break
			}
			if err != nil {
				logrus.Fatalf("Read replay log: %v", err)
			}
			ticks++
			events += len(t.Events)
			if replayVerbose {
				for _, ev := range t.Events {
					logrus.Infof("[tick %07d] %s: %s", t.Tick, ev.EventKind(), describeEvent(ev))
				}
			} else {
				logrus.Infof("[tick %07d] weather=%s events=%d", t.Tick, t.State.Weather, len(t.Events))
			}
		}
		logrus.Infof("Replay complete: %d ticks, %d events", ticks, events)
	},
}

func describeEvent(ev sim.Event) string {
	narrator := sim.NewTemplateNarrator(nil)
	return narrator.Narrate(ev)
}

func init() {
	replayCmd.Flags().BoolVarP(&replayVerbose, "verbose", "v", false, "Narrate every event instead of per-tick counts")
	rootCmd.AddCommand(replayCmd)
}
