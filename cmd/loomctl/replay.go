package main

import (
	"encoding/json"

	"github.com/spf13/cobra"

	"loom/internal/domain/models/chat"
	"loom/internal/service/chat/streamplan"
	"loom/internal/service/chat/thought"
)

func newReplayCmd(root *rootOptions) *cobra.Command {
	var (
		file   string
		window int
	)

	cmd := &cobra.Command{
		Use:   "replay",
		Short: "Replay a recorded chunk stream through the transition planner",
		Long: `Reads a JSON array of chunks ({text_delta, reasoning_delta, message_id})
and prints one JSON line per chunk with the planned transition and the
merged answer and thought text, then the final snapshot.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := readInput(cmd, file)
			if err != nil {
				return err
			}

			var chunks []chat.Chunk
			if err := decodeStrict(data, &chunks); err != nil {
				return err
			}

			if !cmd.Flags().Changed("window") {
				window = loadConfig().ThoughtOverlapWindow
			}
			turn := streamplan.NewTurnStream(thought.NewMerger(window), root.logger(cmd))

			encoder := json.NewEncoder(cmd.OutOrStdout())
			for _, chunk := range chunks {
				if err := encoder.Encode(turn.Consume(chunk)); err != nil {
					return err
				}
			}
			return encoder.Encode(turn.Snapshot())
		},
	}

	cmd.Flags().StringVarP(&file, "file", "f", "", "chunks JSON file (- for stdin)")
	cmd.Flags().IntVar(&window, "window", thought.DefaultMaxOverlapSearch, "overlap search window for reasoning deltas, in bytes (default $THOUGHT_OVERLAP_WINDOW)")
	return cmd
}
