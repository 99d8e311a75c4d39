package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"loom/internal/service/chat/responsemode"
)

func newModeCmd() *cobra.Command {
	var (
		family   string
		want     string
		declared bool
	)

	cmd := &cobra.Command{
		Use:   "mode",
		Short: "Resolve whether an exchange is streamed",
		Example: `  loomctl mode --family genai --want=false --declared
  loomctl mode --family openai-compatible --declared`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !cmd.Flags().Changed("family") {
				family = loadConfig().APIFamily
			}

			var wants *bool
			if cmd.Flags().Changed("want") {
				b, err := strconv.ParseBool(want)
				if err != nil {
					return fmt.Errorf("--want: %w", err)
				}
				wants = &b
			} else {
				wants = loadConfig().StreamingEnabled
			}

			_, err := fmt.Fprintln(cmd.OutOrStdout(), responsemode.Resolve(family, wants, declared))
			return err
		},
	}

	cmd.Flags().StringVar(&family, "family", "", "API family label (default $API_FAMILY)")
	cmd.Flags().StringVar(&want, "want", "", "dedicated streaming toggle: true or false (default $STREAMING_ENABLED)")
	cmd.Flags().BoolVar(&declared, "declared", false, "the request body declares stream: true")
	return cmd
}
