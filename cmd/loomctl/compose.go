package main

import (
	"github.com/spf13/cobra"

	"loom/internal/prompts"
	chatSvc "loom/internal/service/chat"
	"loom/internal/service/chat/compose"
	"loom/internal/service/chat/conversation"
)

func newComposeCmd(root *rootOptions) *cobra.Command {
	var (
		file        string
		promptsFile string
		model       string
	)

	cmd := &cobra.Command{
		Use:   "compose",
		Short: "Compose an outbound request from a JSON request file",
		Long: `Reads a compose request (chain, history settings, page context, ...)
and prints the composed messages with both provider payloads.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := readInput(cmd, file)
			if err != nil {
				return err
			}

			var req chatSvc.ComposeRequest
			if err := decodeStrict(data, &req); err != nil {
				return err
			}
			if model != "" {
				req.Model = model
			}

			registry, err := prompts.NewRegistry()
			if err != nil {
				return err
			}
			cfg := loadConfig()
			if promptsFile == "" {
				promptsFile = cfg.PromptsFile
			}
			if promptsFile != "" {
				if err := registry.LoadOverride(promptsFile); err != nil {
					return err
				}
			}

			logger := root.logger(cmd)
			service := chatSvc.NewRequestService(
				compose.NewComposer(logger),
				conversation.NewService(conversation.NewTree(), logger),
				registry,
				chatSvc.RequestConfig{
					DefaultModel:     cfg.DefaultModel,
					APIFamily:        cfg.APIFamily,
					StreamingEnabled: cfg.StreamingEnabled,
				},
				logger,
			)

			preview, err := service.Compose(cmd.Context(), &req)
			if err != nil {
				return err
			}
			return printJSON(cmd, preview)
		},
	}

	cmd.Flags().StringVarP(&file, "file", "f", "", "request JSON file (- for stdin)")
	cmd.Flags().StringVar(&promptsFile, "prompts", "", "prompt catalog override (default $PROMPTS_FILE)")
	cmd.Flags().StringVarP(&model, "model", "m", "", "override the request model")
	return cmd
}
