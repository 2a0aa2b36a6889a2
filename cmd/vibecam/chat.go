package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/aretw0/vibecam/internal/cli"
)

var chatOpts cli.ChatOptions

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Plan and develop a photo from the terminal",
	Long: `Starts an interactive conversation. Describe the photo you want; once the
agent has enough detail the photo is developed and saved to --out.

Type /generate to develop right away, or exit to leave.
With --json, input and output are JSON Lines for scripting.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()
		app, err := cli.Build(ctx, cfg)
		if err != nil {
			return fmt.Errorf("error initializing vibecam: %w", err)
		}
		defer app.Close()

		return cli.RunChat(ctx, app, chatOpts, cmd.InOrStdin(), cmd.OutOrStdout())
	},
}

func init() {
	rootCmd.AddCommand(chatCmd)

	flags := chatCmd.Flags()
	flags.StringVarP(&chatOpts.SessionID, "session", "s", "", "Session ID to resume and save to")
	flags.BoolVar(&chatOpts.Fresh, "fresh", false, "Discard the stored session before starting")
	flags.BoolVar(&chatOpts.JSON, "json", false, "Read and write JSON Lines")
	flags.BoolVarP(&chatOpts.Quiet, "quiet", "q", false, "Skip the banner and session notices")
	flags.StringVarP(&chatOpts.OutputDir, "out", "o", ".", "Directory for developed prints")
	flags.StringVar(&chatOpts.CharacterImage, "character-image", "", "Reference image of the subject: file, URL or data URI")
	flags.StringVar(&chatOpts.Camera.Model, "camera", "", "Camera preset, overrides the agent's choice")
	flags.StringVar(&chatOpts.Camera.Aperture, "aperture", "", "Aperture, e.g. f/1.8")
	flags.StringVar(&chatOpts.Camera.Shutter, "shutter", "", "Shutter speed, e.g. 1/250")
	flags.StringVar(&chatOpts.Camera.ISO, "iso", "", "Film speed, e.g. 800")
	flags.BoolVar(&chatOpts.NoAutoDevelop, "no-develop", false, "Do not develop automatically when the agent is ready")
}
