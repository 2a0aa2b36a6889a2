package cli

import (
	"context"
	"fmt"
	"io"
	"os"

	"golang.org/x/term"

	"github.com/aretw0/vibecam"
	"github.com/aretw0/vibecam/internal/presentation/tui"
	"github.com/aretw0/vibecam/pkg/runner"
)

// ChatOptions configures an interactive chat session.
type ChatOptions struct {
	SessionID      string
	Fresh          bool
	JSON           bool
	Quiet          bool
	OutputDir      string
	CharacterImage string
	Camera         CameraFlags
	NoAutoDevelop  bool
}

// CameraFlags are manual camera settings given on the command line.
type CameraFlags struct {
	Model    string
	Aperture string
	Shutter  string
	ISO      string
}

// Settings returns the non-empty flags as camera_settings.
func (c CameraFlags) Settings() map[string]any {
	out := map[string]any{}
	for key, value := range map[string]string{
		"model":    c.Model,
		"aperture": c.Aperture,
		"shutter":  c.Shutter,
		"iso":      c.ISO,
	} {
		if value != "" {
			out[key] = value
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

// RunChat runs the chat loop over in and out until the input ends or the
// user quits.
func RunChat(ctx context.Context, app *App, opts ChatOptions, in io.Reader, out io.Writer) error {
	character, err := LoadCharacterImage(opts.CharacterImage)
	if err != nil {
		return err
	}

	if opts.Fresh && opts.SessionID != "" {
		if err := app.Sessions.Delete(ctx, opts.SessionID); err != nil {
			return fmt.Errorf("failed to reset session %s: %w", opts.SessionID, err)
		}
	}

	var handler runner.IOHandler
	if opts.JSON {
		handler = runner.NewJSONHandler(in, out, runner.WithJSONHandlerSanitizer(app.Sanitizer))
	} else {
		textOpts := []runner.TextHandlerOption{runner.WithTextHandlerSanitizer(app.Sanitizer)}
		if width, ok := terminalWidth(out); ok {
			textOpts = append(textOpts, runner.WithTextHandlerRenderer(tui.NewRenderer(width)))
		}
		if !opts.Quiet {
			tui.PrintBanner(out, vibecam.Version)
		}
		handler = runner.NewTextHandler(in, out, textOpts...)
	}

	r := runner.NewRunner(
		runner.WithEngine(app.Engine),
		runner.WithSessions(app.Sessions),
		runner.WithSessionID(opts.SessionID),
		runner.WithLogger(app.Logger),
		runner.WithInputHandler(handler),
		runner.WithOutputDir(opts.OutputDir),
		runner.WithCharacterImage(character),
		runner.WithCameraSettings(opts.Camera.Settings()),
		runner.WithAutoDevelop(!opts.NoAutoDevelop),
	)

	if opts.SessionID != "" && !opts.JSON && !opts.Quiet {
		_ = handler.SystemOutput(ctx, fmt.Sprintf("Session '%s' active.", opts.SessionID))
	}
	return r.Run(ctx)
}

// terminalWidth reports the column count when w is a terminal.
func terminalWidth(w io.Writer) (int, bool) {
	f, ok := w.(*os.File)
	if !ok || !term.IsTerminal(int(f.Fd())) {
		return 0, false
	}
	width, _, err := term.GetSize(int(f.Fd()))
	if err != nil || width <= 0 {
		return 80, true
	}
	return width, true
}
