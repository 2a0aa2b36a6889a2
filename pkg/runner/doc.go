/*
Package runner drives an interactive Vibe Cam conversation over a pair of streams.

It reads user messages through an IOHandler, sends each one to the engine,
shows the agent's reply and, once the document is ready, develops the photo
and writes the print to disk. With a session manager the document survives
restarts under a session id.

# Key Components

  - Runner: the chat loop.
  - IOHandler: decouples how messages are read and replies shown.
  - TextHandler: interactive terminal usage with optional markdown rendering.
  - JSONHandler: JSON-Lines for scripted clients.

# Usage

	r := runner.NewRunner(
		runner.WithEngine(engine),
		runner.WithSessions(manager),
		runner.WithSessionID("user-1"),
		runner.WithInputHandler(runner.NewTextHandler(os.Stdin, os.Stdout)),
	)

	if err := r.Run(ctx); err != nil {
		log.Fatal(err)
	}

Typing "/generate" develops the current document even if the agent has not
declared it ready. "exit" or "quit" ends the loop.
*/
package runner
