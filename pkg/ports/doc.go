/*
Package ports defines the driven ports (interfaces) of the Vibe Cam engine.

These interfaces decouple the conversation and darkroom logic from the model
providers and from session persistence.

# Key Interfaces

  - Completer: produces the agent's text for a conversational turn.
  - ImageGenerator: turns a prompt into an image reference (URL or data URI).
  - SessionStore: persists documents between turns for stateful clients.
  - DistributedLocker: coordinates session access across replicas.
*/
package ports
