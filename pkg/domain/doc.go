/*
Package domain contains the core data model of Vibe Cam.

It defines the photo document being filled turn by turn, the conversational
status of that document, persisted sessions, the document diff streamed to
subscribers, and the lifecycle hooks used for observability. This package is
kept free of I/O and persistence.

# Key Entities

  - Object: an insertion-ordered JSON object; the document tree is built from
    Objects, lists ([]any) and scalar leaves.
  - Status: collecting or ready.
  - Session: a document plus status, kept by an optional store.
  - DocumentDiff: the top-level keys that changed between two documents.
*/
package domain
