// Package darkroom turns a generated image reference into the final print:
// it fetches the bytes, burns a film-style date stamp into the bottom-right
// corner and re-encodes the result as an inline JPEG data URI.
//
// The pipeline degrades rather than fails when the image cannot be
// downloaded: the caller receives the original reference, unstamped.
package darkroom
