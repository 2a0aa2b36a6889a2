/*
Package vibecam builds photo prompts through conversation and develops the
result into a film-style print.

A photo is described by a document, an ordered JSON object with fixed
top-level sections (story, scene, subjects, environment, camera, ...). Each
chat turn asks a language model for a patch, a flat object whose keys are
dotted paths such as "subjects[0].name", and folds it into the document. When
the model answers with SCHEMA_READY the document is ready to generate.

Generation renders a prompt from the document and a camera preset, asks the
image model for a picture, downloads it with retries, burns an orange date
stamp into the corner and returns it as an inline JPEG.

# Usage

	completer, _ := gemini.New(ctx, gemini.Config{APIKey: key})
	eng := vibecam.New(completer, completer)

	doc := eng.Init()
	resp, err := eng.Chat(ctx, vibecam.ChatRequest{Message: "a rainy night in Tokyo", Schema: doc})
	if err != nil {
		log.Fatal(err)
	}
	if resp.IsReady {
		photo, err := eng.Generate(ctx, vibecam.GenerateRequest{Schema: resp.Schema})
		...
	}

The engine keeps no state between calls. Servers that want sessions pair it
with pkg/session and a ports.SessionStore.
*/
package vibecam
