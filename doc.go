// Package extract turns large blocks of unstructured carrier documentation
// into one validated, versioned API description by driving an external LLM
// completion service.
//
// The pipeline splits oversized input into bounded chunks at safe boundaries,
// fans out one completion call per (chunk, extraction kind) pair with bounded
// concurrency and retries, parses each free-form answer into a typed partial
// result, folds the partials into a single deduplicated record, and validates
// the record against the versioned output contract. Run metadata (model,
// sampling configuration, prompt template versions) is captured alongside the
// output so a run can be reproduced.
//
// Text extraction from source documents, code generation from the final
// record, and any CLI surface are external collaborators; the package exposes
// only the programmatic entry point:
//
//	ex := extract.New(client, extract.DefaultPrompts())
//	out, err := ex.Run(ctx, extract.NewSource(docText),
//		extract.WithModel("gemini-2.0-flash"),
//		extract.WithDeadline(5*time.Minute))
package extract
