// Package prdrag embeds the PRD drafting pipeline in a Go program.
//
// A Client indexes a corpus of reference passages once, then turns
// free-text client briefs into Project Requirement Documents:
// the brief is embedded, the closest passages are retrieved by exact
// L2 distance, a fixed ten-section PRD prompt is assembled and sent
// to the configured generator.
//
// # Offline
//
//	passages, _ := prdrag.DefaultCorpus()
//	client, _ := prdrag.New(ctx, passages) // hashing embedder, echo generator
//	draft, _ := client.Prompt(ctx, "Landing page for a snack brand")
//
// # OpenAI-compatible providers
//
//	client, _ := prdrag.New(ctx, passages,
//	    prdrag.WithOpenAI(prdrag.OpenAIConfig{APIKey: key}),
//	    prdrag.WithTopK(5),
//	)
//	res, _ := client.Run(ctx, brief)
//	fmt.Println(res.Text)
package prdrag
