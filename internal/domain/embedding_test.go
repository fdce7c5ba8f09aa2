package domain

import (
	"context"
	"errors"
	"slices"
	"testing"
)

// --- Mocks ---

// echoEmbedder returns a one-element vector holding the text length and
// bills one token per byte.
type echoEmbedder struct {
	seen []string
	err  error
}

func (e *echoEmbedder) Embed(_ context.Context, text string) (EmbeddingResult, error) {
	e.seen = append(e.seen, text)
	if e.err != nil {
		return EmbeddingResult{}, e.err
	}
	return EmbeddingResult{
		Embedding:    []float32{float32(len(text))},
		PromptTokens: len(text),
		TotalTokens:  len(text),
	}, nil
}

type batchEcho struct {
	echoEmbedder
	batches [][]string
	short   bool // return one vector too few
}

func (b *batchEcho) BatchEmbed(ctx context.Context, texts []string) (BatchEmbeddingResult, error) {
	b.batches = append(b.batches, texts)
	if b.err != nil {
		return BatchEmbeddingResult{}, b.err
	}
	var out BatchEmbeddingResult
	for _, t := range texts {
		out.Append(BatchEmbeddingResult{Embeddings: [][]float32{{float32(len(t))}}, TotalTokens: len(t)})
	}
	if b.short && len(out.Embeddings) > 0 {
		out.Embeddings = out.Embeddings[:len(out.Embeddings)-1]
	}
	return out, nil
}

// --- EmbedAll ---

func TestEmbedAll_SequentialFallback(t *testing.T) {
	e := &echoEmbedder{}
	res, err := EmbedAll(context.Background(), e, []string{"a", "bbb", "cc"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !slices.Equal(e.seen, []string{"a", "bbb", "cc"}) {
		t.Errorf("texts embedded out of order: %v", e.seen)
	}
	if res.Embeddings[1][0] != 3 || res.Embeddings[2][0] != 2 {
		t.Errorf("vectors not aligned with input: %v", res.Embeddings)
	}
	if res.PromptTokens != 6 || res.TotalTokens != 6 {
		t.Errorf("tokens = %d/%d, want 6/6", res.PromptTokens, res.TotalTokens)
	}
}

func TestEmbedAll_PrefersBatch(t *testing.T) {
	b := &batchEcho{}
	res, err := EmbedAll(context.Background(), b, []string{"x", "yy"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(b.batches) != 1 || len(b.seen) != 0 {
		t.Errorf("expected one batch call and no single calls, got %d/%d", len(b.batches), len(b.seen))
	}
	if res.TotalTokens != 3 {
		t.Errorf("TotalTokens = %d, want 3", res.TotalTokens)
	}
}

func TestEmbedAll_Errors(t *testing.T) {
	boom := errors.New("provider down")

	t.Run("single call fails", func(t *testing.T) {
		_, err := EmbedAll(context.Background(), &echoEmbedder{err: boom}, []string{"a"})
		if !errors.Is(err, boom) {
			t.Errorf("expected wrapped provider error, got %v", err)
		}
	})

	t.Run("batch call fails", func(t *testing.T) {
		b := &batchEcho{}
		b.err = boom
		_, err := EmbedAll(context.Background(), b, []string{"a"})
		if !errors.Is(err, boom) {
			t.Errorf("expected wrapped provider error, got %v", err)
		}
	})

	t.Run("vector count mismatch", func(t *testing.T) {
		_, err := EmbedAll(context.Background(), &batchEcho{short: true}, []string{"a", "b"})
		if !errors.Is(err, ErrEmbeddingProviderError) {
			t.Errorf("expected ErrEmbeddingProviderError, got %v", err)
		}
	})
}

func TestEmbedAll_Empty(t *testing.T) {
	res, err := EmbedAll(context.Background(), &echoEmbedder{}, nil)
	if err != nil || len(res.Embeddings) != 0 {
		t.Fatalf("expected empty result, got %v, %v", res, err)
	}
}

// --- WithPrefix ---

func TestWithPrefix_Empty(t *testing.T) {
	inner := &echoEmbedder{}
	if got := WithPrefix(inner, ""); got != Embedder(inner) {
		t.Error("empty prefix should return the inner embedder")
	}
}

func TestWithPrefix_Embed(t *testing.T) {
	inner := &echoEmbedder{}
	res, err := WithPrefix(inner, "query: ").Embed(context.Background(), "toko roti")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if inner.seen[0] != "query: toko roti" {
		t.Errorf("inner saw %q", inner.seen[0])
	}
	if res.Embedding[0] != float32(len("query: toko roti")) {
		t.Errorf("unexpected vector %v", res.Embedding)
	}
}

func TestWithPrefix_BatchEmbed(t *testing.T) {
	ctx := context.Background()

	t.Run("batch inner", func(t *testing.T) {
		inner := &batchEcho{}
		e := WithPrefix(inner, "passage: ")
		if _, err := EmbedAll(ctx, e, []string{"a", "b"}); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !slices.Equal(inner.batches[0], []string{"passage: a", "passage: b"}) {
			t.Errorf("batch = %v", inner.batches[0])
		}
	})

	t.Run("single inner", func(t *testing.T) {
		inner := &echoEmbedder{}
		if _, err := EmbedAll(ctx, WithPrefix(inner, "q: "), []string{"a", "b"}); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !slices.Equal(inner.seen, []string{"q: a", "q: b"}) {
			t.Errorf("seen = %v", inner.seen)
		}
	})

	t.Run("error wrapped", func(t *testing.T) {
		boom := errors.New("rate limited")
		_, err := WithPrefix(&echoEmbedder{err: boom}, "x: ").Embed(ctx, "a")
		if !errors.Is(err, boom) {
			t.Errorf("expected wrapped error, got %v", err)
		}
	})
}
