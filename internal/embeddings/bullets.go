package embeddings

import (
	"context"
	"fmt"

	"github.com/jonathan/resume-tailor/internal/types"
)

// EmbedBullets embeds every bullet of the master resume
func EmbedBullets(ctx context.Context, e Embedder, resume *types.MasterResume) (*types.BulletEmbeddings, error) {
	if resume == nil {
		return nil, fmt.Errorf("master resume is required")
	}

	texts := make([]string, len(resume.Bullets))
	for i, b := range resume.Bullets {
		texts[i] = b.Text
	}

	vectors, err := e.Embed(ctx, texts)
	if err != nil {
		return nil, fmt.Errorf("failed to embed bullets: %w", err)
	}
	if len(vectors) != len(texts) {
		return nil, fmt.Errorf("embedder returned %d vectors for %d bullets", len(vectors), len(texts))
	}

	out := &types.BulletEmbeddings{
		Model:   e.Model(),
		Bullets: make([]types.BulletVector, 0, len(vectors)),
	}
	for i, b := range resume.Bullets {
		out.Bullets = append(out.Bullets, types.BulletVector{BulletID: b.BulletID, Vector: vectors[i]})
		if out.Dims == 0 {
			out.Dims = len(vectors[i])
		}
	}
	return out, nil
}
