// Package contractrender implements the trade engine's canonical-document
// renderer: it renders a canonical term document and persists a PDF
// reference. No object-storage or PDF-generation SDK appears anywhere in
// the example pack, so this writes the canonical JSON bytes to a local file
// named after the trade id, using only the standard library — see DESIGN.md for the
// stdlib-fallback justification.
package contractrender

import (
	"context"
	"os"
	"path/filepath"

	"github.com/rnrl/tradecore/internal/trade/domain"
)

type LocalRenderer struct {
	baseDir string
}

func NewLocalRenderer(baseDir string) *LocalRenderer {
	return &LocalRenderer{baseDir: baseDir}
}

func (r *LocalRenderer) Render(ctx context.Context, t *domain.Trade) (string, error) {
	if err := os.MkdirAll(r.baseDir, 0o755); err != nil {
		return "", err
	}
	bytes, err := domain.CanonicalBytes(t)
	if err != nil {
		return "", err
	}
	ref := filepath.Join(r.baseDir, t.TradeID+".json")
	if err := os.WriteFile(ref, bytes, 0o644); err != nil {
		return "", err
	}
	return ref, nil
}
