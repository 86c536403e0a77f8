package validate

import (
	"context"
	"fmt"
	"time"

	"github.com/hmdgt/boletim/internal/model"
	"github.com/hmdgt/boletim/internal/remote"
)

// Workflow implements the human-validation pass over OCR-extracted bet
// records: it lists unconfirmed records grouped by source image and
// writes back corrected, confirmed records.
type Workflow struct {
	client *remote.Client
	now    func() time.Time
}

// NewWorkflow creates a validation workflow over the given remote client.
func NewWorkflow(client *remote.Client) *Workflow {
	return &Workflow{
		client: client,
		now:    time.Now,
	}
}

// ListPending reads the four game files and returns every unconfirmed
// record, tagged with its file type and grouped by source image name.
// A file that fails to read contributes nothing; the others still list.
func (w *Workflow) ListPending(ctx context.Context) map[string][]model.BetRecord {
	pending := make(map[string][]model.BetRecord)

	for _, game := range model.GameTypes {
		var records []model.BetRecord
		if _, _, err := w.client.ReadJSON(ctx, game.BetFile(), &records); err != nil {
			continue
		}

		for _, rec := range records {
			if rec.Confirmado {
				continue
			}
			rec.TipoFicheiro = game
			pending[rec.ImagemOrigem] = append(pending[rec.ImagemOrigem], rec)
		}
	}

	return pending
}

// Confirm writes a batch of human-corrected records back to their game
// files, marking each confirmed with a validation timestamp. For every
// file touched it re-reads content and sha, replaces the matching
// records in place, and writes the whole file back with the held sha.
//
// The first failed write aborts the batch; files written earlier in the
// same batch are not rolled back, so a partial confirmation is possible
// and is surfaced only as the returned error.
func (w *Workflow) Confirm(ctx context.Context, image string, edited []model.BetRecord) error {
	byFile := make(map[model.GameType][]model.BetRecord)
	for _, rec := range edited {
		byFile[rec.TipoFicheiro] = append(byFile[rec.TipoFicheiro], rec)
	}

	stamp := w.now().UTC().Format(time.RFC3339)

	for _, game := range model.GameTypes {
		records, ok := byFile[game]
		if !ok {
			continue
		}

		path := game.BetFile()

		var full []model.BetRecord
		sha, exists, err := w.client.ReadJSON(ctx, path, &full)
		if err != nil {
			return fmt.Errorf("reading %s: %w", path, err)
		}
		if !exists {
			continue
		}

		for _, rec := range records {
			idx := indexByHash(full, rec.HashImagem)
			if idx < 0 {
				// No matching record; the edit is dropped.
				continue
			}

			rec.TipoFicheiro = "" // not stored remotely
			rec.Confirmado = true
			rec.DataValidacao = stamp
			rec.ValidadoPor = "humano"
			full[idx] = rec
		}

		err = w.client.WriteJSON(ctx, path, full, sha,
			fmt.Sprintf("Validação humana: %s", image))
		if err != nil {
			return fmt.Errorf("writing %s: %w", path, err)
		}
	}

	return nil
}

// indexByHash locates a record by its image hash, or -1 when absent.
func indexByHash(records []model.BetRecord, hash string) int {
	for i := range records {
		if records[i].HashImagem == hash {
			return i
		}
	}
	return -1
}

// PadPick left-pads a numeric pick to two digits, matching how the
// draw files store numbers ("3" becomes "03"). Values already two or
// more characters long are returned unchanged.
func PadPick(s string) string {
	if s == "" || len(s) >= 2 {
		return s
	}
	return "0" + s
}
