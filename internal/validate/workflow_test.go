package validate_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/hmdgt/boletim/internal/model"
	"github.com/hmdgt/boletim/internal/remote"
	"github.com/hmdgt/boletim/internal/validate"
	"github.com/hmdgt/boletim/tests/testutil"
)

const testRepo = "Hmdgt/Tol_v2"

func newWorkflow(t *testing.T) (*testutil.FakeContents, *validate.Workflow) {
	t.Helper()
	fc, srv := testutil.NewContentsServer(t, testRepo)
	client := remote.NewClient(srv.URL, testRepo, "main", "tok")
	return fc, validate.NewWorkflow(client)
}

func TestListPendingGroupsByImage(t *testing.T) {
	fc, wf := newWorkflow(t)

	fc.SeedJSON(t, model.GameTotoloto.BetFile(), []model.BetRecord{
		{HashImagem: "h1", ImagemOrigem: "foto_1.png", Confirmado: false},
		{HashImagem: "h2", ImagemOrigem: "foto_1.png", Confirmado: true},
	})
	fc.SeedJSON(t, model.GameEuromilhoes.BetFile(), []model.BetRecord{
		{HashImagem: "h3", ImagemOrigem: "foto_1.png", Confirmado: false},
		{HashImagem: "h4", ImagemOrigem: "foto_2.png", Confirmado: false},
	})

	pending := wf.ListPending(context.Background())
	require.Len(t, pending, 2)
	require.Len(t, pending["foto_1.png"], 2)
	require.Len(t, pending["foto_2.png"], 1)

	for _, rec := range pending["foto_1.png"] {
		if rec.Confirmado {
			t.Errorf("confirmed record %s listed as pending", rec.HashImagem)
		}
	}

	// Records are tagged with the file they came from.
	if pending["foto_2.png"][0].TipoFicheiro != model.GameEuromilhoes {
		t.Errorf("tipo_ficheiro = %q", pending["foto_2.png"][0].TipoFicheiro)
	}
}

func TestListPendingToleratesMissingFiles(t *testing.T) {
	fc, wf := newWorkflow(t)

	// Only one of the four game files exists.
	fc.SeedJSON(t, model.GameEurodreams.BetFile(), []model.BetRecord{
		{HashImagem: "h1", ImagemOrigem: "foto_9.png"},
	})

	pending := wf.ListPending(context.Background())
	require.Len(t, pending, 1)
	require.Len(t, pending["foto_9.png"], 1)
}

func TestConfirmStampsAndWritesBack(t *testing.T) {
	fc, wf := newWorkflow(t)

	fc.SeedJSON(t, model.GameTotoloto.BetFile(), []model.BetRecord{
		{
			HashImagem:   "h1",
			ImagemOrigem: "foto_1.png",
			Apostas:      []model.Entry{{Numeros: []string{"3", "15", "22", "40", "49"}}},
		},
		{HashImagem: "h2", ImagemOrigem: "foto_2.png"},
	})

	edited := []model.BetRecord{
		{
			HashImagem:   "h1",
			TipoFicheiro: model.GameTotoloto,
			ImagemOrigem: "foto_1.png",
			Apostas:      []model.Entry{{Numeros: []string{"03", "15", "22", "40", "49"}}},
		},
	}

	err := wf.Confirm(context.Background(), "foto_1.png", edited)
	require.NoError(t, err)

	var stored []model.BetRecord
	fc.DecodeJSON(t, model.GameTotoloto.BetFile(), &stored)
	require.Len(t, stored, 2)

	got := stored[0]
	if !got.Confirmado {
		t.Error("record not marked confirmado")
	}
	if got.ValidadoPor != "humano" {
		t.Errorf("validado_por = %q", got.ValidadoPor)
	}
	if _, err := time.Parse(time.RFC3339, got.DataValidacao); err != nil {
		t.Errorf("data_validacao not RFC3339: %q", got.DataValidacao)
	}
	if got.TipoFicheiro != "" {
		t.Errorf("tipo_ficheiro leaked into stored record: %q", got.TipoFicheiro)
	}
	require.Equal(t, []string{"03", "15", "22", "40", "49"}, got.Apostas[0].Numeros)

	// The untouched record keeps its state.
	if stored[1].Confirmado {
		t.Error("unrelated record was confirmed")
	}
}

func TestConfirmDropsEditsForVanishedRecords(t *testing.T) {
	fc, wf := newWorkflow(t)

	fc.SeedJSON(t, model.GameTotoloto.BetFile(), []model.BetRecord{
		{HashImagem: "h1", ImagemOrigem: "foto_1.png"},
	})

	edited := []model.BetRecord{
		{HashImagem: "h1", TipoFicheiro: model.GameTotoloto, ImagemOrigem: "foto_1.png"},
		{HashImagem: "gone", TipoFicheiro: model.GameTotoloto, ImagemOrigem: "foto_1.png"},
	}

	err := wf.Confirm(context.Background(), "foto_1.png", edited)
	require.NoError(t, err)

	var stored []model.BetRecord
	fc.DecodeJSON(t, model.GameTotoloto.BetFile(), &stored)
	require.Len(t, stored, 1)
	if !stored[0].Confirmado {
		t.Error("surviving record not confirmed")
	}
}

func TestConfirmAbortsOnWriteFailure(t *testing.T) {
	fc, wf := newWorkflow(t)

	fc.SeedJSON(t, model.GameTotoloto.BetFile(), []model.BetRecord{
		{HashImagem: "h1", ImagemOrigem: "foto_1.png"},
	})
	fc.WriteStatus = 409

	edited := []model.BetRecord{
		{HashImagem: "h1", TipoFicheiro: model.GameTotoloto, ImagemOrigem: "foto_1.png"},
	}

	err := wf.Confirm(context.Background(), "foto_1.png", edited)
	if err == nil {
		t.Fatal("expected error from failed write")
	}

	var stored []model.BetRecord
	fc.DecodeJSON(t, model.GameTotoloto.BetFile(), &stored)
	if stored[0].Confirmado {
		t.Error("record confirmed despite failed write")
	}
}

func TestPadPick(t *testing.T) {
	cases := map[string]string{
		"":    "",
		"3":   "03",
		"15":  "15",
		"100": "100",
	}
	for in, want := range cases {
		if got := validate.PadPick(in); got != want {
			t.Errorf("PadPick(%q) = %q, want %q", in, got, want)
		}
	}
}
