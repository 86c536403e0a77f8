package model

// GameType identifies one of the fixed per-game bet files under apostas/.
type GameType string

const (
	GameEuromilhoes GameType = "euromilhoes"
	GameTotoloto    GameType = "totoloto"
	GameEurodreams  GameType = "eurodreams"
	GameMilhao      GameType = "milhao"
)

// GameTypes lists every bet file processed by the validation workflow,
// in the order they are read.
var GameTypes = []GameType{
	GameEuromilhoes,
	GameTotoloto,
	GameEurodreams,
	GameMilhao,
}

// BetFile returns the remote path of the bet file for this game type.
func (g GameType) BetFile() string {
	return "apostas/" + string(g) + ".json"
}

// Entry is a single bet line on a boletim. Exactly one of the two shapes
// applies per game type: number/star picks, or the milhão code.
type Entry struct {
	Numeros       []string `json:"numeros,omitempty"`
	Estrelas      []string `json:"estrelas,omitempty"`
	NumeroDaSorte string   `json:"numero_da_sorte,omitempty"`
	Codigo        string   `json:"codigo,omitempty"`
}

// BetRecord is one OCR-extracted bet from a photographed boletim.
// Records are created unconfirmed by the upstream OCR pipeline and
// mutated exactly once by the validation workflow; they are never
// deleted here.
type BetRecord struct {
	// HashImagem uniquely identifies the record within its game file
	// and is how the validation workflow locates it for the write-back.
	HashImagem string `json:"hash_imagem"`

	// Tipo is the display name of the game as printed on the slip.
	Tipo string `json:"tipo,omitempty"`

	// TipoFicheiro is the game file this record lives in. It is not
	// stored remotely; ListPending tags it so that Confirm can route
	// edits back to the right file.
	TipoFicheiro GameType `json:"tipo_ficheiro,omitempty"`

	// ImagemOrigem is the upload filename this record was extracted from.
	ImagemOrigem string `json:"imagem_origem"`

	// Confirmado marks the record as human-validated.
	Confirmado bool `json:"confirmado"`

	ReferenciaUnica string  `json:"referencia_unica,omitempty"`
	DataSorteio     string  `json:"data_sorteio,omitempty"`
	DataAposta      string  `json:"data_aposta,omitempty"`
	Concurso        string  `json:"concurso,omitempty"`
	ValorTotal      float64 `json:"valor_total,omitempty"`

	// Apostas is the ordered sequence of bet lines on the slip.
	Apostas []Entry `json:"apostas"`

	// DataValidacao is stamped (RFC 3339) when the record is confirmed.
	DataValidacao string `json:"data_validacao,omitempty"`

	// ValidadoPor records who validated; always "humano" from this client.
	ValidadoPor string `json:"validado_por,omitempty"`
}

// UsesCode reports whether this game records bets as a single code
// rather than number/star picks.
func (g GameType) UsesCode() bool {
	return g == GameMilhao
}
