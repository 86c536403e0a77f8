package validateform

import (
	"fmt"
	"strconv"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"github.com/hmdgt/boletim/internal/model"
	"github.com/hmdgt/boletim/internal/theme"
	"github.com/hmdgt/boletim/internal/validate"
)

// SubmittedMsg carries the corrected records the user confirmed.
type SubmittedMsg struct {
	Image   string
	Records []model.BetRecord
}

// CancelMsg is dispatched when the user aborts the form.
type CancelMsg struct{}

// entryBindings holds the editable fields of one bet entry on the heap
// so that huh's Value() pointers remain valid across Bubble Tea model
// copies.
type entryBindings struct {
	numeros  string
	estrelas string
	sorte    string
	codigo   string
}

// recordBindings groups the editable fields of one bet record: the
// OCR-extracted metadata plus the entry bindings.
type recordBindings struct {
	ref         string
	concurso    string
	dataSorteio string
	dataAposta  string
	valor       string

	entries []entryBindings
}

// Model is the Bubble Tea model for the human validation form. It edits
// every unconfirmed record extracted from a single source image.
type Model struct {
	form    *huh.Form
	image   string
	records []model.BetRecord
	rb      []*recordBindings
	refs    []string
	width   int
	height  int
}

// New creates an empty validation form model.
func New(width, height int) Model {
	return Model{
		width:  width,
		height: height,
	}
}

// Start initializes the form for the records of one image group.
func (m *Model) Start(image string, records []model.BetRecord) tea.Cmd {
	m.image = image
	m.records = records

	m.rb = make([]*recordBindings, len(records))
	for i, rec := range records {
		rb := &recordBindings{
			ref:         rec.ReferenciaUnica,
			concurso:    rec.Concurso,
			dataSorteio: rec.DataSorteio,
			dataAposta:  rec.DataAposta,
			entries:     make([]entryBindings, len(rec.Apostas)),
		}
		if rec.ValorTotal > 0 {
			rb.valor = strconv.FormatFloat(rec.ValorTotal, 'f', -1, 64)
		}
		for j, e := range rec.Apostas {
			rb.entries[j] = entryBindings{
				numeros:  strings.Join(e.Numeros, " "),
				estrelas: strings.Join(e.Estrelas, " "),
				sorte:    e.NumeroDaSorte,
				codigo:   e.Codigo,
			}
		}
		m.rb[i] = rb
	}

	m.form = m.buildForm()
	return m.form.Init()
}

// SetReferences sets the URLs of the preprocessed boletim images shown
// alongside the form for visual comparison.
func (m *Model) SetReferences(urls []string) {
	m.refs = urls
}

// Update handles messages for the validation form.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	if m.form == nil {
		return m, nil
	}

	mdl, cmd := m.form.Update(msg)
	if f, ok := mdl.(*huh.Form); ok {
		m.form = f
	}

	if m.form.State == huh.StateCompleted {
		return m, m.handleSubmit()
	}
	if m.form.State == huh.StateAborted {
		return m, func() tea.Msg { return CancelMsg{} }
	}

	return m, cmd
}

// View renders the validation form.
func (m Model) View() string {
	if m.form == nil {
		return ""
	}

	titleStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(theme.ColorWhite).
		MarginBottom(1)

	content := titleStyle.Render("Validar " + m.image)
	if len(m.refs) > 0 {
		refStyle := lipgloss.NewStyle().Foreground(theme.ColorGray)
		content += "\n" + refStyle.Render("Imagens de referência:")
		for _, u := range m.refs {
			content += "\n" + refStyle.Render("  "+u)
		}
		content += "\n"
	}
	content += "\n" + m.form.View()

	return lipgloss.NewStyle().
		Padding(1, 2).
		Render(content)
}

// SetSize updates the form dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
}

func (m *Model) buildForm() *huh.Form {
	var groups []*huh.Group

	for i := range m.records {
		rec := m.records[i]
		rb := m.rb[i]

		var fields []huh.Field
		fields = append(fields, huh.NewNote().
			Title(recordTitle(rec)))

		fields = append(fields,
			huh.NewInput().
				Title("Referência").
				Value(&rb.ref),
			huh.NewInput().
				Title("Concurso").
				Placeholder("ex: 069/2026").
				Value(&rb.concurso),
			huh.NewInput().
				Title("Data do sorteio").
				Placeholder("ex: 2026-08-28").
				Value(&rb.dataSorteio),
			huh.NewInput().
				Title("Data da aposta").
				Placeholder("ex: 2026-08-26").
				Value(&rb.dataAposta),
			huh.NewInput().
				Title("Valor total (€)").
				Placeholder("ex: 7.50").
				Value(&rb.valor).
				Validate(validateAmount),
		)

		for j := range rb.entries {
			eb := &rb.entries[j]
			label := fmt.Sprintf("Aposta %d", j+1)

			if rec.TipoFicheiro.UsesCode() {
				fields = append(fields, huh.NewInput().
					Title(label+" · Código").
					Placeholder("ex: ABC12345").
					Value(&eb.codigo))
				continue
			}

			fields = append(fields, huh.NewInput().
				Title(label+" · Números").
				Placeholder("ex: 03 15 22 40 49").
				Value(&eb.numeros).
				Validate(validatePicks))

			if rec.TipoFicheiro == model.GameEuromilhoes {
				fields = append(fields, huh.NewInput().
					Title(label+" · Estrelas").
					Placeholder("ex: 02 09").
					Value(&eb.estrelas).
					Validate(validatePicks))
			}

			if rec.TipoFicheiro == model.GameEurodreams {
				fields = append(fields, huh.NewInput().
					Title(label+" · Nº da sorte").
					Placeholder("ex: 4").
					Value(&eb.sorte).
					Validate(validateOptionalPick))
			}
		}

		groups = append(groups, huh.NewGroup(fields...))
	}

	return huh.NewForm(groups...).
		WithWidth(m.formWidth()).
		WithHeight(m.formHeight())
}

func (m Model) handleSubmit() tea.Cmd {
	image := m.image
	out := make([]model.BetRecord, len(m.records))

	for i, rec := range m.records {
		rb := m.rb[i]

		rec.ReferenciaUnica = strings.TrimSpace(rb.ref)
		rec.Concurso = strings.TrimSpace(rb.concurso)
		rec.DataSorteio = strings.TrimSpace(rb.dataSorteio)
		rec.DataAposta = strings.TrimSpace(rb.dataAposta)
		if v, ok := parseAmount(rb.valor); ok {
			rec.ValorTotal = v
		}

		for j := range rec.Apostas {
			eb := rb.entries[j]
			if rec.TipoFicheiro.UsesCode() {
				rec.Apostas[j].Codigo = strings.TrimSpace(eb.codigo)
				continue
			}
			rec.Apostas[j].Numeros = splitPicks(eb.numeros)
			rec.Apostas[j].Estrelas = splitPicks(eb.estrelas)
			rec.Apostas[j].NumeroDaSorte = padOne(eb.sorte)
		}
		out[i] = rec
	}

	return func() tea.Msg {
		return SubmittedMsg{Image: image, Records: out}
	}
}

func (m Model) formWidth() int {
	w := m.width - 4
	if w < 40 {
		w = 40
	}
	if w > 100 {
		w = 100
	}
	return w
}

func (m Model) formHeight() int {
	h := m.height - 4
	if h < 10 {
		h = 10
	}
	return h
}

// recordTitle builds the form group header for one record.
func recordTitle(rec model.BetRecord) string {
	return strings.ToUpper(string(rec.TipoFicheiro))
}

// parseAmount parses a euro amount typed with either a dot or a comma
// decimal separator. Empty or unparsable input reports ok=false and the
// stored value stays untouched.
func parseAmount(s string) (float64, bool) {
	s = strings.TrimSpace(strings.ReplaceAll(s, ",", "."))
	if s == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

func validateAmount(s string) error {
	if _, ok := parseAmount(s); !ok && strings.TrimSpace(s) != "" {
		return fmt.Errorf("valor inválido, ex: 7.50")
	}
	return nil
}

// splitPicks parses a space or comma separated pick list, left-padding
// single digit numbers to match the stored two-digit format.
func splitPicks(s string) []string {
	fields := strings.FieldsFunc(s, func(r rune) bool {
		return r == ' ' || r == ','
	})
	if len(fields) == 0 {
		return nil
	}
	out := make([]string, len(fields))
	for i, f := range fields {
		out[i] = validate.PadPick(f)
	}
	return out
}

// padOne pads a single optional pick value.
func padOne(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return ""
	}
	return validate.PadPick(s)
}

func validatePicks(s string) error {
	for _, f := range splitPicksRaw(s) {
		for _, r := range f {
			if r < '0' || r > '9' {
				return fmt.Errorf("apenas números separados por espaços")
			}
		}
	}
	return nil
}

func validateOptionalPick(s string) error {
	s = strings.TrimSpace(s)
	for _, r := range s {
		if r < '0' || r > '9' {
			return fmt.Errorf("apenas dígitos")
		}
	}
	return nil
}

func splitPicksRaw(s string) []string {
	return strings.FieldsFunc(s, func(r rune) bool {
		return r == ' ' || r == ','
	})
}
