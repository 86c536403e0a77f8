package model

import "encoding/json"

// Notification represents a lottery result notification surfaced to the
// user. Notifications are created by the upstream result checker into the
// active list and move to the history exactly once when marked read.
type Notification struct {
	// ID is the unique identifier for this notification.
	ID string `json:"id"`

	// Jogo is the game name (e.g., "Euromilhões", "Totoloto").
	Jogo string `json:"jogo"`

	// Titulo is the headline shown in the notification list.
	Titulo string `json:"titulo"`

	// Subtitulo is the secondary line under the title.
	Subtitulo string `json:"subtitulo"`

	// Resumo is a short summary of the result.
	Resumo string `json:"resumo"`

	// Data is the draw date as written by the upstream generator.
	Data string `json:"data"`

	// Lido indicates whether the user has acknowledged this notification.
	Lido bool `json:"lido"`

	// DataLeitura is the RFC 3339 timestamp set when the notification
	// is marked read. Empty while unread.
	DataLeitura string `json:"data_leitura,omitempty"`

	// Detalhes holds the game-specific result payload. It is kept opaque
	// here and rendered as-is by the detail view.
	Detalhes json.RawMessage `json:"detalhes,omitempty"`
}
