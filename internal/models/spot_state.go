package models

import "time"

// SpotState is the last snapshot stored for one parking spot.
type SpotState struct {
	ID         string    `json:"id"`
	Status     string    `json:"status"`                    // LIVRE | OCUPADA | MOVIMENTACAO
	DistanceCm *int      `json:"distancia_cm,omitempty"`    // cm, 0 never stored by the node
	NoiseRaw   *int      `json:"nivel_ruido_raw,omitempty"` // raw ADC count
	UpdatedAt  time.Time `json:"ultima_atualizacao"`
}

// SpotSummary is the dashboard view of a spot.
type SpotSummary struct {
	ID     string `json:"id"`
	Status string `json:"status"`
}
