package parking_spot

// Default MQTT topics. Every spot publishes to the same three topics and is
// told apart by the id field of the record.
const (
	TopicDistance = "garagem/vagas/distancia"
	TopicNoise    = "garagem/vagas/ruido"
	TopicStatus   = "garagem/vagas/status"
	TopicWildcard = "garagem/vagas/#"
)

// Topic suffixes used by subscribers to route records.
const (
	SuffixDistance = "/distancia"
	SuffixNoise    = "/ruido"
	SuffixStatus   = "/status"
)

// DistanceRecord is the periodic distance telemetry record.
type DistanceRecord struct {
	ID         string `json:"id"`
	DistanceCm int    `json:"distancia_cm"`
}

// NoiseRecord is the periodic raw sound-level telemetry record.
type NoiseRecord struct {
	ID       string `json:"id"`
	NoiseRaw int    `json:"nivel_ruido_raw"`
}

// StatusRecord is published only when the classified status changes.
type StatusRecord struct {
	ID     string `json:"id"`
	Status string `json:"status"` // LIVRE | OCUPADA | MOVIMENTACAO
}

// InboundRecord is the union of the three records as seen by a subscriber.
// Pointer fields distinguish "absent" from zero.
type InboundRecord struct {
	ID         string  `json:"id"`
	DistanceCm *int    `json:"distancia_cm,omitempty"`
	NoiseRaw   *int    `json:"nivel_ruido_raw,omitempty"`
	Status     *string `json:"status,omitempty"`
}
