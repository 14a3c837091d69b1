package domain

import "strings"

// Status is the lifecycle state of a lot
type Status string

const (
	StatusEnAttente Status = "en_attente"
	StatusEnCours   Status = "en_cours"
	StatusTermine   Status = "termine"
	StatusStocke    Status = "stocke"
)

// transitions lists the forward moves allowed from each state.
// stocke is terminal and only the storage operation may enter it.
var transitions = map[Status][]Status{
	StatusEnAttente: {StatusEnCours},
	StatusEnCours:   {StatusTermine},
	StatusTermine:   {StatusStocke},
	StatusStocke:    nil,
}

// legacySpellings maps the labels older clients still send
var legacySpellings = map[string]Status{
	"en attente": StatusEnAttente,
	"en cours":   StatusEnCours,
	"terminé":    StatusTermine,
	"stocké":     StatusStocke,
}

// ParseStatus parses a status label. It accepts the canonical values and the
// space/accented spellings used by the scanning stations.
func ParseStatus(raw string) (Status, bool) {
	v := strings.ToLower(strings.TrimSpace(raw))
	if s, ok := legacySpellings[v]; ok {
		return s, true
	}
	s := Status(v)
	if _, ok := transitions[s]; ok {
		return s, true
	}
	return "", false
}

// Valid reports whether s is one of the known states
func (s Status) Valid() bool {
	_, ok := transitions[s]
	return ok
}

// Next returns the states reachable from s in one step
func (s Status) Next() []Status {
	return append([]Status(nil), transitions[s]...)
}

// CanTransitionTo reports whether next is a legal forward move from s
func (s Status) CanTransitionTo(next Status) bool {
	for _, allowed := range transitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// Active reports whether lots in this state still carry a worker assignment
func (s Status) Active() bool {
	return s == StatusEnAttente || s == StatusEnCours
}

// Quality is the inspection outcome of a garment
type Quality string

const (
	QualityNonVerifie Quality = "non_verifie"
	QualityOK         Quality = "ok"
	QualityDefectueux Quality = "defectueux"
)

// ParseQuality parses a quality label, accepting "non verifie" and "non vérifié"
func ParseQuality(raw string) (Quality, bool) {
	v := strings.ToLower(strings.TrimSpace(raw))
	switch v {
	case "non_verifie", "non verifie", "non vérifié":
		return QualityNonVerifie, true
	case "ok":
		return QualityOK, true
	case "defectueux", "défectueux":
		return QualityDefectueux, true
	}
	return "", false
}

// InitialQuality is the quality a garment gets when it joins a lot in state s
func InitialQuality(s Status) Quality {
	if s == StatusTermine {
		return QualityOK
	}
	return QualityNonVerifie
}
