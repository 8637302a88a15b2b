package navigation

import (
	"fmt"
	"strconv"
	"strings"
)

// Phrasebook holds the instruction texts for one language.
// The caution templates take the obstacle label and, for CautionAt, the
// formatted distance.
type Phrasebook struct {
	Language string

	GoStraight string
	Crosswalk  string
	GoRight    string
	GoLeft     string
	Stop       string

	CautionAt    string // label, meters
	CautionClose string // label
	Caution      string // label

	// DecimalSeparator replaces "." in formatted distances.
	DecimalSeparator string
}

// English is the default phrasebook.
var English = Phrasebook{
	Language:         "en",
	GoStraight:       "go straight",
	Crosswalk:        "crosswalk ahead, proceed to cross",
	GoRight:          "go right",
	GoLeft:           "go left",
	Stop:             "stop, obstacles around",
	CautionAt:        "caution %s ahead at %s meters",
	CautionClose:     "caution %s ahead, very close",
	Caution:          "caution %s ahead",
	DecimalSeparator: ".",
}

// Spanish phrasing.
var Spanish = Phrasebook{
	Language:         "es",
	GoStraight:       "Sigue derecho",
	Crosswalk:        "Hay un paso de cebra al frente. Avanza para cruzar",
	GoRight:          "Sigue por la derecha",
	GoLeft:           "Sigue por la izquierda",
	Stop:             "Alto, hay obstáculos alrededor",
	CautionAt:        "Cuidado %s al frente a %s metros",
	CautionClose:     "Cuidado %s al frente, muy cerca",
	Caution:          "Cuidado %s al frente",
	DecimalSeparator: ",",
}

var phrasebooks = map[string]Phrasebook{
	English.Language: English,
	Spanish.Language: Spanish,
}

// PhrasebookFor returns the phrasebook for a language code such as "en"
// or "es-MX". Only the primary subtag is considered.
func PhrasebookFor(lang string) (Phrasebook, error) {
	primary := strings.ToLower(strings.TrimSpace(lang))
	if i := strings.IndexAny(primary, "-_"); i >= 0 {
		primary = primary[:i]
	}
	if primary == "" {
		return English, nil
	}
	p, ok := phrasebooks[primary]
	if !ok {
		return Phrasebook{}, fmt.Errorf("%w: %q", ErrUnknownLanguage, lang)
	}
	return p, nil
}

// meters formats a distance with one decimal place.
func (p Phrasebook) meters(d float64) string {
	s := strconv.FormatFloat(d, 'f', 1, 64)
	if p.DecimalSeparator != "" && p.DecimalSeparator != "." {
		s = strings.Replace(s, ".", p.DecimalSeparator, 1)
	}
	return s
}
