package masterdata

import "strings"

// StationIndex maps between EVA numbers and station names. Lookups by name
// also work on a normalized form so "München Hbf" and "muenchen-hbf" find
// the same station.
type StationIndex struct {
	evaToName  map[int]string
	nameToEVA  map[string]int
	normalized map[string]int
}

func NewStationIndex() *StationIndex {
	return &StationIndex{
		evaToName:  map[int]string{},
		nameToEVA:  map[string]int{},
		normalized: map[string]int{},
	}
}

// Add registers a station. Later additions win on name collisions.
func (i *StationIndex) Add(eva int, name string) {
	i.evaToName[eva] = name
	i.nameToEVA[name] = eva
	i.normalized[normalizeName(name)] = eva
}

// ByEVA returns the name registered for an EVA number.
func (i *StationIndex) ByEVA(eva int) (string, bool) {
	name, ok := i.evaToName[eva]
	return name, ok
}

// ByName returns the EVA number for an exact station name.
func (i *StationIndex) ByName(name string) (int, bool) {
	eva, ok := i.nameToEVA[name]
	return eva, ok
}

// ByNormalizedName looks a station up ignoring case, spaces, hyphens and
// umlaut spelling.
func (i *StationIndex) ByNormalizedName(name string) (int, bool) {
	eva, ok := i.normalized[normalizeName(name)]
	return eva, ok
}

func (i *StationIndex) Len() int { return len(i.evaToName) }

var nameNormalizer = strings.NewReplacer(
	" ", "",
	"-", "",
	"ü", "ue",
	"ö", "oe",
	"ä", "ae",
	"ß", "ss",
)

func normalizeName(name string) string {
	return nameNormalizer.Replace(strings.ToLower(name))
}
