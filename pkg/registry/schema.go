package registry

// DestinationRegistry lists the destination countries and cities offered by
// the primary-destination question.
type DestinationRegistry struct {
	Version      string        `json:"version"`
	LastUpdated  string        `json:"lastUpdated"`
	Destinations []Destination `json:"destinations"`
}

type Destination struct {
	Country string   `json:"country"`
	Flag    string   `json:"flag,omitempty"`
	Cities  []string `json:"cities"`
}

// Label is the option-group heading shown to applicants.
func (d Destination) Label() string {
	if d.Flag == "" {
		return d.Country
	}
	return d.Flag + " " + d.Country
}
