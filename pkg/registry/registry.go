package registry

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
)

func LoadRegistry(path string) (*DestinationRegistry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var reg DestinationRegistry
	if err := json.Unmarshal(data, &reg); err != nil {
		return nil, fmt.Errorf("decode registry %s: %w", path, err)
	}
	return &reg, nil
}

// Resolve returns the built-in registry when path is empty, otherwise the
// validated registry stored at path.
func Resolve(path string) (*DestinationRegistry, error) {
	if path == "" {
		return Default(), nil
	}
	reg, err := LoadRegistry(path)
	if err != nil {
		return nil, err
	}
	if err := reg.Validate(); err != nil {
		return nil, fmt.Errorf("registry %s: %w", path, err)
	}
	return reg, nil
}

// Validate rejects empty registries, blank names and duplicates.
func (r *DestinationRegistry) Validate() error {
	if len(r.Destinations) == 0 {
		return fmt.Errorf("registry contains no destinations")
	}
	countries := make(map[string]bool)
	for _, d := range r.Destinations {
		key := strings.ToLower(strings.TrimSpace(d.Country))
		if key == "" {
			return fmt.Errorf("destination missing required field: country")
		}
		if countries[key] {
			return fmt.Errorf("duplicate destination country: %s", d.Country)
		}
		countries[key] = true

		if len(d.Cities) == 0 {
			return fmt.Errorf("destination %s has no cities", d.Country)
		}
		cities := make(map[string]bool)
		for _, c := range d.Cities {
			ck := strings.ToLower(strings.TrimSpace(c))
			if ck == "" {
				return fmt.Errorf("destination %s has a blank city", d.Country)
			}
			if cities[ck] {
				return fmt.Errorf("destination %s lists %s twice", d.Country, c)
			}
			cities[ck] = true
		}
	}
	return nil
}

// Find returns the destination for country, case-insensitively.
func (r *DestinationRegistry) Find(country string) (*Destination, bool) {
	key := strings.ToLower(strings.TrimSpace(country))
	for i := range r.Destinations {
		if strings.ToLower(r.Destinations[i].Country) == key {
			return &r.Destinations[i], true
		}
	}
	return nil, false
}

// Default is the built-in Schengen destination list.
func Default() *DestinationRegistry {
	return &DestinationRegistry{
		Version: "1.0.0",
		Destinations: []Destination{
			{Country: "Austria", Flag: "🇦🇹", Cities: []string{"Vienna", "Salzburg", "Graz", "Linz", "Innsbruck"}},
			{Country: "Belgium", Flag: "🇧🇪", Cities: []string{"Brussels", "Antwerp", "Ghent", "Bruges", "Liège"}},
			{Country: "Bulgaria", Flag: "🇧🇬", Cities: []string{"Sofia", "Plovdiv", "Varna", "Burgas", "Ruse"}},
			{Country: "Croatia", Flag: "🇭🇷", Cities: []string{"Zagreb", "Split", "Dubrovnik", "Rijeka", "Osijek"}},
			{Country: "Czech Republic", Flag: "🇨🇿", Cities: []string{"Prague", "Brno", "Ostrava", "Plzeň", "Liberec"}},
			{Country: "Denmark", Flag: "🇩🇰", Cities: []string{"Copenhagen", "Aarhus", "Odense", "Aalborg", "Esbjerg"}},
			{Country: "Estonia", Flag: "🇪🇪", Cities: []string{"Tallinn", "Tartu", "Narva", "Pärnu", "Kohtla-Järve"}},
			{Country: "Finland", Flag: "🇫🇮", Cities: []string{"Helsinki", "Espoo", "Tampere", "Vantaa", "Oulu"}},
			{Country: "France", Flag: "🇫🇷", Cities: []string{"Paris", "Marseille", "Lyon", "Toulouse", "Nice"}},
			{Country: "Germany", Flag: "🇩🇪", Cities: []string{"Berlin", "Munich", "Hamburg", "Cologne", "Frankfurt"}},
			{Country: "Greece", Flag: "🇬🇷", Cities: []string{"Athens", "Thessaloniki", "Patras", "Heraklion", "Larissa"}},
			{Country: "Hungary", Flag: "🇭🇺", Cities: []string{"Budapest", "Debrecen", "Szeged", "Miskolc", "Pécs"}},
			{Country: "Iceland", Flag: "🇮🇸", Cities: []string{"Reykjavík", "Akureyri", "Reykjanesbær", "Kopavogur", "Hafnarfjordur"}},
			{Country: "Italy", Flag: "🇮🇹", Cities: []string{"Rome", "Milan", "Naples", "Turin", "Florence"}},
			{Country: "Latvia", Flag: "🇱🇻", Cities: []string{"Riga", "Jurmala", "Liepaja", "Jelgava"}},
			{Country: "Liechtenstein", Flag: "🇱🇮", Cities: []string{"Vaduz", "Balzers", "Eschen", "Schaan"}},
			{Country: "Lithuania", Flag: "🇱🇹", Cities: []string{"Vilnius", "Kaunas", "Klaipeda", "Šiauliai", "Panevėžys"}},
			{Country: "Luxembourg", Flag: "🇱🇺", Cities: []string{"Luxembourg City", "Ettelbruck", "Differdange", "Dudelange"}},
			{Country: "Malta", Flag: "🇲🇹", Cities: []string{"Valletta", "Mosta", "Mellieħa", "Sliema", "Birkirkara"}},
			{Country: "Netherlands", Flag: "🇳🇱", Cities: []string{"Amsterdam", "Rotterdam", "The Hague", "Utrecht", "Eindhoven"}},
			{Country: "Norway", Flag: "🇳🇴", Cities: []string{"Oslo", "Bergen", "Stavanger", "Trondheim", "Drammen"}},
			{Country: "Poland", Flag: "🇵🇱", Cities: []string{"Warsaw", "Kraków", "Gdańsk", "Wrocław", "Poznań"}},
			{Country: "Portugal", Flag: "🇵🇹", Cities: []string{"Lisbon", "Porto", "Braga", "Coimbra", "Aveiro"}},
			{Country: "Romania", Flag: "🇷🇴", Cities: []string{"Bucharest", "Cluj-Napoca", "Timișoara", "Iași", "Constanța"}},
			{Country: "Slovakia", Flag: "🇸🇰", Cities: []string{"Bratislava", "Košice", "Prešov", "Nitra", "Žilina"}},
			{Country: "Slovenia", Flag: "🇸🇮", Cities: []string{"Ljubljana", "Maribor", "Celje", "Kranj", "Koper"}},
			{Country: "Spain", Flag: "🇪🇸", Cities: []string{"Madrid", "Barcelona", "Valencia", "Seville", "Bilbao"}},
			{Country: "Sweden", Flag: "🇸🇪", Cities: []string{"Stockholm", "Gothenburg", "Malmö", "Uppsala", "Västerås"}},
			{Country: "Switzerland", Flag: "🇨🇭", Cities: []string{"Zurich", "Geneva", "Basel", "Bern", "Lausanne"}},
		},
	}
}
