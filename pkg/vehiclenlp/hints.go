// Package vehiclenlp extracts structured shopping hints (makes, models,
// years, price bounds, body styles, fuel types) from free-text marketplace
// queries using regex patterns and a vehicle lookup table. No external
// dependencies.
package vehiclenlp

import (
	"fmt"
	"regexp"
	"slices"
	"strconv"
	"strings"
)

// Hints is what Parse could recognise in a query. Zero values mean "not
// mentioned".
type Hints struct {
	Makes     []string // canonical make names, e.g. "Mercedes-Benz"
	Models    []string // "Make Model", e.g. "Tesla Model 3"
	Years     []int
	MinPrice  int
	MaxPrice  int
	BodyTypes []string // Sedan, SUV, Coupe, Hatchback, Truck
	FuelTypes []string // Petrol, Diesel, Electric, Hybrid
}

// makeAliases maps abbreviations/nicknames to canonical make names.
var makeAliases = map[string]string{
	"tesla":         "Tesla",
	"bmw":           "BMW",
	"beemer":        "BMW",
	"porsche":       "Porsche",
	"merc":          "Mercedes-Benz",
	"benz":          "Mercedes-Benz",
	"mercedes":      "Mercedes-Benz",
	"mercedes-benz": "Mercedes-Benz",
	"amg":           "Mercedes-Benz",
	"audi":          "Audi",
	"ford":          "Ford",
	"toyota":        "Toyota",
	"rivian":        "Rivian",
	"lucid":         "Lucid",
	"polestar":      "Polestar",
	"chevy":         "Chevrolet",
	"chevrolet":     "Chevrolet",
	"vw":            "Volkswagen",
	"volkswagen":    "Volkswagen",
	"honda":         "Honda",
	"hyundai":       "Hyundai",
	"kia":           "Kia",
	"lexus":         "Lexus",
	"volvo":         "Volvo",
	"land rover":    "Land Rover",
	"jaguar":        "Jaguar",
}

// makeModels maps canonical make to models distinctive enough to identify it.
var makeModels = map[string][]string{
	"Tesla":         {"Model 3", "Model Y", "Model S", "Model X", "Cybertruck"},
	"BMW":           {"M3", "M4", "M5", "X5", "X7", "i4", "iX", "i7"},
	"Porsche":       {"911", "GT3", "Cayenne", "Macan", "Taycan", "Panamera"},
	"Mercedes-Benz": {"S63", "S-Class", "E-Class", "C-Class", "G-Class", "EQS", "AMG GT"},
	"Audi":          {"e-tron GT", "e-tron", "RS6", "RS7", "Q8", "R8"},
	"Ford":          {"F-150", "Raptor", "Mustang", "Bronco", "Lightning"},
	"Toyota":        {"Camry", "Corolla", "RAV4", "Tacoma", "Tundra", "Prius", "Supra"},
	"Rivian":        {"R1T", "R1S"},
	"Chevrolet":     {"Corvette", "Silverado", "Tahoe", "Bolt EV"},
	"Honda":         {"Civic", "Accord", "CR-V"},
	"Hyundai":       {"Ioniq 5", "Ioniq 6"},
	"Kia":           {"EV6", "EV9", "Telluride"},
}

var bodyKeywords = map[string]string{
	"sedan":     "Sedan",
	"saloon":    "Sedan",
	"suv":       "SUV",
	"crossover": "SUV",
	"coupe":     "Coupe",
	"hatchback": "Hatchback",
	"hatch":     "Hatchback",
	"truck":     "Truck",
	"pickup":    "Truck",
}

var fuelKeywords = map[string]string{
	"electric": "Electric",
	"ev":       "Electric",
	"evs":      "Electric",
	"battery":  "Electric",
	"hybrid":   "Hybrid",
	"phev":     "Hybrid",
	"diesel":   "Diesel",
	"petrol":   "Petrol",
	"gas":      "Petrol",
	"gasoline": "Petrol",
}

var (
	makeRe *regexp.Regexp

	// priceRe matches a bound word followed by an amount: "under $50k",
	// "at least 100,000".
	priceRe = regexp.MustCompile(`(?i)\b(under|below|less than|cheaper than|up to|max(?:imum)?|budget(?: of)?|over|above|more than|at least|min(?:imum)?)\s+\$?\s*(\d[\d,]*(?:\.\d+)?)\s*(k|m)?\b`)

	yearRe = regexp.MustCompile(`\b((?:19|20)\d{2})\b`)
)

var upperBounds = map[string]bool{
	"under": true, "below": true, "less than": true, "cheaper than": true,
	"up to": true, "max": true, "maximum": true, "budget": true, "budget of": true,
}

func init() {
	names := make([]string, 0, len(makeAliases))
	for alias := range makeAliases {
		names = append(names, regexp.QuoteMeta(alias))
	}
	// Longest first so "mercedes-benz" wins over "mercedes".
	slices.SortFunc(names, func(a, b string) int {
		if d := len(b) - len(a); d != 0 {
			return d
		}
		return strings.Compare(a, b)
	})
	makeRe = regexp.MustCompile(`(?i)\b(` + strings.Join(names, "|") + `)(?:'s)?\b`)
}

// Parse extracts hints from a free-text query.
func Parse(query string) Hints {
	var h Hints
	if strings.TrimSpace(query) == "" {
		return h
	}

	rest := query
	for _, m := range priceRe.FindAllStringSubmatchIndex(query, -1) {
		word := strings.ToLower(query[m[2]:m[3]])
		var unit string
		if m[6] >= 0 {
			unit = strings.ToLower(query[m[6]:m[7]])
		}
		amount, ok := parseAmount(query[m[4]:m[5]], unit)
		if !ok {
			continue
		}
		if upperBounds[word] {
			h.MaxPrice = amount
		} else {
			h.MinPrice = amount
		}
		// Blank out the match so amounts are not read as years.
		rest = rest[:m[0]] + strings.Repeat(" ", m[1]-m[0]) + rest[m[1]:]
	}

	for _, m := range yearRe.FindAllStringSubmatch(rest, -1) {
		y, _ := strconv.Atoi(m[1])
		if !slices.Contains(h.Years, y) {
			h.Years = append(h.Years, y)
		}
	}

	for _, m := range makeRe.FindAllStringSubmatch(rest, -1) {
		h.addMake(makeAliases[strings.ToLower(m[1])])
	}

	lower := strings.ToLower(rest)
	for _, mk := range sortedKeys(makeModels) {
		for _, model := range makeModels[mk] {
			if containsWord(lower, strings.ToLower(model)) {
				full := mk + " " + model
				if !slices.Contains(h.Models, full) {
					h.Models = append(h.Models, full)
				}
				h.addMake(mk)
			}
		}
	}

	for _, word := range words(lower) {
		if b, ok := bodyKeywords[word]; ok && !slices.Contains(h.BodyTypes, b) {
			h.BodyTypes = append(h.BodyTypes, b)
		}
		if f, ok := fuelKeywords[word]; ok && !slices.Contains(h.FuelTypes, f) {
			h.FuelTypes = append(h.FuelTypes, f)
		}
	}
	return h
}

func (h *Hints) addMake(mk string) {
	if mk != "" && !slices.Contains(h.Makes, mk) {
		h.Makes = append(h.Makes, mk)
	}
}

// Empty reports whether nothing was recognised.
func (h Hints) Empty() bool {
	return len(h.Makes) == 0 && len(h.Models) == 0 && len(h.Years) == 0 &&
		h.MinPrice == 0 && h.MaxPrice == 0 &&
		len(h.BodyTypes) == 0 && len(h.FuelTypes) == 0
}

// String renders the hints as a single line for inclusion in a prompt.
func (h Hints) String() string {
	var parts []string
	if len(h.Makes) > 0 {
		parts = append(parts, "brands: "+strings.Join(h.Makes, ", "))
	}
	if len(h.Models) > 0 {
		parts = append(parts, "models: "+strings.Join(h.Models, ", "))
	}
	if len(h.Years) > 0 {
		ys := make([]string, len(h.Years))
		for i, y := range h.Years {
			ys[i] = strconv.Itoa(y)
		}
		parts = append(parts, "years: "+strings.Join(ys, ", "))
	}
	if h.MinPrice > 0 {
		parts = append(parts, fmt.Sprintf("price at least $%d", h.MinPrice))
	}
	if h.MaxPrice > 0 {
		parts = append(parts, fmt.Sprintf("price at most $%d", h.MaxPrice))
	}
	if len(h.BodyTypes) > 0 {
		parts = append(parts, "body: "+strings.Join(h.BodyTypes, ", "))
	}
	if len(h.FuelTypes) > 0 {
		parts = append(parts, "fuel: "+strings.Join(h.FuelTypes, ", "))
	}
	return strings.Join(parts, "; ")
}

func parseAmount(num, unit string) (int, bool) {
	f, err := strconv.ParseFloat(strings.ReplaceAll(num, ",", ""), 64)
	if err != nil {
		return 0, false
	}
	switch unit {
	case "k":
		f *= 1_000
	case "m":
		f *= 1_000_000
	}
	return int(f), true
}

// containsWord reports whether phrase occurs in s bounded by non-word runes.
func containsWord(s, phrase string) bool {
	for i := 0; ; {
		j := strings.Index(s[i:], phrase)
		if j < 0 {
			return false
		}
		start, end := i+j, i+j+len(phrase)
		if (start == 0 || !isWordByte(s[start-1])) && (end == len(s) || !isWordByte(s[end])) {
			return true
		}
		i = start + 1
	}
}

func isWordByte(b byte) bool {
	return b == '_' || b >= '0' && b <= '9' || b >= 'a' && b <= 'z' || b >= 'A' && b <= 'Z'
}

func words(s string) []string {
	return strings.FieldsFunc(s, func(r rune) bool {
		return r > 127 || !isWordByte(byte(r))
	})
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}
