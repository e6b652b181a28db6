package advisor

import (
	"fmt"
	"strings"

	"github.com/WessleyAI/autosphere/engine/catalog"
	"github.com/WessleyAI/autosphere/pkg/fn"
	"github.com/WessleyAI/autosphere/pkg/llm"
	"github.com/WessleyAI/autosphere/pkg/vehiclenlp"
)

// smartSearchPrompt builds the prompt for SmartSearch.
func smartSearchPrompt(query string, vehicles []catalog.Vehicle, hints vehiclenlp.Hints) string {
	var b strings.Builder
	fmt.Fprintf(&b, "User query: %q.\n", query)
	b.WriteString("Available vehicles (ID and basic info): ")
	b.WriteString(enumerate(vehicles))
	b.WriteString(".\n")
	if !hints.Empty() {
		fmt.Fprintf(&b, "Parsed hints from the query: %s.\n", hints)
	}
	b.WriteString("Which vehicles best match this intent? Return only a JSON array of matching vehicle IDs.")
	return b.String()
}

// enumerate renders each vehicle as `ID:<id> <year> <make> <model> ($<price>)`
// joined by "; ".
func enumerate(vehicles []catalog.Vehicle) string {
	parts := fn.Map(vehicles, func(v catalog.Vehicle) string {
		return fmt.Sprintf("ID:%s %d %s %s ($%d)", v.ID, v.Year, v.Make, v.Model, v.Price)
	})
	return strings.Join(parts, "; ")
}

func insightPrompt(v catalog.Vehicle, marketYear int) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Analyze this vehicle: %d %s %s.\n", v.Year, v.Make, v.Model)
	fmt.Fprintf(&b, "Details: %s.\n", v.Description)
	fmt.Fprintf(&b, "Features: %s.\n", strings.Join(v.Features, ", "))
	fmt.Fprintf(&b, "Provide a concise market analysis, its pros, cons, and a final \"Market Verdict\" for a potential buyer in %d.", marketYear)
	return b.String()
}

func insightSchema() *llm.Schema {
	return &llm.Schema{
		Type: llm.TypeObject,
		Properties: map[string]*llm.Schema{
			"summary":       llm.String(),
			"pros":          llm.StringArray(),
			"cons":          llm.StringArray(),
			"marketVerdict": llm.String(),
		},
		PropertyOrder: []string{"summary", "pros", "cons", "marketVerdict"},
		Required:      []string{"summary", "pros", "cons", "marketVerdict"},
	}
}
