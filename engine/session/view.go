package session

import (
	"github.com/WessleyAI/autosphere/engine/advisor"
	"github.com/WessleyAI/autosphere/engine/catalog"
	"github.com/WessleyAI/autosphere/engine/compare"
	"github.com/WessleyAI/autosphere/engine/listing"
)

// View is a consistent snapshot of everything a session displays.
type View struct {
	SessionID string            `json:"session_id"`
	Vehicles  []catalog.Vehicle `json:"vehicles"`
	Displayed int               `json:"displayed"`
	Total     int               `json:"total"`
	Criteria  listing.Criteria  `json:"criteria"`
	Sort      listing.SortKey   `json:"sort"`
	AI        AIView            `json:"ai"`
	Compare   CompareView       `json:"compare"`
	Detail    *DetailView       `json:"detail,omitempty"`
}

// AIView describes the smart-search state.
type AIView struct {
	Active    bool   `json:"active"`
	Query     string `json:"query,omitempty"`
	Matches   int    `json:"matches"`
	Searching bool   `json:"searching"`
	Error     string `json:"error,omitempty"`
}

// CompareView describes the comparison tray.
type CompareView struct {
	IDs        []string          `json:"ids"`
	Vehicles   []catalog.Vehicle `json:"vehicles"`
	CanCompare bool              `json:"can_compare"`
	Needed     int               `json:"needed"`
	Max        int               `json:"max"`
}

// DetailView describes the open detail view.
type DetailView struct {
	Vehicle      catalog.Vehicle  `json:"vehicle"`
	InsightState InsightState     `json:"insight_state"`
	Insight      *advisor.Insight `json:"insight,omitempty"`
	Error        string           `json:"error,omitempty"`
}

// View returns the current snapshot.
func (s *Session) View() View {
	cat := s.deps.Catalog
	s.lock()
	defer s.mu.Unlock()

	displayed := listing.Apply(cat.All(), s.criteria, s.restriction, s.sort)
	v := View{
		SessionID: s.id,
		Vehicles:  displayed,
		Displayed: len(displayed),
		Total:     cat.Len(),
		Criteria:  s.criteria.Clone(),
		Sort:      s.sort,
		AI: AIView{
			Active:    s.restriction.Active(),
			Query:     s.query,
			Searching: s.searchRunning != 0,
		},
		Compare: CompareView{
			IDs:        s.tray.IDs(),
			Vehicles:   []catalog.Vehicle{},
			CanCompare: s.tray.CanCompare(),
			Needed:     s.tray.Needed(),
			Max:        compare.MaxSize,
		},
	}
	if v.AI.Active {
		v.AI.Matches = len(displayed)
	}
	if s.searchErr != nil {
		v.AI.Error = s.searchErr.Error()
	}
	for _, id := range v.Compare.IDs {
		if veh, ok := cat.Get(id); ok {
			v.Compare.Vehicles = append(v.Compare.Vehicles, veh)
		}
	}
	if s.detailID != "" {
		veh, _ := cat.Get(s.detailID)
		d := &DetailView{Vehicle: veh, InsightState: s.insightState}
		switch s.insightState {
		case InsightReady:
			ins := s.insight
			d.Insight = &ins
		case InsightFailed:
			d.Error = s.insightErr.Error()
		}
		v.Detail = d
	}
	return v
}
