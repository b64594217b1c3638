// Package preferences defines the two-level category selection funnel:
// exactly one main group, then a bounded sub-selection constrained to that
// group's fixed slug list.
package preferences

// GroupKey identifies one of the fixed main category groups.
type GroupKey string

const (
	GroupPolitics      GroupKey = "politics"
	GroupCounties      GroupKey = "counties"
	GroupBusiness      GroupKey = "business"
	GroupSports        GroupKey = "sports"
	GroupEntertainment GroupKey = "entertainment"
	GroupTechnology    GroupKey = "technology"
	GroupHealth        GroupKey = "health"
	GroupOpinion       GroupKey = "opinion"
	GroupLifestyle     GroupKey = "lifestyle"
)

// GroupSlugs is the static group→slugs mapping. It is client-side
// configuration, not fetched from the backend.
var GroupSlugs = map[GroupKey][]string{
	GroupPolitics:      {"politics", "national-assembly", "senate", "devolution", "elections"},
	GroupCounties:      {"counties", "nairobi", "mombasa", "kisumu", "nakuru", "eldoret"},
	GroupBusiness:      {"business", "markets", "companies", "economy", "agribusiness"},
	GroupSports:        {"sports", "football", "athletics", "rugby", "motorsport"},
	GroupEntertainment: {"entertainment", "music", "film", "celebrity", "events"},
	GroupTechnology:    {"technology", "startups", "gadgets", "telcos", "fintech"},
	GroupHealth:        {"health", "wellness", "medicine", "nutrition"},
	GroupOpinion:       {"opinion", "editorials", "columnists", "letters"},
	GroupLifestyle:     {"lifestyle", "travel", "food", "fashion", "relationships"},
}

// KnownGroup reports whether key names one of the fixed groups.
func KnownGroup(key GroupKey) bool {
	_, ok := GroupSlugs[key]
	return ok
}

// GroupAllows reports whether slug belongs to the group's fixed list.
func GroupAllows(key GroupKey, slug string) bool {
	for _, s := range GroupSlugs[key] {
		if s == slug {
			return true
		}
	}
	return false
}

// State is the persisted preference selection. SelectedCategoryIDs keeps
// insertion order and never exceeds the configured selection limit.
type State struct {
	MainGroup           GroupKey `json:"mainGroup,omitempty"`
	SelectedCategoryIDs []string `json:"selectedCategoryIds"`
}

// Clone returns a deep copy so snapshots cannot alias manager state.
func (s State) Clone() State {
	out := State{MainGroup: s.MainGroup}
	if len(s.SelectedCategoryIDs) > 0 {
		out.SelectedCategoryIDs = append([]string(nil), s.SelectedCategoryIDs...)
	} else {
		out.SelectedCategoryIDs = []string{}
	}
	return out
}

// Selected reports whether id is currently part of the selection.
func (s State) Selected(id string) bool {
	for _, sel := range s.SelectedCategoryIDs {
		if sel == id {
			return true
		}
	}
	return false
}
