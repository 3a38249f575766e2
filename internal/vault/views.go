package vault

import (
	"sort"
	"strings"

	"github.com/mdouchement/devvault/internal/model"
)

// A View narrows the item list by type when no category is selected.
type View string

const (
	// ViewAll shows every item.
	ViewAll View = "all"
	// ViewPrompts shows prompts only.
	ViewPrompts View = "prompts"
	// ViewCommands shows commands only.
	ViewCommands View = "commands"
	// ViewSnippets shows snippets only.
	ViewSnippets View = "snippets"
)

// A Filter is the narrowing state applied to the item collection.
// All active members are ANDed. A selected category takes precedence
// over the view mode.
type Filter struct {
	Category string
	View     View
	Query    string
}

// FilterItems returns the items matching f, preserving their order.
// It is a pure function, recomputed on every read.
func FilterItems(items []*model.Item, f Filter) []*model.Item {
	result := make([]*model.Item, 0, len(items))

	query := strings.ToLower(f.Query)
	for _, item := range items {
		if f.Category != "" {
			if item.Category != f.Category {
				continue
			}
		} else if !matchView(item.Type, f.View) {
			continue
		}

		if query != "" && !matchQuery(item, query) {
			continue
		}
		result = append(result, item)
	}
	return result
}

func matchView(t model.ItemType, v View) bool {
	switch v {
	case ViewPrompts:
		return t == model.TypePrompt
	case ViewCommands:
		return t == model.TypeCommand
	case ViewSnippets:
		return t == model.TypeSnippet
	default:
		return true
	}
}

// matchQuery matches the query as a case-insensitive substring of the
// title, any tag, the category or the content.
func matchQuery(item *model.Item, query string) bool {
	if strings.Contains(strings.ToLower(item.Title), query) {
		return true
	}
	for _, tag := range item.Tags {
		if strings.Contains(strings.ToLower(tag), query) {
			return true
		}
	}
	return strings.Contains(strings.ToLower(item.Category), query) ||
		strings.Contains(strings.ToLower(item.Content), query)
}

// ReconcileCategories returns the effective category registry: the
// deduplicated union of the hardcoded defaults, the persisted names and
// the categories referenced by items, sorted for stable display order.
// An item can therefore never reference an unknown category.
func ReconcileCategories(persisted []string, items []*model.Item) []string {
	seen := make(map[string]bool, len(DefaultCategories)+len(persisted))
	categories := make([]string, 0, len(DefaultCategories)+len(persisted))

	add := func(name string) {
		if !seen[name] {
			seen[name] = true
			categories = append(categories, name)
		}
	}
	for _, name := range DefaultCategories {
		add(name)
	}
	for _, name := range persisted {
		add(name)
	}
	for _, item := range items {
		add(item.Category)
	}

	sort.Strings(categories)
	return categories
}

// Counts holds the totals computed over the unfiltered collection.
type Counts struct {
	Total    int `json:"total"`
	Prompts  int `json:"prompts"`
	Commands int `json:"commands"`
	Snippets int `json:"snippets"`
}

// CountItems computes the totals over the unfiltered collection.
func CountItems(items []*model.Item) Counts {
	counts := Counts{Total: len(items)}
	for _, item := range items {
		switch item.Type {
		case model.TypePrompt:
			counts.Prompts++
		case model.TypeCommand:
			counts.Commands++
		case model.TypeSnippet:
			counts.Snippets++
		}
	}
	return counts
}

// A CategoryCount is one row of the category summary.
type CategoryCount struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

// SummarizeCategories returns one row per registry name, counting the
// items referencing it (zero if none). Categories referenced by items but
// absent from the registry are included as well. Rows are ordered by count
// descending then name ascending, for determinism.
func SummarizeCategories(categories []string, items []*model.Item) []CategoryCount {
	counts := make(map[string]int, len(categories))
	for _, name := range categories {
		counts[name] = 0
	}
	for _, item := range items {
		counts[item.Category]++
	}

	summary := make([]CategoryCount, 0, len(counts))
	for name, count := range counts {
		summary = append(summary, CategoryCount{Name: name, Count: count})
	}
	sort.Slice(summary, func(i, j int) bool {
		if summary[i].Count != summary[j].Count {
			return summary[i].Count > summary[j].Count
		}
		return summary[i].Name < summary[j].Name
	})
	return summary
}
