package store

import (
	"strings"

	"github.com/fastygo/taskboard/domain"
)

// Column is one board column and the tasks in it, in list order.
type Column struct {
	Category domain.Category
	Tasks    []domain.Task
}

// Board groups the current tasks into one column per category.
func (s *Store) Board() []Column {
	tasks := s.Tasks()
	columns := make([]Column, 0, len(domain.Categories()))
	for _, c := range domain.Categories() {
		column := Column{Category: c}
		for _, t := range tasks {
			if t.Category == c {
				column.Tasks = append(column.Tasks, t)
			}
		}
		columns = append(columns, column)
	}
	return columns
}

// Filter returns tasks whose title or description contains query (case
// insensitive) and, when category is set, that sit in that column.
func (s *Store) Filter(query string, category domain.Category) []domain.Task {
	query = strings.ToLower(strings.TrimSpace(query))
	var matched []domain.Task
	for _, t := range s.Tasks() {
		if category != "" && t.Category != category {
			continue
		}
		if query != "" &&
			!strings.Contains(strings.ToLower(t.Title), query) &&
			!strings.Contains(strings.ToLower(t.Description), query) {
			continue
		}
		matched = append(matched, t)
	}
	return matched
}
