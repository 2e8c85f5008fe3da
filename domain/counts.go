package domain

// Counts are the board totals derived from a task list. They are never stored.
type Counts struct {
	Total     int `json:"total"`
	Active    int `json:"active"`
	Completed int `json:"completed"`
	Expired   int `json:"expired"`
}

// CountTasks folds a task list into its board totals. Every task outside the
// To Do backlog counts as active, including Done and Timeout.
func CountTasks(tasks []Task) Counts {
	counts := Counts{Total: len(tasks)}
	for i := range tasks {
		switch tasks[i].Category {
		case CategoryToDo:
			continue
		case CategoryDone:
			counts.Completed++
		case CategoryTimeout:
			counts.Expired++
		}
		counts.Active++
	}
	return counts
}
