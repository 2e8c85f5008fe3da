package main

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/fastygo/taskboard/domain"
	"github.com/fastygo/taskboard/store"
)

const deadlineLayout = "2006-01-02 15:04"

var categoryColors = map[domain.Category]lipgloss.Color{
	domain.CategoryToDo:       lipgloss.Color("33"),
	domain.CategoryOnProgress: lipgloss.Color("214"),
	domain.CategoryDone:       lipgloss.Color("2"),
	domain.CategoryTimeout:    lipgloss.Color("1"),
}

var priorityColors = map[domain.Priority]lipgloss.Color{
	domain.PriorityLow:    lipgloss.Color("244"),
	domain.PriorityMedium: lipgloss.Color("214"),
	domain.PriorityHigh:   lipgloss.Color("1"),
}

// styles are bound to one writer so colour is only emitted to terminals.
type styles struct {
	header   func(domain.Category) lipgloss.Style
	priority func(domain.Priority) lipgloss.Style
	muted    lipgloss.Style
	badge    lipgloss.Style
	label    lipgloss.Style
}

func newStyles(w io.Writer) styles {
	r := lipgloss.NewRenderer(w)
	return styles{
		header: func(c domain.Category) lipgloss.Style {
			return r.NewStyle().Bold(true).Foreground(categoryColors[c])
		},
		priority: func(p domain.Priority) lipgloss.Style {
			return r.NewStyle().Foreground(priorityColors[p])
		},
		muted: r.NewStyle().Foreground(lipgloss.Color("244")),
		badge: r.NewStyle().Foreground(lipgloss.Color("2")).Bold(true),
		label: r.NewStyle().Bold(true),
	}
}

func renderBoard(w io.Writer, columns []store.Column, counts domain.Counts, now time.Time) {
	st := newStyles(w)
	for i, column := range columns {
		if i > 0 {
			fmt.Fprintln(w)
		}
		fmt.Fprintln(w, st.header(column.Category).Render(fmt.Sprintf("%s (%d)", column.Category, len(column.Tasks))))
		if len(column.Tasks) == 0 {
			fmt.Fprintln(w, st.muted.Render("  no tasks"))
			continue
		}
		for _, t := range column.Tasks {
			fmt.Fprintln(w, "  "+renderCard(st, t, now))
		}
	}
	fmt.Fprintln(w)
	fmt.Fprintln(w, renderCounts(st, counts))
}

func renderCard(st styles, t domain.Task, now time.Time) string {
	parts := []string{
		st.priority(t.Priority).Render("[" + string(t.Priority) + "]"),
		t.Title,
		st.muted.Render(shortID(t.ID)),
	}
	if t.IsCompleted() {
		parts = append(parts, st.badge.Render("Completed"))
	} else if !t.Deadline.IsZero() {
		parts = append(parts, st.muted.Render("due "+formatDeadline(t.Deadline, now)))
	}
	line := strings.Join(parts, " ")
	if desc := strings.TrimSpace(t.Description); desc != "" {
		line += "\n    " + st.muted.Render(firstLine(desc))
	}
	return line
}

func renderCounts(st styles, c domain.Counts) string {
	return fmt.Sprintf("%s %d   %s %d   %s %d   %s %d",
		st.label.Render("Total"), c.Total,
		st.label.Render("Active"), c.Active,
		st.label.Render("Completed"), c.Completed,
		st.label.Render("Expired"), c.Expired,
	)
}

func renderTaskTable(w io.Writer, tasks []domain.Task, now time.Time) {
	if len(tasks) == 0 {
		fmt.Fprintln(w, "no tasks")
		return
	}
	rows := make([][]string, 0, len(tasks))
	for _, t := range tasks {
		deadline := "-"
		if !t.Deadline.IsZero() {
			deadline = formatDeadline(t.Deadline, now)
		}
		rows = append(rows, []string{shortID(t.ID), t.Title, string(t.Category), string(t.Priority), deadline})
	}
	fmt.Fprint(w, formatTable([]string{"ID", "TITLE", "CATEGORY", "PRIORITY", "DEADLINE"}, rows))
}

func renderEvents(w io.Writer, events []domain.TaskEvent) {
	if len(events) == 0 {
		fmt.Fprintln(w, "no history")
		return
	}
	rows := make([][]string, 0, len(events))
	for _, e := range events {
		payload := strings.TrimSpace(string(e.Payload))
		if payload == "" || payload == "null" {
			payload = "-"
		}
		rows = append(rows, []string{e.CreatedAt.Local().Format(deadlineLayout), e.Name, truncate(payload, 60)})
	}
	fmt.Fprint(w, formatTable([]string{"AT", "EVENT", "CHANGE"}, rows))
}

// formatTable lays rows out in space-padded columns.
func formatTable(headers []string, rows [][]string) string {
	widths := make([]int, len(headers))
	for i, h := range headers {
		widths[i] = lipgloss.Width(h)
	}
	for _, row := range rows {
		for i, cell := range row {
			if i < len(widths) && lipgloss.Width(cell) > widths[i] {
				widths[i] = lipgloss.Width(cell)
			}
		}
	}

	var b strings.Builder
	writeRow := func(row []string) {
		for i, cell := range row {
			b.WriteString(cell)
			if i == len(row)-1 {
				b.WriteByte('\n')
				continue
			}
			b.WriteString(strings.Repeat(" ", widths[i]-lipgloss.Width(cell)+2))
		}
	}
	writeRow(headers)
	for _, row := range rows {
		writeRow(row)
	}
	return b.String()
}

func formatDeadline(deadline, now time.Time) string {
	s := deadline.Local().Format(deadlineLayout)
	if now.After(deadline) {
		s += " (overdue)"
	}
	return s
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i]
	}
	return s
}

func truncate(s string, max int) string {
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	return string(r[:max-3]) + "..."
}
