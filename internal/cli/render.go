package cli

import (
	"fmt"
	"strings"
	"sync"

	"github.com/fatih/color"

	"github.com/tekfaso/urgelec/internal/models"
	"github.com/tekfaso/urgelec/internal/timeline"
	"github.com/tekfaso/urgelec/internal/track"
)

var (
	green  = color.New(color.FgGreen).SprintFunc()
	blue   = color.New(color.FgBlue).SprintFunc()
	red    = color.New(color.FgRed).SprintFunc()
	yellow = color.New(color.FgYellow).SprintFunc()
	faint  = color.New(color.Faint).SprintFunc()
	bold   = color.New(color.Bold).SprintFunc()
)

// renderer serializes snapshot output; engine updates arrive from the
// polling goroutines.
type renderer struct {
	mu           sync.Mutex
	supportPhone string
}

func newRenderer(supportPhone string) *renderer {
	return &renderer{supportPhone: supportPhone}
}

func (r *renderer) render(snap track.Snapshot) {
	r.mu.Lock()
	defer r.mu.Unlock()

	in := snap.Intervention
	fmt.Println()
	fmt.Printf("%s %s\n", bold("Intervention"), bold(in.DisplayRef()))
	if in.Title != "" {
		fmt.Printf("  %s\n", in.Title)
	}
	if in.Description != "" {
		fmt.Printf("  %s\n", faint(in.Description))
	}
	if in.Address != "" {
		fmt.Printf("  %s\n", faint(in.Address))
	}

	fmt.Println()
	for _, step := range timeline.Steps(in) {
		marker := faint("○")
		name := faint(step.Name)
		switch {
		case step.Completed:
			marker = green("●")
			name = step.Name
		case step.Active:
			marker = blue("●")
			name = step.Name
		}
		line := fmt.Sprintf("  %s %s", marker, name)
		if step.Note != "" {
			line += " " + blue(step.Note)
		}
		fmt.Println(line)
	}

	if in.Agent != nil {
		fmt.Println()
		fmt.Printf("  Technician: %s (%s)\n", in.Agent.Name, in.Agent.Phone)
	}

	visible := snap.VisibleQuotes()
	if len(visible) > 0 {
		fmt.Println()
		fmt.Println(bold("  Quotes"))
		for _, q := range visible {
			r.renderQuote(q)
		}
	}

	if snap.RatingOpen {
		fmt.Println()
		fmt.Println(yellow("  How did it go? Rate the intervention: rate <1-5> [comment], or: later"))
	}

	fmt.Println()
	fmt.Println(faint("  commands: r (refresh) | accept <quote> | reject <quote> [reason] | rate <1-5> [comment] | later | q (quit)"))
	fmt.Println(faint("  need immediate help? call " + r.supportPhone))
}

func (r *renderer) renderQuote(q models.Quote) {
	status := q.Status
	if q.Status == models.QuoteStatusAccepted {
		status = green(status)
	}
	fmt.Printf("    #%s %.2f %s [%s]\n", q.ID, q.Amount, q.Description, status)
	for _, item := range q.Items {
		fmt.Printf("      %s x%d @ %.2f = %.2f\n", item.Name, item.Quantity, item.UnitPrice, item.Total)
	}
	if q.Status == models.QuoteStatusPending {
		fmt.Printf("      %s\n", faint(fmt.Sprintf("decide with: accept %s | reject %s [reason]", q.ID, q.ID)))
	}
}

func joinRest(fields []string, from int) string {
	if len(fields) <= from {
		return ""
	}
	return strings.Join(fields[from:], " ")
}
