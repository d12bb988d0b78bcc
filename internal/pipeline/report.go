package pipeline

import (
	"fmt"

	"github.com/MrSnakeDoc/primsync/internal/logger"
	"github.com/MrSnakeDoc/primsync/internal/printer"
)

type StepReport struct {
	Name   string `json:"name"`
	Result Result `json:"result"`
	Reason string `json:"reason,omitempty"`
	Error  string `json:"error,omitempty"`
}

// Report preserves step declaration order.
type Report []StepReport

// OK reports overall success: no step Failed. A Skipped step is a success.
func (r Report) OK() bool {
	for _, e := range r {
		if e.Result == Failed {
			return false
		}
	}
	return true
}

// Failures returns the names of failed steps, in order.
func (r Report) Failures() []string {
	var out []string
	for _, e := range r {
		if e.Result == Failed {
			out = append(out, e.Name)
		}
	}
	return out
}

// Render prints the report as a table on the logger output.
func (r Report) Render() error {
	p := printer.NewColorPrinter()
	table := logger.CreateTable([]string{"Step", "Result", "Detail"})

	for _, e := range r {
		result := string(e.Result)
		switch e.Result {
		case Updated, WouldUpdate:
			result = p.Success("%s", e.Result)
		case Failed:
			result = p.Error("%s", e.Result)
		case Skipped, WouldSkip:
			result = p.Muted("%s", e.Result)
		}

		detail := e.Reason
		if e.Error != "" {
			detail = e.Error
		}

		if err := table.Append([]string{e.Name, result, detail}); err != nil {
			return fmt.Errorf("an error occurred while appending to the table: %w", err)
		}
	}

	if err := table.Render(); err != nil {
		return fmt.Errorf("an error occurred while rendering the table: %w", err)
	}
	return nil
}
