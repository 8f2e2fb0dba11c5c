// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/design3/easel/pkg/decision"
	"github.com/spf13/cobra"
)

var dispatchSteps []string

var dispatchCmd = &cobra.Command{
	Use:   "dispatch",
	Short: "Show how each decision step is dispatched",
	Long: `Resolve every decision step and print the result as a table.

For each step the table shows whether its command comes from the fixed step
table or from the movement strategy, the translation and rotation servoing
modes in effect after resolution and the command type returned.

No command is executed and the board is not opened.

Examples:
  easel dispatch
  easel dispatch --step SEARCH_FOR_ANTENNA --step ROTATE_TO_STANDARD_HEADING`,
	RunE: runDispatch,
}

func init() {
	rootCmd.AddCommand(dispatchCmd)
	dispatchCmd.Flags().StringSliceVarP(&dispatchSteps, "step", "s", nil, "Only show these steps (repeatable)")
}

func runDispatch(cmd *cobra.Command, args []string) error {
	steps := decision.Steps()
	if len(dispatchSteps) > 0 {
		steps = steps[:0:0]
		for _, name := range dispatchSteps {
			step, err := decision.ParseStep(name)
			if err != nil {
				return err
			}
			steps = append(steps, step)
		}
	}

	dispatcher := decision.NewDispatcher(decision.Collaborators{Logger: &appLog})

	headerStyle := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12")).Padding(0, 1)
	cellStyle := lipgloss.NewStyle().Padding(0, 1)
	trustStyle := cellStyle.Foreground(lipgloss.Color("10"))

	rows := dispatchRows(dispatcher, steps)
	trust := decision.TrustMaterialServoing.String()

	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(lipgloss.Color("240"))).
		Headers("#", "STEP", "ROUTE", "TRANSLATION", "ROTATION", "COMMAND").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			if row >= 0 && row < len(rows) && (col == 3 || col == 4) && rows[row][col] == trust {
				return trustStyle
			}
			return cellStyle
		})

	fmt.Println(t)
	return nil
}

// dispatchRows resolves each step in order and describes the outcome
func dispatchRows(d *decision.Dispatcher, steps []decision.Step) [][]string {
	rows := make([][]string, 0, len(steps))
	for _, step := range steps {
		command := d.Resolve(step)
		strategy := d.Strategy()
		rows = append(rows, []string{
			strconv.Itoa(int(step)),
			step.String(),
			d.Route(step).String(),
			strategy.TranslationMode().String(),
			strategy.RotationMode().String(),
			commandTypeName(command),
		})
	}
	return rows
}

func commandTypeName(c decision.Command) string {
	name := fmt.Sprintf("%T", c)
	name = strings.TrimPrefix(name, "*")
	return strings.TrimPrefix(name, "decision.")
}
