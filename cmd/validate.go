package cmd

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"docmig.dev/pkg/docmig/internal/domain"
	"docmig.dev/pkg/docmig/internal/domain/rules"
)

// validateCmd represents the validate command.
var validateCmd = newValidateCmd()

func newValidateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "validate <definition.yaml>",
		Short: "Check a migration definition",
		Long:  validateLongDescription,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			definition, err := rules.LoadFile(args[0])
			if err != nil {
				return err
			}

			migration, err := definition.Migration()
			if err != nil {
				return err
			}

			if _, err := domain.Compile(migration); err != nil {
				return err
			}

			cmd.Print(renderDefinition(definition))

			return nil
		},
	}
}

func init() {
	rootCmd.AddCommand(validateCmd)
}

func renderDefinition(definition rules.Definition) string {
	var b bytes.Buffer

	fmt.Fprintf(&b, "Migration %s", definition.ID)

	if definition.Title != "" {
		fmt.Fprintf(&b, " (%s)", definition.Title)
	}

	fmt.Fprintf(&b, "\nDocument types: %s\n", strings.Join(definition.DocumentTypes, ", "))

	if definition.Filter != "" {
		fmt.Fprintf(&b, "Filter: %s\n", definition.Filter)
	}

	b.WriteString("\n")

	table := tablewriter.NewWriter(&b)
	table.SetHeader([]string{"#", "On", "Path", "Action"})
	table.SetBorder(false)
	table.SetCenterSeparator("")
	table.SetColumnAlignment([]int{
		tablewriter.ALIGN_RIGHT, tablewriter.ALIGN_LEFT,
		tablewriter.ALIGN_LEFT, tablewriter.ALIGN_LEFT,
	})

	for i, rule := range definition.Rules {
		path := rule.Path
		if path == "" {
			path = "**"
		}

		table.Append([]string{fmt.Sprintf("%d", i+1), rule.On, path, rule.Action()})
	}

	table.SetFooter([]string{"", "", "Rules", fmt.Sprintf("%d", len(definition.Rules))})
	table.Render()

	return b.String()
}
