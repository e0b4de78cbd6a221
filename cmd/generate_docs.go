package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"slices"
	"sort"
	"strings"

	"github.com/invopop/jsonschema"
	"github.com/spf13/cobra"

	"github.com/teemow/calagent/internal/instrumentation"
	"github.com/teemow/calagent/internal/tools/common"
)

func newGenerateDocsCmd() *cobra.Command {
	var (
		outputFile string
	)

	cmd := &cobra.Command{
		Use:   "generate-docs",
		Short: "Generate tool documentation",
		Long: `Generate markdown documentation for all tools the assistant can call.
This command introspects the registered tools and outputs their documentation
in markdown format, ensuring the documentation is always accurate and in sync
with the actual tool implementations.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runGenerateDocs(cmd, outputFile)
		},
	}

	cmd.Flags().StringVarP(&outputFile, "output", "o", "", "Output file (default: stdout)")

	return cmd
}

func runGenerateDocs(cmd *cobra.Command, outputFile string) error {
	// No credentials are needed: clients are created on first tool call.
	a, err := newApp(cmd.Context(), appOptions{logOutput: cmd.ErrOrStderr()})
	if err != nil {
		return err
	}
	defer func() {
		_ = a.Close(cmd.Context())
	}()

	markdown := generateToolsMarkdown(a.registry.Tools())

	if outputFile != "" {
		if err := os.WriteFile(outputFile, []byte(markdown), 0644); err != nil {
			return fmt.Errorf("failed to write output file: %w", err)
		}
		fmt.Fprintf(cmd.ErrOrStderr(), "Documentation written to: %s\n", outputFile)
	} else {
		fmt.Fprint(cmd.OutOrStdout(), markdown)
	}

	return nil
}

func generateToolsMarkdown(tools []common.Tool) string {
	var sb strings.Builder

	sb.WriteString("# Tools Reference\n\n")
	sb.WriteString("This document lists every tool the calagent assistant can call. The same tools are exposed by `calagent serve`.\n\n")
	sb.WriteString("**Note:** This documentation is automatically generated from the tool definitions.\n\n")

	toolsByCategory := groupToolsByCategory(tools)

	sb.WriteString("## Table of Contents\n\n")
	categories := make([]string, 0, len(toolsByCategory))
	for category := range toolsByCategory {
		categories = append(categories, category)
	}
	sort.Strings(categories)

	for _, category := range categories {
		anchor := strings.ToLower(strings.ReplaceAll(category, " ", "-"))
		sb.WriteString(fmt.Sprintf("- [%s](#%s)\n", category, anchor))
	}
	sb.WriteString("\n")

	for _, category := range categories {
		categoryTools := toolsByCategory[category]
		sort.Slice(categoryTools, func(i, j int) bool {
			return categoryTools[i].Name < categoryTools[j].Name
		})

		sb.WriteString(fmt.Sprintf("## %s\n\n", category))
		for _, tool := range categoryTools {
			sb.WriteString(generateToolMarkdown(tool))
			sb.WriteString("\n")
		}
	}

	return sb.String()
}

func groupToolsByCategory(tools []common.Tool) map[string][]common.Tool {
	categories := make(map[string][]common.Tool)
	for _, tool := range tools {
		category := getCategory(tool)
		categories[category] = append(categories[category], tool)
	}
	return categories
}

func getCategory(tool common.Tool) string {
	switch tool.Service {
	case instrumentation.ServiceCalendar:
		return "Calendar Tools"
	case instrumentation.ServicePeople, instrumentation.ServiceContacts:
		return "Contact Tools"
	case instrumentation.ServiceTavily:
		return "Web Search Tools"
	default:
		return "Other"
	}
}

func generateToolMarkdown(tool common.Tool) string {
	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("### %s\n\n", tool.Name))
	if tool.Description != "" {
		sb.WriteString(fmt.Sprintf("%s\n\n", tool.Description))
	}

	schema := tool.InputSchema
	if schema == nil || schema.Properties == nil || schema.Properties.Len() == 0 {
		return sb.String()
	}

	sb.WriteString("**Arguments:**\n")
	// Properties keep declaration order.
	for pair := schema.Properties.Oldest(); pair != nil; pair = pair.Next() {
		name, prop := pair.Key, pair.Value

		requiredStr := "optional"
		if slices.Contains(schema.Required, name) {
			requiredStr = "required"
		}
		sb.WriteString(fmt.Sprintf("- `%s` (%s, %s): ", name, getPropertyType(prop), requiredStr))

		if prop.Description != "" {
			sb.WriteString(prop.Description)
		} else {
			sb.WriteString(fmt.Sprintf("%s parameter", getPropertyType(prop)))
		}
		if len(prop.Enum) > 0 {
			sb.WriteString(fmt.Sprintf(" One of: %s.", formatEnum(prop.Enum)))
		}
		sb.WriteString("\n")
	}
	sb.WriteString("\n")

	return sb.String()
}

func getPropertyType(prop *jsonschema.Schema) string {
	if prop.Type == "" {
		return "any"
	}
	if prop.Type == "array" && prop.Items != nil && prop.Items.Type != "" {
		return prop.Items.Type + "[]"
	}
	return prop.Type
}

func formatEnum(values []any) string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		b, err := json.Marshal(v)
		if err != nil {
			continue
		}
		out = append(out, "`"+string(b)+"`")
	}
	return strings.Join(out, ", ")
}
