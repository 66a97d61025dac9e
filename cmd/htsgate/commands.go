package main

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"mime"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/teuglobal/htsgate/internal/config"
	"github.com/teuglobal/htsgate/internal/report"
	"github.com/teuglobal/htsgate/internal/storage"
)

// --- context ---

var contextCmd = &cobra.Command{
	Use:   "context",
	Short: "Manage the regulatory document context",
}

var contextSetCmd = &cobra.Command{
	Use:   "set",
	Short: "Set the document context from a file or pasted text",
	Long: `Set the document context from a file or pasted text.

Examples:
  htsgate context set --file ./section232-annex.pdf
  htsgate context set --text "9903.81.91 covers steel derivative articles..." --name "annex excerpt"`,
	RunE: func(cmd *cobra.Command, args []string) error {
		file, _ := cmd.Flags().GetString("file")
		text, _ := cmd.Flags().GetString("text")
		name, _ := cmd.Flags().GetString("name")

		if (file == "") == (text == "") {
			return fmt.Errorf("exactly one of --file or --text is required")
		}

		body := map[string]any{}
		switch {
		case file != "":
			data, err := os.ReadFile(file)
			if err != nil {
				return fmt.Errorf("reading file: %w", err)
			}
			mimeType := mime.TypeByExtension(filepath.Ext(file))
			if mimeType == "" {
				mimeType = "application/octet-stream"
			}
			if name == "" {
				name = filepath.Base(file)
			}
			body["type"] = "file"
			body["content"] = base64.StdEncoding.EncodeToString(data)
			body["mimeType"] = mimeType
			body["name"] = name
		case text != "":
			if name == "" {
				name = "pasted text"
			}
			body["type"] = "text"
			body["content"] = text
			body["name"] = name
		}

		client, err := newAPIClient()
		if err != nil {
			return err
		}

		resp, err := client.put(cmd.Context(), "/api/context", body)
		if err != nil {
			return err
		}

		var saved storage.DocumentContext
		if err := decodeJSON(resp, &saved); err != nil {
			return err
		}

		printSuccess("Context set: %s (%s)", saved.Name, saved.Kind)
		if saved.Kind == storage.ContextKindFile && saved.ExtractedText != "" {
			printStatus("Extracted text", "%d characters", len(saved.ExtractedText))
		}
		return nil
	},
}

var contextShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the current document context",
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := newAPIClient()
		if err != nil {
			return err
		}

		resp, err := client.get(cmd.Context(), "/api/context")
		if err != nil {
			return err
		}

		var ctx storage.DocumentContext
		if err := decodeJSON(resp, &ctx); err != nil {
			return err
		}

		printStatus("Name", "%s", ctx.Name)
		printStatus("Type", "%s", ctx.Kind)
		if ctx.MimeType != "" {
			printStatus("MIME type", "%s", ctx.MimeType)
		}
		printStatus("Updated", "%s", ctx.UpdatedAt.Format("2006-01-02 15:04:05 MST"))
		return nil
	},
}

var contextClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Clear the document context",
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := newAPIClient()
		if err != nil {
			return err
		}

		resp, err := client.delete(cmd.Context(), "/api/context")
		if err != nil {
			return err
		}

		var result map[string]string
		if err := decodeJSON(resp, &result); err != nil {
			return err
		}

		printSuccess("Context cleared")
		return nil
	},
}

func init() {
	contextSetCmd.Flags().String("file", "", "document file to upload")
	contextSetCmd.Flags().String("text", "", "text content to use as context")
	contextSetCmd.Flags().String("name", "", "display name for the context")

	contextCmd.AddCommand(contextSetCmd)
	contextCmd.AddCommand(contextShowCmd)
	contextCmd.AddCommand(contextClearCmd)
}

// --- entries ---

var entriesCmd = &cobra.Command{
	Use:   "entries",
	Short: "Manage manual override entries",
}

var entriesAddCmd = &cobra.Command{
	Use:   "add",
	Short: "Add a manual override entry",
	Long: `Add a manual override entry.

Examples:
  htsgate entries add --code 9903.81.91 --category "Steel Derivative" \
    --description "Fasteners per Annex I" --metal Steel`,
	RunE: func(cmd *cobra.Command, args []string) error {
		code, _ := cmd.Flags().GetString("code")
		category, _ := cmd.Flags().GetString("category")
		description, _ := cmd.Flags().GetString("description")
		metal, _ := cmd.Flags().GetString("metal")

		body := map[string]string{
			"code":        code,
			"category":    category,
			"description": description,
			"metalType":   metal,
		}

		client, err := newAPIClient()
		if err != nil {
			return err
		}

		resp, err := client.post(cmd.Context(), "/api/entries", body)
		if err != nil {
			return err
		}

		var entry storage.ManualEntry
		if err := decodeJSON(resp, &entry); err != nil {
			return err
		}

		printSuccess("Added entry %s (%s)", entry.ID, entry.Code)
		return nil
	},
}

var entriesListCmd = &cobra.Command{
	Use:   "list",
	Short: "List manual override entries",
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := newAPIClient()
		if err != nil {
			return err
		}

		resp, err := client.get(cmd.Context(), "/api/entries")
		if err != nil {
			return err
		}

		var entries []storage.ManualEntry
		if err := decodeJSON(resp, &entries); err != nil {
			return err
		}

		if len(entries) == 0 {
			fmt.Println("No manual entries.")
			return nil
		}

		for _, e := range entries {
			fmt.Printf("%s  %s  %s  %s\n",
				colorize(colorCyan, e.ID[:8]),
				colorize(colorBold, e.Code),
				e.MetalType,
				e.Category,
			)
		}
		return nil
	},
}

var entriesRmCmd = &cobra.Command{
	Use:   "rm <id>",
	Short: "Delete a manual override entry",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := newAPIClient()
		if err != nil {
			return err
		}

		resp, err := client.delete(cmd.Context(), "/api/entries/"+args[0])
		if err != nil {
			return err
		}

		var result map[string]string
		if err := decodeJSON(resp, &result); err != nil {
			return err
		}

		printSuccess("Deleted entry %s", args[0])
		return nil
	},
}

func init() {
	entriesAddCmd.Flags().String("code", "", "HTS code or code range")
	entriesAddCmd.Flags().String("category", "", "derivative category")
	entriesAddCmd.Flags().String("description", "", "match rationale")
	entriesAddCmd.Flags().String("metal", "", "metal type: Aluminum, Steel or Both")

	entriesCmd.AddCommand(entriesAddCmd)
	entriesCmd.AddCommand(entriesListCmd)
	entriesCmd.AddCommand(entriesRmCmd)
}

// --- check / lookup ---

var checkCmd = &cobra.Command{
	Use:   "check <hts-code>",
	Short: "Check an HTS code for Section 232 derivative coverage",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := newAPIClient()
		if err != nil {
			return err
		}

		body := map[string]string{"mode": "compliance", "htsCode": args[0]}
		resp, err := client.post(cmd.Context(), "/api/analyze", body)
		if err != nil {
			return err
		}

		var raw json.RawMessage
		if err := decodeJSON(resp, &raw); err != nil {
			return err
		}

		rep, err := report.Present("compliance", raw)
		if err != nil {
			return fmt.Errorf("parsing analysis: %w", err)
		}

		if rep.Analysis == nil {
			return fmt.Errorf("empty analysis")
		}
		if !rep.Analysis.Found {
			printStatus("Result", "%s", colorize(colorGreen, "not subject to Section 232 derivative provisions"))
			fmt.Printf("\n%s\n", rep.Analysis.Reasoning)
			return nil
		}

		printStatus("Result", "%s", colorize(colorYellow, "subject to Section 232"))
		for i, m := range rep.Analysis.Matches {
			fmt.Printf("\n%s\n", colorize(colorBold, fmt.Sprintf("Match %d: %s (%s)", i+1, m.DerivativeCategory, m.MetalType)))
			fmt.Printf("  %s\n", m.MatchDetail)
			if m.SourceSnippet != "" {
				fmt.Printf("  Source: %s\n", m.SourceSnippet)
			}
			fmt.Printf("  Confidence: %s\n", m.Confidence)
		}
		return nil
	},
}

var lookupCmd = &cobra.Command{
	Use:   "lookup <hts-code>",
	Short: "Look up general tariff information for an HTS code",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := newAPIClient()
		if err != nil {
			return err
		}

		body := map[string]string{"mode": "lookup", "htsCode": args[0]}
		resp, err := client.post(cmd.Context(), "/api/analyze", body)
		if err != nil {
			return err
		}

		var result any
		if err := decodeJSON(resp, &result); err != nil {
			return err
		}

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(result)
	},
}

// --- history ---

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show recent compliance checks",
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := newAPIClient()
		if err != nil {
			return err
		}

		resp, err := client.get(cmd.Context(), "/api/history")
		if err != nil {
			return err
		}

		var entries []report.HistoryEntry
		if err := decodeJSON(resp, &entries); err != nil {
			return err
		}

		if len(entries) == 0 {
			fmt.Println("No recent checks.")
			return nil
		}

		for _, e := range entries {
			verdict := colorize(colorGreen, "clear")
			if e.Found {
				verdict = colorize(colorYellow, "subject")
			}
			fmt.Printf("%s  %s\n", colorize(colorBold, e.Code), verdict)
		}
		return nil
	},
}

// --- config ---

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show or update configuration",
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return err
		}

		keys := config.ShowAll(cfg)
		for _, k := range keys {
			fmt.Printf("  %s = %s\n", colorize(colorBold, k.Key), k.Value)
		}
		return nil
	},
}

var configSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Set a configuration value",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		key, value := args[0], args[1]

		if err := config.SetKey(key, value); err != nil {
			return err
		}

		printSuccess("Set %s = %s", key, value)
		return nil
	},
}

func init() {
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configSetCmd)
}
