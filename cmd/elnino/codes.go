package main

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"elnino/internal/diag"
)

var codesCmd = &cobra.Command{
	Use:   "codes",
	Short: "List diagnostic codes",
	RunE: func(cmd *cobra.Command, args []string) error {
		format, err := cmd.Flags().GetString("format")
		if err != nil {
			return err
		}
		switch format {
		case "json":
			return renderCodesJSON(cmd.OutOrStdout())
		case "pretty", "":
			colored, err := useColor(cmd, stdoutFile(cmd))
			if err != nil {
				return err
			}
			return renderCodesPretty(cmd.OutOrStdout(), colored)
		default:
			return fmt.Errorf("unsupported format %q (must be pretty or json)", format)
		}
	},
}

func init() {
	codesCmd.Flags().String("format", "pretty", "output format (pretty|json)")
}

type codeEntry struct {
	ID    string `json:"id"`
	Code  uint16 `json:"code"`
	Title string `json:"title"`
}

func renderCodesPretty(out io.Writer, colored bool) error {
	id := color.New(color.FgCyan, color.Bold)
	if colored {
		id.EnableColor()
	} else {
		id.DisableColor()
	}
	for _, c := range diag.Codes() {
		if c == diag.UnknownCode {
			continue
		}
		if _, err := fmt.Fprintf(out, "%s  %s\n", id.Sprintf("%-9s", c.ID()), c.Title()); err != nil {
			return err
		}
	}
	return nil
}

func renderCodesJSON(out io.Writer) error {
	entries := make([]codeEntry, 0, len(diag.Codes()))
	for _, c := range diag.Codes() {
		if c == diag.UnknownCode {
			continue
		}
		entries = append(entries, codeEntry{ID: c.ID(), Code: uint16(c), Title: c.Title()})
	}
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(entries)
}
