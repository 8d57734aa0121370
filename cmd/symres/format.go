package main

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/fatih/color"

	"symres/internal/bootstrap"
	"symres/internal/version"
)

// OutputFormat represents the output format type
type OutputFormat string

const (
	FormatJSON  OutputFormat = "json"
	FormatHuman OutputFormat = "human"
)

func parseFormat(s string) (OutputFormat, error) {
	switch f := OutputFormat(strings.ToLower(s)); f {
	case FormatJSON, FormatHuman:
		return f, nil
	default:
		return "", fmt.Errorf("unsupported format: %s", s)
	}
}

// FormatResponse formats a response according to the specified format
func FormatResponse(resp interface{}, format OutputFormat) (string, error) {
	switch format {
	case FormatJSON:
		return formatJSON(resp)
	case FormatHuman:
		return formatHuman(resp)
	default:
		return "", fmt.Errorf("unsupported format: %s", format)
	}
}

func formatJSON(resp interface{}) (string, error) {
	data, err := json.MarshalIndent(resp, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to marshal JSON: %w", err)
	}
	return string(data), nil
}

func formatHuman(resp interface{}) (string, error) {
	switch v := resp.(type) {
	case *AliasGetResponse:
		return v.Path, nil
	case *AliasListResponse:
		return formatAliasesHuman(v), nil
	case *ResolveResponse:
		return formatResolveHuman(v), nil
	case *LoadResponse:
		return formatLoadHuman(v), nil
	case *ManifestResponse:
		return formatManifestHuman(v), nil
	case *IndexResponse:
		return formatIndexHuman(v), nil
	case *bootstrap.Summary:
		return formatSummaryHuman(v), nil
	case version.Info:
		return v.String(), nil
	default:
		return formatJSON(resp)
	}
}

func okMark() string   { return color.GreenString("✓") }
func failMark() string { return color.RedString("✗") }

func heading(b *strings.Builder, title string) {
	b.WriteString(color.New(color.Bold).Sprint(title) + "\n")
	b.WriteString(strings.Repeat("─", 50) + "\n")
}

// padRight pads s to width runes.
func padRight(s string, width int) string {
	if n := len([]rune(s)); n < width {
		return s + strings.Repeat(" ", width-n)
	}
	return s
}

func formatAliasesHuman(resp *AliasListResponse) string {
	var b strings.Builder
	heading(&b, fmt.Sprintf("Aliases (%d)", len(resp.Aliases)))

	width := 0
	for _, e := range resp.Aliases {
		if len(e.Name) > width {
			width = len(e.Name)
		}
	}
	for _, e := range resp.Aliases {
		b.WriteString(fmt.Sprintf("  %s  %s\n", color.CyanString(padRight(e.Name, width)), e.Path))
	}
	return strings.TrimRight(b.String(), "\n")
}

func formatResolveHuman(resp *ResolveResponse) string {
	var b strings.Builder
	for _, r := range resp.Results {
		if r.Resolution == nil {
			b.WriteString(fmt.Sprintf("%s %s\n", failMark(), r.Symbol))
			b.WriteString(fmt.Sprintf("    %s\n", r.Error))
			continue
		}
		via := r.Resolution.Source
		if r.Resolution.Alias != "" {
			via += " " + r.Resolution.Alias
		}
		b.WriteString(fmt.Sprintf("%s %s\n", okMark(), r.Symbol))
		b.WriteString(fmt.Sprintf("    %s (%s)\n", r.Resolution.Path, via))
	}
	return strings.TrimRight(b.String(), "\n")
}

func formatLoadHuman(resp *LoadResponse) string {
	var b strings.Builder
	def := resp.Definition
	b.WriteString(fmt.Sprintf("%s %s %s\n", okMark(), def.Kind, def.Symbol))
	b.WriteString(fmt.Sprintf("  Defined in: %s:%d\n", def.Path, def.Line))
	if resp.Resolution != nil {
		b.WriteString(fmt.Sprintf("  Resolved via: %s\n", resp.Resolution.Source))
	}
	b.WriteString(fmt.Sprintf("  Files included: %d\n", resp.Stats.Loads))
	return strings.TrimRight(b.String(), "\n")
}

func formatManifestHuman(resp *ManifestResponse) string {
	var b strings.Builder
	heading(&b, "Manifest "+resp.Path)
	b.WriteString(fmt.Sprintf("Format: %s\n", resp.Format))
	if resp.Digest != "" {
		b.WriteString(fmt.Sprintf("Digest: %s\n", shorten(resp.Digest, 16)))
	}
	b.WriteString(fmt.Sprintf("Symbols: %d\n", len(resp.Symbols)))
	if resp.Converted != "" {
		b.WriteString(fmt.Sprintf("%s Written to %s\n", okMark(), resp.Converted))
		return strings.TrimRight(b.String(), "\n")
	}
	b.WriteString("\n")
	for _, s := range resp.Symbols {
		b.WriteString(fmt.Sprintf("  %s\n    %s\n", color.CyanString(s.Symbol), s.Path))
	}
	return strings.TrimRight(b.String(), "\n")
}

func formatIndexHuman(resp *IndexResponse) string {
	var b strings.Builder
	heading(&b, "Index")
	b.WriteString(fmt.Sprintf("Roots: %s\n", strings.Join(resp.Roots, ", ")))
	b.WriteString(fmt.Sprintf("Symbols: %d\n", resp.Symbols))
	if len(resp.Duplicates) > 0 {
		b.WriteString(fmt.Sprintf("Duplicates: %d\n", len(resp.Duplicates)))
		for _, d := range resp.Duplicates {
			b.WriteString(fmt.Sprintf("  ! %s kept %s, ignored %s\n", d.Symbol, d.Kept, d.Other))
		}
	}
	if resp.DryRun {
		b.WriteString("Dry run: nothing written\n")
	} else {
		b.WriteString(fmt.Sprintf("%s Written to %s\n", okMark(), resp.Output))
		if resp.RunID != "" {
			b.WriteString(fmt.Sprintf("Run: %s\n", resp.RunID))
		}
	}
	b.WriteString(fmt.Sprintf("Duration: %dms\n", resp.DurationMs))
	return strings.TrimRight(b.String(), "\n")
}

func formatSummaryHuman(s *bootstrap.Summary) string {
	var b strings.Builder
	heading(&b, "Environment")
	b.WriteString(fmt.Sprintf("Name: %s\n", s.Environment.Name))
	b.WriteString(fmt.Sprintf("Debug: %v\n", s.Environment.Debug))
	b.WriteString(fmt.Sprintf("Error handler: %v\n", s.Environment.EnableErrorHandler))
	b.WriteString(fmt.Sprintf("Begin time: %s\n", s.Environment.BeginTime.Format("2006-01-02T15:04:05.000Z07:00")))
	b.WriteString(fmt.Sprintf("Class map: %d symbols\n", s.ClassMapSize))
	b.WriteString(fmt.Sprintf("Autoload hooks: %d\n", s.Hooks))

	if len(s.Manifests) > 0 {
		b.WriteString("\nManifests:\n")
		for _, m := range s.Manifests {
			b.WriteString(fmt.Sprintf("  %s %s (%s, %d symbols)\n", okMark(), m.Path, m.Format, m.Symbols))
		}
	}

	b.WriteString("\n")
	b.WriteString(formatAliasesHuman(&AliasListResponse{Aliases: s.Aliases}))
	return b.String()
}

func shorten(s string, n int) string {
	if len(s) > n {
		return s[:n]
	}
	return s
}
