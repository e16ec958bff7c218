package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/samber/lo"

	"github.com/fyrsmithlabs/coachd/internal/analysis"
	"github.com/fyrsmithlabs/coachd/internal/orchestrator"
)

// summaryTop is how many feedback items and exercises the summary lists.
const summaryTop = 3

var (
	headerStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("0")).
			Background(lipgloss.Color("51")).
			Bold(true).
			Padding(0, 1)

	sectionStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("51")).
			Bold(true).
			MarginTop(1)

	labelStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("45")).
			Width(16)

	valueStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("231")).
			Bold(true)

	dimStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("245"))

	warningStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("226"))
)

// renderSummary writes the end-of-session summary for report.
func renderSummary(w io.Writer, report *orchestrator.SessionReport) error {
	var b strings.Builder
	m := report.Snapshot.Metrics

	b.WriteString(headerStyle.Render("Session Summary"))
	b.WriteString("\n")

	b.WriteString(sectionStyle.Render("Metrics"))
	b.WriteString("\n")
	writeRow(&b, "Speaking pace", voiceValue(m.Voice, func(v analysis.VocalMetrics) string {
		return fmt.Sprintf("%.0f WPM", v.WPM)
	}))
	writeRow(&b, "Filler words", voiceValue(m.Voice, func(v analysis.VocalMetrics) string {
		return fmt.Sprintf("%d", v.FillerCount)
	}))
	confidence := "n/a"
	if !m.Language.Failed() {
		confidence = fmt.Sprintf("%.0f%%", m.Language.Confidence*100)
	}
	writeRow(&b, "Confidence", confidence)
	eyeContact := "n/a"
	if !m.Vision.Failed() {
		eyeContact = fmt.Sprintf("%.0f%%", m.Vision.EyeContactProxy*100)
	}
	writeRow(&b, "Eye contact", eyeContact)

	record := report.Snapshot.Feedback
	if len(record.Feedback) > 0 {
		b.WriteString(sectionStyle.Render("Feedback"))
		b.WriteString("\n")
		for i, item := range lo.Subset(record.Feedback, 0, summaryTop) {
			fmt.Fprintf(&b, "  %d. %s %s\n", i+1, item.Message, dimStyle.Render("["+string(item.Tier)+"]"))
		}
	}

	if len(record.Recommendations) > 0 {
		b.WriteString(sectionStyle.Render("Practice"))
		b.WriteString("\n")
		for i, ex := range lo.Subset(record.Recommendations, 0, summaryTop) {
			fmt.Fprintf(&b, "  %d. %s\n", i+1, valueStyle.Render(ex.Title))
			if ex.SourceLink != "" {
				fmt.Fprintf(&b, "     %s\n", dimStyle.Render(ex.SourceLink))
			}
		}
	}

	b.WriteString(sectionStyle.Render("Progress"))
	b.WriteString("\n")
	writeRow(&b, "Note", report.ProgressNote)
	quality := "n/a"
	if report.QualityScore != nil {
		quality = fmt.Sprintf("%.2f", *report.QualityScore)
	}
	writeRow(&b, "Quality score", quality)
	writeRow(&b, "Session", report.SessionID)

	for _, warning := range report.Warnings {
		b.WriteString(warningStyle.Render("! " + warning))
		b.WriteString("\n")
	}

	_, err := io.WriteString(w, b.String())
	return err
}

func writeRow(b *strings.Builder, label, value string) {
	b.WriteString("  ")
	b.WriteString(labelStyle.Render(label))
	b.WriteString(valueStyle.Render(value))
	b.WriteString("\n")
}

func voiceValue(v analysis.VocalMetrics, format func(analysis.VocalMetrics) string) string {
	if v.Failed() {
		return "n/a"
	}
	return format(v)
}
