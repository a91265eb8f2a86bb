package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/abdidvp/shelfready/internal/domain"
)

// ── warm palette ──
var (
	accent    = lipgloss.Color("#D97706") // amber
	fg        = lipgloss.Color("#E8E6E3") // warm light gray
	dim       = lipgloss.Color("#6B7280") // muted gray
	faint     = lipgloss.Color("#3F3F46") // very dim
	success   = lipgloss.Color("#22C55E") // green
	danger    = lipgloss.Color("#EF4444") // red
	warning   = lipgloss.Color("#F59E0B") // amber-yellow
	info      = lipgloss.Color("#8B949E") // soft blue-gray
	skipColor = lipgloss.Color("#4B5563") // dark gray
)

var (
	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(accent).
			Align(lipgloss.Center)

	boxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(accent).
			Padding(1, 4).
			Align(lipgloss.Center).
			Width(68)

	gradeColors = map[string]lipgloss.Color{
		"A+": success,
		"A":  success,
		"B":  lipgloss.Color("#A3E635"), // lime
		"C":  warning,
		"D":  lipgloss.Color("#FB923C"), // orange
		"F":  danger,
	}

	fixTagStyles = map[domain.FixType]lipgloss.Style{
		domain.FixAuto:   lipgloss.NewStyle().Foreground(success).Bold(true),
		domain.FixAI:     lipgloss.NewStyle().Foreground(accent).Bold(true),
		domain.FixManual: lipgloss.NewStyle().Foreground(info),
	}

	dimStyle      = lipgloss.NewStyle().Foreground(dim)
	faintStyle    = lipgloss.NewStyle().Foreground(faint)
	passStyle     = lipgloss.NewStyle().Foreground(success)
	failStyle     = lipgloss.NewStyle().Foreground(danger)
	warnStyle     = lipgloss.NewStyle().Foreground(warning)
	skipStyle     = lipgloss.NewStyle().Foreground(skipColor)
	titleStyle    = lipgloss.NewStyle().Bold(true).Foreground(fg)
	separatorLine = faintStyle.Render(strings.Repeat("─", 64))
)

// RenderAudit formats one listing's audit for the terminal.
func RenderAudit(a *domain.AuditResult) string {
	var b strings.Builder

	// ── Header ──
	grade := a.Grade()
	title := headerStyle.Render("shelfready")
	subtitle := dimStyle.Render("Listing " + a.ListingID)
	scoreStyled := lipgloss.NewStyle().
		Bold(true).
		Foreground(gradeColor(grade)).
		Render(fmt.Sprintf("%d / 100", a.Score))
	status := failStyle.Render(string(a.Status))
	if a.Status == domain.AuditReady {
		status = passStyle.Render(string(a.Status))
	}

	b.WriteString(boxStyle.Render(title + "\n" + subtitle + "\n\n" + scoreStyled + "  " + gradeColorStyle(grade).Render(grade) + "  " + status))
	b.WriteString("\n\n")
	fmt.Fprintf(&b, "  %s %s\n\n", coloredBar(a.Score, 40),
		dimStyle.Render(fmt.Sprintf("%d passed · %d failed · %d auto-fixable · %d AI-fixable", a.Passed, a.Failed, a.AutoFixable, a.AIFixable)))

	// ── Rules ──
	for _, r := range a.Results {
		renderResult(&b, r)
	}

	b.WriteString("\n  " + separatorLine + "\n")
	if a.Failed == 0 {
		b.WriteString("  " + passStyle.Render("Ready to publish.") + "\n")
	} else if a.AutoFixable > 0 {
		b.WriteString("  " + dimStyle.Render("Run `shelfready fix --auto "+a.ListingID+"` to apply the automatic fixes.") + "\n")
	}
	return b.String()
}

func renderResult(b *strings.Builder, r domain.RuleResult) {
	name := padRight(r.Label, 28)
	weight := faintStyle.Render(fmt.Sprintf("×%d", r.Weight))
	if !r.Failed() {
		fmt.Fprintf(b, "    %s %s %s\n", passStyle.Render("●"), name, weight)
		return
	}
	fmt.Fprintf(b, "    %s %s %s  %s\n", failStyle.Render("●"), name, weight, fixTag(r.FixType))
	if r.Details != "" {
		fmt.Fprintf(b, "        %s\n", dimStyle.Render(r.Details))
	}
}

func fixTag(t domain.FixType) string {
	style, ok := fixTagStyles[t]
	if !ok {
		style = skipStyle
	}
	return style.Render(padRight(string(t), 6))
}

// RenderFixOutcomes lists fix results, one line each, followed by the new
// score when a re-audit happened.
func RenderFixOutcomes(outcomes []domain.FixOutcome, final *domain.AuditResult) string {
	var b strings.Builder
	if len(outcomes) == 0 {
		b.WriteString("  " + dimStyle.Render("Nothing to fix.") + "\n")
	}
	for _, o := range outcomes {
		renderOutcome(&b, o)
	}
	if final == nil {
		for i := len(outcomes) - 1; i >= 0; i-- {
			if outcomes[i].Audit != nil {
				final = outcomes[i].Audit
				break
			}
		}
	}
	if final != nil {
		grade := final.Grade()
		fmt.Fprintf(&b, "\n  %s %s %s\n", titleStyle.Render("Score"),
			gradeColorStyle(grade).Render(fmt.Sprintf("%d/100", final.Score)), grade)
	}
	return b.String()
}

func renderOutcome(b *strings.Builder, o domain.FixOutcome) {
	var icon string
	switch {
	case o.NoOp:
		icon = skipStyle.Render("○")
	case o.Success:
		icon = passStyle.Render("✓")
	case o.Denied != "":
		icon = warnStyle.Render("!")
	default:
		icon = failStyle.Render("✗")
	}
	label := string(o.RuleKey)
	if label == "" {
		label = "fix"
	}
	fmt.Fprintf(b, "  %s %s %s\n", icon, padRight(label, 22), dimStyle.Render(o.Message))
	for _, c := range o.Changes {
		fmt.Fprintf(b, "      %s %s %s %s\n", faintStyle.Render(c.Field+":"), dimStyle.Render(quote(c.Previous)),
			faintStyle.Render("→"), quote(c.New))
	}
}

// RenderBatchSummary formats the terminal report of a batch.
func RenderBatchSummary(s *domain.BatchSummary) string {
	var b strings.Builder
	fmt.Fprintf(&b, "\n  %s %s  %s\n", titleStyle.Render("Batch"), faintStyle.Render(s.JobID), dimStyle.Render(s.Operation))
	b.WriteString("  " + separatorLine + "\n")
	for _, r := range s.Results {
		icon := failStyle.Render("✗")
		switch {
		case r.NoOp:
			icon = skipStyle.Render("○")
		case r.Success:
			icon = passStyle.Render("✓")
		}
		fmt.Fprintf(&b, "  %s %s %s\n", icon, padRight(r.ListingID, 20), dimStyle.Render(r.Message))
	}
	b.WriteString("  " + separatorLine + "\n")
	fmt.Fprintf(&b, "  %s  %s  %s",
		dimStyle.Render(fmt.Sprintf("%d/%d processed", s.Processed, s.Total)),
		passStyle.Render(fmt.Sprintf("%d succeeded", s.Succeeded)),
		failStyle.Render(fmt.Sprintf("%d failed", s.Failed)))
	if s.Cancelled {
		b.WriteString("  " + warnStyle.Render("cancelled"))
	}
	b.WriteString("\n")
	return b.String()
}

// RenderHistory lists version history entries, newest first.
func RenderHistory(entries []domain.VersionEntry) string {
	if len(entries) == 0 {
		return "  " + dimStyle.Render("No changes recorded.") + "\n"
	}

	var b strings.Builder
	b.WriteString("\n")
	b.WriteString("  " + titleStyle.Render("Change History") + "\n")
	b.WriteString("  " + faintStyle.Render(strings.Repeat("─", 50)) + "\n\n")
	for _, e := range entries {
		fmt.Fprintf(&b, "  %s  %s  %s %s\n",
			dimStyle.Render(e.CreatedAt.Format("2006-01-02 15:04")),
			faintStyle.Render(e.ID),
			fixTag(e.Source),
			titleStyle.Render(e.Field))
		fmt.Fprintf(&b, "      %s %s %s\n", dimStyle.Render(quote(e.Previous)), faintStyle.Render("→"), quote(e.New))
	}
	return b.String()
}

// RenderRules lists a shop's checklist.
func RenderRules(defs []domain.RuleDefinition) string {
	if len(defs) == 0 {
		return "  " + dimStyle.Render("No rules configured. Run `shelfready rules seed`.") + "\n"
	}
	var b strings.Builder
	for _, d := range defs {
		state := passStyle.Render("on ")
		name := padRight(string(d.Key), 22)
		if !d.Enabled {
			state = skipStyle.Render("off")
			name = skipStyle.Render(name)
		}
		fmt.Fprintf(&b, "  %s %s %s %s %s\n", state, name, faintStyle.Render(fmt.Sprintf("×%d", d.EffectiveWeight())),
			fixTag(d.FixType), dimStyle.Render(d.Label))
	}
	return b.String()
}

// RenderCredits formats the gate's view of a shop's AI allowance.
func RenderCredits(d domain.GateDecision) string {
	switch {
	case !d.Allowed:
		return "  " + failStyle.Render(d.Reason.Message()) + "\n"
	case !d.UsingFallbackKey:
		return "  " + passStyle.Render("AI features use the shop's own key; credits are not metered.") + "\n"
	default:
		return fmt.Sprintf("  %s %s\n", titleStyle.Render(fmt.Sprintf("%d", d.CreditsRemaining)),
			dimStyle.Render("AI credits left this period"))
	}
}

func coloredBar(score, width int) string {
	filled := max(0, min(score*width/100, width))
	empty := width - filled

	color := scoreColor(score)
	filledStr := lipgloss.NewStyle().Foreground(color).Render(strings.Repeat("█", filled))
	emptyStr := lipgloss.NewStyle().Foreground(faint).Render(strings.Repeat("░", empty))
	return filledStr + emptyStr
}

func scoreColor(score int) lipgloss.Color {
	switch {
	case score >= 80:
		return success
	case score >= 60:
		return lipgloss.Color("#A3E635") // lime
	case score >= 40:
		return warning
	default:
		return danger
	}
}

func padRight(s string, width int) string {
	if n := lipgloss.Width(s); n < width {
		return s + strings.Repeat(" ", width-n)
	}
	return s
}

func quote(s string) string {
	if s == "" {
		return "(empty)"
	}
	if r := []rune(s); len(r) > 60 {
		s = string(r[:57]) + "..."
	}
	return fmt.Sprintf("%q", s)
}

func gradeColor(grade string) lipgloss.Color {
	if c, ok := gradeColors[grade]; ok {
		return c
	}
	return fg
}

func gradeColorStyle(grade string) lipgloss.Style {
	return lipgloss.NewStyle().Bold(true).Foreground(gradeColor(grade))
}
