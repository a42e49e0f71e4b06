package wizard

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#F8B500")).
			MarginBottom(1)

	subtitleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#4ECDC4"))

	successStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#95E1A3"))

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF6B6B"))

	dimStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#6C757D"))

	boxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#4ECDC4")).
			Padding(1, 2)
)

var stepNames = []string{"Photos", "Voice story", "Contact", "Review"}

func (m Model) View() string {
	if m.quitting && m.step != stepDone {
		return ""
	}

	var b strings.Builder
	b.WriteString(titleStyle.Render("Artisan Upload"))
	b.WriteString("\n")
	b.WriteString(m.viewProgress())
	b.WriteString("\n\n")

	switch m.step {
	case stepImages:
		b.WriteString(m.viewImages())
	case stepAudio:
		b.WriteString(m.viewAudio())
	case stepContact:
		b.WriteString(m.viewContact())
	case stepReview:
		b.WriteString(m.viewReview())
	case stepSubmitting:
		b.WriteString(m.spinner.View())
		b.WriteString(" ")
		b.WriteString(subtitleStyle.Render("Uploading your work..."))
		b.WriteString("\n")
	case stepDone:
		b.WriteString(m.viewDone())
	}

	if m.err != "" {
		b.WriteString("\n")
		b.WriteString(errorStyle.Render("✗ " + m.err))
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(dimStyle.Render(m.helpText()))
	return b.String()
}

func (m Model) viewProgress() string {
	parts := make([]string, len(stepNames))
	for i, name := range stepNames {
		switch {
		case int(m.step) == i:
			parts[i] = subtitleStyle.Bold(true).Render(name)
		case int(m.step) > i:
			parts[i] = successStyle.Render(name)
		default:
			parts[i] = dimStyle.Render(name)
		}
	}
	return strings.Join(parts, dimStyle.Render(" › "))
}

func (m Model) viewImages() string {
	var b strings.Builder
	b.WriteString(subtitleStyle.Render("Product photos (comma separated files or folders):"))
	b.WriteString("\n\n")
	b.WriteString(m.pathInput.View())
	b.WriteString("\n")
	b.WriteString(m.viewVerdicts())
	return b.String()
}

func (m Model) viewVerdicts() string {
	if len(m.verdicts) == 0 {
		return ""
	}
	var b strings.Builder
	b.WriteString("\n")
	for _, v := range m.verdicts {
		if v.Accepted {
			b.WriteString(successStyle.Render("  ✓ " + v.Name))
		} else {
			b.WriteString(errorStyle.Render(fmt.Sprintf("  ✗ %s (%s)", v.Name, v.Reason)))
		}
		b.WriteString("\n")
	}
	return b.String()
}

func (m Model) viewAudio() string {
	var b strings.Builder
	if m.notice != "" {
		b.WriteString(successStyle.Render(m.notice))
		b.WriteString("\n\n")
	}
	if m.recording {
		b.WriteString(errorStyle.Render("● Recording"))
		b.WriteString("  ")
		if m.deps.Meter != nil {
			b.WriteString(subtitleStyle.Render(m.deps.Meter.Bars()))
		}
		b.WriteString("\n")
		return b.String()
	}
	b.WriteString(subtitleStyle.Render("Tell your story: audio file path, or ctrl+r to record (enter to skip):"))
	b.WriteString("\n\n")
	b.WriteString(m.pathInput.View())
	b.WriteString("\n")
	return b.String()
}

func (m Model) viewContact() string {
	var b strings.Builder
	if m.notice != "" {
		b.WriteString(successStyle.Render(m.notice))
		b.WriteString("\n\n")
	}
	b.WriteString(subtitleStyle.Render("Contact details:"))
	b.WriteString("\n\n")
	for _, f := range m.fields {
		b.WriteString(f.View())
		b.WriteString("\n")
	}
	return b.String()
}

func (m Model) viewReview() string {
	s := m.deps.Session
	var lines []string

	lines = append(lines, fmt.Sprintf("Photos:  %d", len(s.Images())))
	if a := s.Audio(); a != nil {
		lines = append(lines, "Audio:   "+a.Name)
	} else {
		lines = append(lines, "Audio:   none")
	}
	if c := s.Contact(); c != nil {
		lines = append(lines,
			"Name:    "+c.ArtisanName,
			"Phone:   "+c.PhoneNum,
			"Email:   "+valueOr(c.Email, "-"),
			"Address: "+c.ShopAddress,
		)
	}

	return boxStyle.Render(strings.Join(lines, "\n")) + "\n"
}

func (m Model) viewDone() string {
	var b strings.Builder
	b.WriteString(successStyle.Render("✓ Saved as " + m.handoff.Result.Filename))
	b.WriteString("\n")
	if m.landingPath != "" {
		b.WriteString(subtitleStyle.Render("Landing page: " + m.landingPath))
		b.WriteString("\n")
	}
	return b.String()
}

func (m Model) helpText() string {
	switch m.step {
	case stepImages:
		return "enter: continue • ctrl+c: quit"
	case stepAudio:
		if m.recording {
			return "ctrl+r/enter: stop recording • ctrl+c: quit"
		}
		return "enter: continue • ctrl+r: record • esc: back • ctrl+c: quit"
	case stepContact:
		return "tab/↓: next field • shift+tab/↑: previous • enter: continue • esc: back"
	case stepReview:
		return "enter: submit • esc: edit contact • q: quit"
	case stepDone:
		return "q: quit"
	}
	return ""
}

func valueOr(s, fallback string) string {
	if s == "" {
		return fallback
	}
	return s
}
