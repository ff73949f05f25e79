package ui

import "charm.land/lipgloss/v2"

type Theme struct {
	Header        lipgloss.Style
	Status        lipgloss.Style
	PanelTitle    lipgloss.Style
	PanelBorder   lipgloss.Style
	PanelBody     lipgloss.Style
	Selected      lipgloss.Style
	Footer        lipgloss.Style
	Accent        lipgloss.Style
	Warn          lipgloss.Style
	Muted         lipgloss.Style
	DeviceOutline lipgloss.Style
}

func DefaultTheme() Theme {
	return ThemeForVariant("oled")
}

func ThemeForVariant(variant string) Theme {
	switch variant {
	case "amber":
		return amberTheme()
	case "paper":
		return paperTheme()
	default:
		return oledTheme()
	}
}

func oledTheme() Theme {
	cyan := lipgloss.Color("#5EEBFF")
	white := lipgloss.Color("#EAF2FF")
	black := lipgloss.Color("#05070C")
	slate := lipgloss.Color("#1B2740")
	border := lipgloss.Color("#4B5F8A")
	coral := lipgloss.Color("#FF6F91")

	return Theme{
		Header: lipgloss.NewStyle().
			Background(slate).
			Foreground(white).
			Padding(0, 1),
		Status: lipgloss.NewStyle().
			Background(slate).
			Foreground(white).
			Padding(0, 1),
		PanelTitle: lipgloss.NewStyle().
			Foreground(cyan).
			Bold(true),
		PanelBorder: lipgloss.NewStyle().
			Foreground(border),
		PanelBody: lipgloss.NewStyle().
			Background(black).
			Foreground(white),
		Selected: lipgloss.NewStyle().
			Background(white).
			Foreground(black),
		Footer: lipgloss.NewStyle().
			Background(black).
			Foreground(cyan),
		Accent: lipgloss.NewStyle().
			Foreground(cyan).
			Bold(true),
		Warn: lipgloss.NewStyle().
			Foreground(coral).
			Bold(true),
		Muted: lipgloss.NewStyle().
			Foreground(lipgloss.Color("#9CAAC6")),
		DeviceOutline: lipgloss.NewStyle().
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(border).
			Padding(0, 1),
	}
}

func amberTheme() Theme {
	amber := lipgloss.Color("#FFB000")
	dim := lipgloss.Color("#7A5400")
	deep := lipgloss.Color("#140C00")
	red := lipgloss.Color("#FF6B6B")

	return Theme{
		Header:      lipgloss.NewStyle().Background(deep).Foreground(amber).Padding(0, 1),
		Status:      lipgloss.NewStyle().Background(deep).Foreground(amber).Padding(0, 1),
		PanelTitle:  lipgloss.NewStyle().Foreground(amber).Bold(true),
		PanelBorder: lipgloss.NewStyle().Foreground(dim),
		PanelBody:   lipgloss.NewStyle().Background(deep).Foreground(amber),
		Selected:    lipgloss.NewStyle().Background(amber).Foreground(deep),
		Footer:      lipgloss.NewStyle().Background(deep).Foreground(dim),
		Accent:      lipgloss.NewStyle().Foreground(amber).Bold(true),
		Warn:        lipgloss.NewStyle().Foreground(red).Bold(true),
		Muted:       lipgloss.NewStyle().Foreground(dim),
		DeviceOutline: lipgloss.NewStyle().
			BorderStyle(lipgloss.DoubleBorder()).
			BorderForeground(dim).
			Padding(0, 1),
	}
}

func paperTheme() Theme {
	ink := lipgloss.Color("#1E2430")
	paper := lipgloss.Color("#F4F6FA")
	grey := lipgloss.Color("#A3ACC2")
	rose := lipgloss.Color("#D17A86")

	return Theme{
		Header:      lipgloss.NewStyle().Background(grey).Foreground(ink).Padding(0, 1),
		Status:      lipgloss.NewStyle().Background(grey).Foreground(ink).Padding(0, 1),
		PanelTitle:  lipgloss.NewStyle().Foreground(ink).Bold(true),
		PanelBorder: lipgloss.NewStyle().Foreground(grey),
		PanelBody:   lipgloss.NewStyle().Background(paper).Foreground(ink),
		Selected:    lipgloss.NewStyle().Background(ink).Foreground(paper),
		Footer:      lipgloss.NewStyle().Background(paper).Foreground(grey),
		Accent:      lipgloss.NewStyle().Foreground(ink).Bold(true),
		Warn:        lipgloss.NewStyle().Foreground(rose).Bold(true),
		Muted:       lipgloss.NewStyle().Foreground(grey),
		DeviceOutline: lipgloss.NewStyle().
			BorderStyle(lipgloss.NormalBorder()).
			BorderForeground(grey).
			Padding(0, 1),
	}
}
