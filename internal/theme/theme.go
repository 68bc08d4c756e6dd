package theme

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/orest-d/liquer/internal/liquer"
)

// StatusColors maps the server status palette onto terminal colours.
type StatusColors struct {
	Gray   lipgloss.Color
	Blue   lipgloss.Color
	Yellow lipgloss.Color
	Orange lipgloss.Color
	Green  lipgloss.Color
	Red    lipgloss.Color
}

func (c StatusColors) lookup(color liquer.Color) lipgloss.Color {
	switch color {
	case liquer.ColorBlue:
		return c.Blue
	case liquer.ColorYellow:
		return c.Yellow
	case liquer.ColorOrange:
		return c.Orange
	case liquer.ColorGreen:
		return c.Green
	case liquer.ColorRed:
		return c.Red
	default:
		return c.Gray
	}
}

type Theme struct {
	AppFrame         lipgloss.Style
	Header           lipgloss.Style
	HeaderBrand      lipgloss.Style
	HeaderQuery      lipgloss.Style
	HeaderValue      lipgloss.Style
	HeaderSeparator  lipgloss.Style
	PaneBorder       lipgloss.Style
	PaneTitle        lipgloss.Style
	PaneBorderFocus  lipgloss.Color
	StatusBar        lipgloss.Style
	StatusOK         lipgloss.Style
	StatusLoading    lipgloss.Style
	StatusError      lipgloss.Style
	StatusBadge      lipgloss.Style
	LogInfo          lipgloss.Style
	LogError         lipgloss.Style
	LogKind          lipgloss.Style
	Prompt           lipgloss.Style
	PromptInput      lipgloss.Style
	TableHeader      lipgloss.Style
	TableCell        lipgloss.Style
	TableSelected    lipgloss.Style
	ListItemTitle    lipgloss.Style
	ListItemDetail   lipgloss.Style
	ListItemSelected lipgloss.Style
	Link             lipgloss.Style
	Help             lipgloss.Style
	HelpKey          lipgloss.Style
	Notification     lipgloss.Style
	Error            lipgloss.Style
	Success          lipgloss.Style
	Muted            lipgloss.Style
	Status           StatusColors
}

func DefaultTheme() Theme {
	accent := lipgloss.Color("#7D56F4")
	base := lipgloss.NewStyle().Foreground(lipgloss.Color("#dcd7ff"))

	return Theme{
		AppFrame: lipgloss.NewStyle().
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#403B59")),
		Header: lipgloss.NewStyle().Foreground(lipgloss.Color("#E5E1FF")).Padding(0, 1),
		HeaderBrand: lipgloss.NewStyle().
			Foreground(lipgloss.Color("#1A1020")).
			Background(lipgloss.Color("#FBC859")).
			Bold(true).
			Padding(0, 1),
		HeaderQuery:     lipgloss.NewStyle().Foreground(accent).Bold(true),
		HeaderValue:     lipgloss.NewStyle().Foreground(lipgloss.Color("#D1CFF6")),
		HeaderSeparator: lipgloss.NewStyle().Foreground(lipgloss.Color("#867CC1")).Bold(true),
		PaneBorder: base.BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#5FB3B3")),
		PaneTitle:       lipgloss.NewStyle().Foreground(lipgloss.Color("#A78BFA")).Bold(true),
		PaneBorderFocus: accent,
		StatusBar:       lipgloss.NewStyle().Foreground(lipgloss.Color("#A6A1BB")).Padding(0, 1),
		StatusOK:        lipgloss.NewStyle().Foreground(lipgloss.Color("#6EF17E")).Bold(true),
		StatusLoading:   lipgloss.NewStyle().Foreground(lipgloss.Color("#FFD46A")).Bold(true),
		StatusError:     lipgloss.NewStyle().Foreground(lipgloss.Color("#FF6E6E")).Bold(true),
		StatusBadge:     lipgloss.NewStyle().Padding(0, 1).Bold(true),
		LogInfo:         lipgloss.NewStyle().Foreground(lipgloss.Color("#C2C0D9")),
		LogError:        lipgloss.NewStyle().Foreground(lipgloss.Color("#FF6E6E")),
		LogKind:         lipgloss.NewStyle().Foreground(lipgloss.Color("#6E6A86")),
		Prompt:          lipgloss.NewStyle().Foreground(accent).Bold(true),
		PromptInput:     lipgloss.NewStyle().Foreground(lipgloss.Color("#EAEAEA")),
		TableHeader: lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FDFBFF")).
			Background(lipgloss.Color("#433C59")).
			Bold(true),
		TableCell: lipgloss.NewStyle().Foreground(lipgloss.Color("#E6E1FF")),
		TableSelected: lipgloss.NewStyle().
			Foreground(lipgloss.Color("#0F111A")).
			Background(lipgloss.Color("#FFD46A")),
		ListItemTitle:  lipgloss.NewStyle().Foreground(lipgloss.Color("#E6E1FF")),
		ListItemDetail: lipgloss.NewStyle().Foreground(lipgloss.Color("#6E6A86")),
		ListItemSelected: lipgloss.NewStyle().
			Foreground(lipgloss.Color("#0F111A")).
			Background(lipgloss.Color("#FFD46A")).
			Bold(true),
		Link:    lipgloss.NewStyle().Foreground(lipgloss.Color("#56A9DD")).Underline(true),
		Help:    lipgloss.NewStyle().Foreground(lipgloss.Color("#A6A1BB")),
		HelpKey: lipgloss.NewStyle().Foreground(lipgloss.Color("#FF8B39")).Bold(true),
		Notification: lipgloss.NewStyle().
			Foreground(lipgloss.Color("#E0DEF4")).
			Background(lipgloss.Color("#433C59")).
			Padding(0, 1),
		Error:   lipgloss.NewStyle().Foreground(lipgloss.Color("#FF6E6E")),
		Success: lipgloss.NewStyle().Foreground(lipgloss.Color("#6EF17E")),
		Muted:   lipgloss.NewStyle().Foreground(lipgloss.Color("#5E5A72")),
		Status: StatusColors{
			Gray:   lipgloss.Color("#8A8A8A"),
			Blue:   lipgloss.Color("#5B9BF8"),
			Yellow: lipgloss.Color("#F5D547"),
			Orange: lipgloss.Color("#FF9F43"),
			Green:  lipgloss.Color("#6EF17E"),
			Red:    lipgloss.Color("#FF6E6E"),
		},
	}
}

// StatusStyle renders a server status badge in its palette colour.
func (t Theme) StatusStyle(status liquer.Status) lipgloss.Style {
	return t.StatusBadge.
		Foreground(lipgloss.Color("#0F111A")).
		Background(t.Status.lookup(status.Color()))
}

// IndicatorStyle styles the client side OK/LOADING/ERROR indicator.
func (t Theme) IndicatorStyle(indicator string) lipgloss.Style {
	switch indicator {
	case "ERROR":
		return t.StatusError
	case "LOADING":
		return t.StatusLoading
	default:
		return t.StatusOK
	}
}

// LogStyle picks the style for a metadata log entry kind.
func (t Theme) LogStyle(kind string) lipgloss.Style {
	if kind == "error" {
		return t.LogError
	}
	return t.LogInfo
}
