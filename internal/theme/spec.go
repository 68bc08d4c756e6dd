package theme

import (
	"fmt"
	"sort"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

type Metadata struct {
	Name        string   `json:"name"        toml:"name"`
	Description string   `json:"description" toml:"description"`
	Author      string   `json:"author"      toml:"author"`
	Version     string   `json:"version"     toml:"version"`
	Tags        []string `json:"tags"        toml:"tags"`
}

// ThemeSpec is the on-disk form of a theme. Styles are keyed by the names
// returned from StyleNames.
type ThemeSpec struct {
	Metadata *Metadata            `json:"metadata" toml:"metadata"`
	Styles   map[string]StyleSpec `json:"styles"   toml:"styles"`
	Colors   ColorsSpec           `json:"colors"   toml:"colors"`
}

type ColorsSpec struct {
	PaneBorderFocus *string `json:"pane_border_focus" toml:"pane_border_focus"`
	StatusGray      *string `json:"status_gray"       toml:"status_gray"`
	StatusBlue      *string `json:"status_blue"       toml:"status_blue"`
	StatusYellow    *string `json:"status_yellow"     toml:"status_yellow"`
	StatusOrange    *string `json:"status_orange"     toml:"status_orange"`
	StatusGreen     *string `json:"status_green"      toml:"status_green"`
	StatusRed       *string `json:"status_red"        toml:"status_red"`
}

type StyleSpec struct {
	Foreground       *string `json:"foreground"        toml:"foreground"`
	Background       *string `json:"background"        toml:"background"`
	BorderColor      *string `json:"border_color"      toml:"border_color"`
	BorderBackground *string `json:"border_background" toml:"border_background"`
	BorderStyle      *string `json:"border_style"      toml:"border_style"`
	Bold             *bool   `json:"bold"              toml:"bold"`
	Italic           *bool   `json:"italic"            toml:"italic"`
	Underline        *bool   `json:"underline"         toml:"underline"`
	Faint            *bool   `json:"faint"             toml:"faint"`
	Strikethrough    *bool   `json:"strikethrough"     toml:"strikethrough"`
	Align            *string `json:"align"             toml:"align"`
}

func styleTargets(t *Theme) map[string]*lipgloss.Style {
	return map[string]*lipgloss.Style{
		"app_frame":          &t.AppFrame,
		"header":             &t.Header,
		"header_brand":       &t.HeaderBrand,
		"header_query":       &t.HeaderQuery,
		"header_value":       &t.HeaderValue,
		"header_separator":   &t.HeaderSeparator,
		"pane_border":        &t.PaneBorder,
		"pane_title":         &t.PaneTitle,
		"status_bar":         &t.StatusBar,
		"status_ok":          &t.StatusOK,
		"status_loading":     &t.StatusLoading,
		"status_error":       &t.StatusError,
		"status_badge":       &t.StatusBadge,
		"log_info":           &t.LogInfo,
		"log_error":          &t.LogError,
		"log_kind":           &t.LogKind,
		"prompt":             &t.Prompt,
		"prompt_input":       &t.PromptInput,
		"table_header":       &t.TableHeader,
		"table_cell":         &t.TableCell,
		"table_selected":     &t.TableSelected,
		"list_item_title":    &t.ListItemTitle,
		"list_item_detail":   &t.ListItemDetail,
		"list_item_selected": &t.ListItemSelected,
		"link":               &t.Link,
		"help":               &t.Help,
		"help_key":           &t.HelpKey,
		"notification":       &t.Notification,
		"error":              &t.Error,
		"success":            &t.Success,
		"muted":              &t.Muted,
	}
}

// StyleNames lists the style keys a theme file may override.
func StyleNames() []string {
	var t Theme
	targets := styleTargets(&t)
	names := make([]string, 0, len(targets))
	for name := range targets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// ApplySpec layers spec over base. Unknown style names and empty colours
// are errors; fields left nil keep the base value.
func ApplySpec(base Theme, spec ThemeSpec) (Theme, error) {
	out := base
	targets := styleTargets(&out)

	names := make([]string, 0, len(spec.Styles))
	for name := range spec.Styles {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		target, ok := targets[name]
		if !ok {
			return Theme{}, fmt.Errorf("styles: unknown style %q", name)
		}
		next, err := spec.Styles[name].apply(*target)
		if err != nil {
			return Theme{}, fmt.Errorf("%s: %w", name, err)
		}
		*target = next
	}

	for name, c := range map[string]struct {
		value *string
		dst   *lipgloss.Color
	}{
		"pane_border_focus": {spec.Colors.PaneBorderFocus, &out.PaneBorderFocus},
		"status_gray":       {spec.Colors.StatusGray, &out.Status.Gray},
		"status_blue":       {spec.Colors.StatusBlue, &out.Status.Blue},
		"status_yellow":     {spec.Colors.StatusYellow, &out.Status.Yellow},
		"status_orange":     {spec.Colors.StatusOrange, &out.Status.Orange},
		"status_green":      {spec.Colors.StatusGreen, &out.Status.Green},
		"status_red":        {spec.Colors.StatusRed, &out.Status.Red},
	} {
		if c.value == nil {
			continue
		}
		color, err := toColor(name, *c.value)
		if err != nil {
			return Theme{}, err
		}
		*c.dst = color
	}
	return out, nil
}

func (s StyleSpec) apply(st lipgloss.Style) (lipgloss.Style, error) {
	colors := []struct {
		field string
		value *string
		set   func(lipgloss.Style, lipgloss.TerminalColor) lipgloss.Style
	}{
		{"foreground", s.Foreground, lipgloss.Style.Foreground},
		{"background", s.Background, lipgloss.Style.Background},
		{"border_color", s.BorderColor, func(st lipgloss.Style, c lipgloss.TerminalColor) lipgloss.Style {
			return st.BorderForeground(c)
		}},
		{"border_background", s.BorderBackground, func(st lipgloss.Style, c lipgloss.TerminalColor) lipgloss.Style {
			return st.BorderBackground(c)
		}},
	}
	for _, c := range colors {
		if c.value == nil {
			continue
		}
		color, err := toColor(c.field, *c.value)
		if err != nil {
			return lipgloss.Style{}, err
		}
		st = c.set(st, color)
	}

	if s.BorderStyle != nil {
		if v := strings.ToLower(strings.TrimSpace(*s.BorderStyle)); v != "inherit" {
			border, err := parseBorderStyle(v)
			if err != nil {
				return lipgloss.Style{}, err
			}
			st = st.BorderStyle(border)
		}
	}

	flags := []struct {
		value *bool
		set   func(lipgloss.Style, bool) lipgloss.Style
	}{
		{s.Bold, lipgloss.Style.Bold},
		{s.Italic, lipgloss.Style.Italic},
		{s.Underline, lipgloss.Style.Underline},
		{s.Faint, lipgloss.Style.Faint},
		{s.Strikethrough, lipgloss.Style.Strikethrough},
	}
	for _, f := range flags {
		if f.value != nil {
			st = f.set(st, *f.value)
		}
	}

	if s.Align != nil {
		align, err := parseAlign(*s.Align)
		if err != nil {
			return lipgloss.Style{}, err
		}
		st = st.Align(align)
	}
	return st, nil
}

func toColor(field string, value string) (lipgloss.Color, error) {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return "", fmt.Errorf("%s: colour value may not be empty", field)
	}
	return lipgloss.Color(trimmed), nil
}

func parseAlign(value string) (lipgloss.Position, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "left", "start", "default", "":
		return lipgloss.Left, nil
	case "center", "centre", "middle":
		return lipgloss.Center, nil
	case "right", "end":
		return lipgloss.Right, nil
	default:
		return lipgloss.Left, fmt.Errorf("align: unknown alignment %q", value)
	}
}

func parseBorderStyle(value string) (lipgloss.Border, error) {
	switch value {
	case "":
		return lipgloss.Border{}, fmt.Errorf("border_style: value may not be empty")
	case "none", "hidden", "off":
		return lipgloss.Border{}, nil
	case "normal", "single":
		return lipgloss.NormalBorder(), nil
	case "rounded":
		return lipgloss.RoundedBorder(), nil
	case "thick", "heavy":
		return lipgloss.ThickBorder(), nil
	case "double":
		return lipgloss.DoubleBorder(), nil
	case "block":
		return lipgloss.BlockBorder(), nil
	default:
		return lipgloss.Border{}, fmt.Errorf("border_style: unknown border style %q", value)
	}
}
