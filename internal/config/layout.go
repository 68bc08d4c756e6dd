package config

import "strings"

type LayoutLogPlacement string

const (
	LayoutLogBottom LayoutLogPlacement = "bottom"
	LayoutLogRight  LayoutLogPlacement = "right"
	LayoutLogHidden LayoutLogPlacement = "hidden"
)

type LayoutSettings struct {
	SidebarWidth float64            `json:"sidebar_width" toml:"sidebar_width"`
	LogSplit     float64            `json:"log_split"     toml:"log_split"`
	LogPlacement LayoutLogPlacement `json:"log_placement" toml:"log_placement"`
}

const (
	LayoutSidebarWidthDefault = 0.22
	LayoutSidebarWidthMin     = 0.1
	LayoutSidebarWidthMax     = 0.4
	LayoutLogSplitDefault     = 0.25
	LayoutLogSplitMin         = 0.1
	LayoutLogSplitMax         = 0.6
)

func DefaultLayoutSettings() LayoutSettings {
	return LayoutSettings{
		SidebarWidth: LayoutSidebarWidthDefault,
		LogSplit:     LayoutLogSplitDefault,
		LogPlacement: LayoutLogBottom,
	}
}

func NormaliseLayoutSettings(in LayoutSettings) LayoutSettings {
	layout := DefaultLayoutSettings()
	layout.SidebarWidth = clampFloat(
		in.SidebarWidth,
		LayoutSidebarWidthMin,
		LayoutSidebarWidthMax,
		LayoutSidebarWidthDefault,
	)
	layout.LogSplit = clampFloat(
		in.LogSplit,
		LayoutLogSplitMin,
		LayoutLogSplitMax,
		LayoutLogSplitDefault,
	)
	layout.LogPlacement = normaliseLogPlacement(in.LogPlacement, layout.LogPlacement)
	return layout
}

func normaliseLogPlacement(in LayoutLogPlacement, def LayoutLogPlacement) LayoutLogPlacement {
	switch strings.ToLower(strings.TrimSpace(string(in))) {
	case string(LayoutLogBottom):
		return LayoutLogBottom
	case string(LayoutLogRight):
		return LayoutLogRight
	case string(LayoutLogHidden):
		return LayoutLogHidden
	default:
		return def
	}
}

func clampFloat[T ~float64](value, min, max, fallback T) T {
	if value == 0 {
		return fallback
	}
	if value < min {
		return min
	}
	if value > max {
		return max
	}
	return value
}
