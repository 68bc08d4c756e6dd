package ui

import (
	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/lipgloss"

	"github.com/orest-d/liquer/internal/theme"
)

func listItemStylesForTheme(th theme.Theme) list.DefaultItemStyles {
	styles := list.NewDefaultItemStyles()
	styles.NormalTitle = mergeListStyle(styles.NormalTitle, th.ListItemTitle)
	styles.NormalDesc = mergeListStyle(styles.NormalDesc, th.ListItemDetail)
	styles.SelectedTitle = mergeListStyle(styles.SelectedTitle, th.ListItemSelected)
	styles.SelectedDesc = mergeListStyle(styles.SelectedDesc, th.ListItemDetail)
	styles.DimmedTitle = mergeListStyle(styles.DimmedTitle, th.Muted)
	styles.DimmedDesc = mergeListStyle(styles.DimmedDesc, th.Muted)
	return styles
}

func mergeListStyle(base, override lipgloss.Style) lipgloss.Style {
	merged := override.Inherit(base)
	pt, pr, pb, pl := base.GetPadding()
	merged = merged.Padding(pt, pr, pb, pl)
	mt, mr, mb, ml := base.GetMargin()
	merged = merged.Margin(mt, mr, mb, ml)
	return merged
}

func listDelegateForTheme(th theme.Theme) list.DefaultDelegate {
	delegate := list.NewDefaultDelegate()
	delegate.ShowDescription = true
	delegate.Styles = listItemStylesForTheme(th)
	return delegate
}
