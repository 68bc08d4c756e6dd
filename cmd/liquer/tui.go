package main

import (
	"context"
	"path/filepath"

	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/orest-d/liquer/internal/bindings"
	"github.com/orest-d/liquer/internal/config"
	"github.com/orest-d/liquer/internal/theme"
	"github.com/orest-d/liquer/internal/ui"
)

type uiResources struct {
	settings config.Settings
	bindings *bindings.Map
	theme    theme.Theme
}

// loadUIResources reads settings, key bindings, themes and history in
// parallel. Broken files are logged and replaced by defaults.
func (a *app) loadUIResources() uiResources {
	var (
		res     uiResources
		catalog theme.Catalog
		g       errgroup.Group
	)
	dir := config.Dir()

	g.Go(func() error {
		settings, _, err := config.LoadSettings()
		if err != nil {
			a.logger.Warn("settings load failed", zap.Error(err))
			settings = config.Settings{}
		}
		res.settings = settings.Normalise()
		return nil
	})
	g.Go(func() error {
		m, _, err := bindings.Load(dir)
		if err != nil {
			a.logger.Warn("bindings load failed", zap.Error(err))
			m = bindings.DefaultMap()
		}
		res.bindings = m
		return nil
	})
	g.Go(func() error {
		c, err := theme.LoadCatalog([]string{filepath.Join(dir, "themes")})
		if err != nil {
			a.logger.Warn("theme load failed", zap.Error(err))
		}
		catalog = c
		return nil
	})
	g.Go(func() error {
		if err := a.history.Load(); err != nil {
			a.logger.Warn("history load failed", zap.Error(err))
		}
		return nil
	})
	_ = g.Wait()

	def := catalog.Resolve(res.settings.DefaultTheme)
	if res.settings.DefaultTheme != "" && def.Key != res.settings.DefaultTheme {
		a.logger.Warn("theme not found; using default", zap.String("theme", res.settings.DefaultTheme))
	}
	res.theme = def.Theme
	return res
}

func (a *app) runTUI(ctx context.Context, initial string) error {
	res := a.loadUIResources()

	p := a.newPoller()
	defer p.Close()

	model := ui.New(ui.Config{
		Navigator:    p,
		Fetch:        a.client.Fetch,
		History:      a.history,
		Bindings:     res.bindings,
		Theme:        &res.theme,
		Settings:     res.settings,
		Server:       a.profile.Server,
		InitialQuery: initial,
		Version:      version,
		Logger:       a.logger.Named("ui"),
		Link:         a.client.URL,
	})
	defer model.Close()

	prog := tea.NewProgram(
		model,
		tea.WithAltScreen(),
		tea.WithMouseCellMotion(),
		tea.WithContext(ctxOrBackground(ctx)),
	)
	if _, err := prog.Run(); err != nil {
		return err
	}
	return nil
}
