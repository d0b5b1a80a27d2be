package ui

import (
	"testing"

	"github.com/five82/wakubase/internal/settings"
)

func TestThemeForFollowsSetting(t *testing.T) {
	if got := ThemeFor(settings.ThemeDark).Name; got != "dark" {
		t.Fatalf("ThemeFor(dark).Name = %q", got)
	}
	if got := ThemeFor(settings.ThemeLight).Name; got != "light" {
		t.Fatalf("ThemeFor(light).Name = %q", got)
	}
	if got := ThemeFor("").Name; got != "light" {
		t.Fatalf("ThemeFor(\"\").Name = %q, want light fallback", got)
	}
}

func TestNextThemeToggles(t *testing.T) {
	if got := NextTheme(settings.ThemeLight); got != settings.ThemeDark {
		t.Fatalf("NextTheme(light) = %q", got)
	}
	if got := NextTheme(settings.ThemeDark); got != settings.ThemeLight {
		t.Fatalf("NextTheme(dark) = %q", got)
	}
}

func TestThemesDefineAllColors(t *testing.T) {
	for _, name := range []settings.Theme{settings.ThemeLight, settings.ThemeDark} {
		th := ThemeFor(name)
		colors := map[string]string{
			"Background": th.Background, "Surface": th.Surface, "Text": th.Text,
			"Muted": th.Muted, "Accent": th.Accent, "Success": th.Success,
			"Warning": th.Warning, "Danger": th.Danger, "Border": th.Border,
			"BorderFocus": th.BorderFocus, "SelectionBg": th.SelectionBg,
		}
		for field, value := range colors {
			if value == "" {
				t.Errorf("%s theme: %s is empty", name, field)
			}
		}
	}
}
