package ui

import (
	"strings"
	"testing"
)

func TestRenderStatus(t *testing.T) {
	defer func(prev bool) { noColor = prev }(noColor)
	noColor = false

	for _, tc := range []struct {
		code int
		want string
	}{
		{200, "38;5;114m"},
		{404, "38;5;179m"},
		{500, "38;5;167m"},
		{302, "38;5;167m"},
	} {
		if got := RenderStatus(tc.code, "x"); !strings.Contains(got, tc.want) {
			t.Errorf("RenderStatus(%d) = %q, want color %q", tc.code, got, tc.want)
		}
	}
}

func TestForceNoColor(t *testing.T) {
	defer func(prev bool) { noColor = prev }(noColor)
	ForceNoColor()

	if got := RenderStatus(500, "500"); got != "500" {
		t.Errorf("RenderStatus = %q, want plain", got)
	}
	if got := RenderAction("deleted"); got != "deleted" {
		t.Errorf("RenderAction = %q, want plain", got)
	}
}

func TestShouldUseColor_NoColorEnv(t *testing.T) {
	t.Setenv("NO_COLOR", "1")
	t.Setenv("CLICOLOR_FORCE", "1")
	if ShouldUseColor() {
		t.Error("NO_COLOR should win over CLICOLOR_FORCE")
	}
}

func TestShouldUseColor_Force(t *testing.T) {
	t.Setenv("NO_COLOR", "")
	t.Setenv("CLICOLOR_FORCE", "1")
	if !ShouldUseColor() {
		t.Error("CLICOLOR_FORCE=1 should enable color")
	}
}
