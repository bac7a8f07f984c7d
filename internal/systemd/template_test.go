package systemd

import (
	"strings"
	"testing"
)

func TestWatcherTemplate(t *testing.T) {
	tmpl := WatcherTemplate()

	for _, section := range []string{"[Unit]", "[Service]", "[Install]"} {
		if !strings.Contains(tmpl, section) {
			t.Errorf("template missing section %s", section)
		}
	}

	if !strings.Contains(tmpl, "%i") {
		t.Error("template missing %i instance specifier")
	}

	if !strings.Contains(tmpl, "faunanet daemon --profile %i") {
		t.Error("template missing faunanet daemon command")
	}

	for _, directive := range []string{"NoNewPrivileges=true", "PrivateTmp=true", "ProtectSystem=strict"} {
		if !strings.Contains(tmpl, directive) {
			t.Errorf("template missing security directive %s", directive)
		}
	}
}
