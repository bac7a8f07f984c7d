package profile

import (
	"os"
	"testing"

	"github.com/ssciwr/faunanet/internal/config"
)

func TestSaveLoadRoundTrip(t *testing.T) {
	t.Setenv("HOME", t.TempDir())

	p := &Profile{Name: "default", ModelName: "birdnet_default", Pattern: ".wav", CheckTime: 1, DeleteRecordings: config.DeleteNever}
	if err := Save(p); err != nil {
		t.Fatalf("Save: %v", err)
	}

	got, err := Load("default")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got.ModelName != "birdnet_default" {
		t.Fatalf("got ModelName %q", got.ModelName)
	}

	names := List()
	if len(names) != 1 || names[0] != "default" {
		t.Fatalf("List: %v", names)
	}
}

func TestValidateRejectsMissingModelName(t *testing.T) {
	if err := Validate(&Profile{Name: "x"}); err == nil {
		t.Fatal("expected error for missing model_name")
	}
}

func TestApplyToLeavesDirectoriesUntouched(t *testing.T) {
	p := &Profile{Name: "x", ModelName: "birdnet_custom", DeleteRecordings: config.DeleteAlways}
	cfg := config.WatcherConfig{InputDir: "/in", OutputRoot: "/out", ModelDir: "/models"}
	got := p.ApplyTo(cfg)

	if got.InputDir != "/in" || got.OutputRoot != "/out" || got.ModelDir != "/models" {
		t.Fatalf("directories should be untouched: %+v", got)
	}
	if got.ModelName != "birdnet_custom" || got.DeleteRecordings != config.DeleteAlways {
		t.Fatalf("profile fields not applied: %+v", got)
	}
}

func TestLoadMissingProfile(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	if _, err := Load("nope"); err == nil {
		t.Fatal("expected error for missing profile")
	}
	_ = os.Getenv("HOME")
}
