package cli

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/ssciwr/faunanet/internal/profile"
)

func resetInitFlags() {
	initProfileName = ""
	initModelName = ""
	initInstallSystemd = false
	initForce = false
}

func TestRunInit_CreatesBaseDirs(t *testing.T) {
	tmpDir := t.TempDir()
	t.Setenv("HOME", tmpDir)
	resetInitFlags()

	if err := runInit(nil, nil); err != nil {
		t.Fatalf("runInit failed: %v", err)
	}

	base := filepath.Join(tmpDir, ".faunanet")
	if _, err := os.Stat(filepath.Join(base, "profiles")); err != nil {
		t.Error("profiles directory not created")
	}
}

func TestRunInit_WritesProfile(t *testing.T) {
	tmpDir := t.TempDir()
	t.Setenv("HOME", tmpDir)
	resetInitFlags()
	initProfileName = "backyard"
	initModelName = "birdnet_default"

	if err := runInit(nil, nil); err != nil {
		t.Fatalf("runInit failed: %v", err)
	}

	prof, err := profile.Load("backyard")
	if err != nil {
		t.Fatalf("profile was not written: %v", err)
	}
	if prof.ModelName != "birdnet_default" {
		t.Errorf("model_name = %q, want birdnet_default", prof.ModelName)
	}
}

func TestRunInit_ProfileRequiresModelName(t *testing.T) {
	tmpDir := t.TempDir()
	t.Setenv("HOME", tmpDir)
	resetInitFlags()
	initProfileName = "backyard"

	if err := runInit(nil, nil); err == nil {
		t.Fatal("expected error when --profile is given without --model-name")
	}
}

func TestRunInit_NoOverwriteWithoutForce(t *testing.T) {
	tmpDir := t.TempDir()
	t.Setenv("HOME", tmpDir)
	resetInitFlags()
	initProfileName = "backyard"
	initModelName = "birdnet_default"

	if err := runInit(nil, nil); err != nil {
		t.Fatalf("first runInit failed: %v", err)
	}

	initModelName = "other_model"
	if err := runInit(nil, nil); err == nil {
		t.Fatal("expected error re-creating an existing profile without --force")
	}

	prof, err := profile.Load("backyard")
	if err != nil {
		t.Fatalf("profile missing: %v", err)
	}
	if prof.ModelName != "birdnet_default" {
		t.Errorf("profile was overwritten without --force: model_name = %q", prof.ModelName)
	}
}

func TestRunInit_ForceOverwrites(t *testing.T) {
	tmpDir := t.TempDir()
	t.Setenv("HOME", tmpDir)
	resetInitFlags()
	initProfileName = "backyard"
	initModelName = "birdnet_default"

	if err := runInit(nil, nil); err != nil {
		t.Fatalf("first runInit failed: %v", err)
	}

	initModelName = "other_model"
	initForce = true
	if err := runInit(nil, nil); err != nil {
		t.Fatalf("forced runInit failed: %v", err)
	}

	prof, err := profile.Load("backyard")
	if err != nil {
		t.Fatalf("profile missing: %v", err)
	}
	if prof.ModelName != "other_model" {
		t.Errorf("profile not overwritten with --force: model_name = %q", prof.ModelName)
	}
}
