package supervisor

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"testing"

	"github.com/ssciwr/faunanet/internal/analyzer"
)

// helperEnvVar, when set to "1" in the test binary's environment,
// makes TestMain behave as the "__worker" subcommand instead of running
// the test suite. spawnWorker re-execs the running binary as exePath,
// so pointing exePath at the test binary itself (with this env var set)
// gives integration tests a real worker process without a separate
// compiled helper.
const helperEnvVar = "FAUNANET_SUPERVISOR_TEST_HELPER"

const testModelName = "supervisor_test_model"

type fakeRecording struct {
	path       string
	analyzed   bool
	detections []analyzer.Detection
}

func (f *fakeRecording) Path() string                     { return f.path }
func (f *fakeRecording) SetPath(p string)                 { f.path = p; f.analyzed = false }
func (f *fakeRecording) Analyzed() bool                   { return f.analyzed }
func (f *fakeRecording) Detections() []analyzer.Detection { return f.detections }
func (f *fakeRecording) Analyze() error {
	f.analyzed = true
	f.detections = []analyzer.Detection{{"label": "test_species", "confidence": 0.9}}
	return nil
}

func init() {
	analyzer.Register(testModelName, func(p analyzer.FactoryParams) (analyzer.Recording, error) {
		return &fakeRecording{}, nil
	})
}

func TestMain(m *testing.M) {
	if os.Getenv(helperEnvVar) == "1" {
		os.Exit(runHelperWorker())
	}
	os.Exit(m.Run())
}

func runHelperWorker() int {
	if len(os.Args) < 3 || os.Args[1] != "__worker" {
		return 2
	}
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	defer cancel()
	if err := RunWorker(ctx, os.Args[2]); err != nil {
		return 1
	}
	return 0
}
