package supervisor

import (
	"context"
	"fmt"
	"os"

	"github.com/ssciwr/faunanet/internal/signalpipe"
	"github.com/ssciwr/faunanet/internal/worker"
)

// RunWorker is the body of the hidden "__worker" subcommand: it recovers
// the handoff the supervisor wrote, reconstructs the three pipe
// endpoints it inherited as fds 3, 4, 5 (may_work-read, done-write,
// fault-write — the ExtraFiles order spawnWorker uses), and runs the
// worker loop until ctx is cancelled or it fails.
func RunWorker(ctx context.Context, handoffPath string) error {
	cfg, outputDir, usePolling, err := ReadHandoff(handoffPath)
	if err != nil {
		return err
	}

	mayWorkFile := os.NewFile(3, "may_work")
	doneFile := os.NewFile(4, "done_analyzing")
	faultFile := os.NewFile(5, "faults")
	if mayWorkFile == nil || doneFile == nil || faultFile == nil {
		return fmt.Errorf("supervisor: worker process missing inherited pipe file descriptors")
	}

	mayWork := signalpipe.New()
	receiver := signalpipe.NewReceiver(mayWorkFile, mayWork)
	go func() { _ = receiver.Run(ctx) }()

	wc := worker.Config{
		Cfg:        cfg,
		OutputDir:  outputDir,
		MayWork:    mayWork,
		Done:       signalpipe.New(),
		DoneSender: signalpipe.NewSender(doneFile),
		Faults:     signalpipe.NewFaultSender(faultFile),
		UsePolling: usePolling,
	}
	return worker.Run(ctx, wc)
}
