// Command faunanet supervises acoustic monitoring of a directory of
// recordings, dispatching each new file to a pluggable analyzer model.
package main

import (
	"github.com/ssciwr/faunanet/internal/cli"

	_ "github.com/ssciwr/faunanet/internal/analyzer/birdnetcustom"
	_ "github.com/ssciwr/faunanet/internal/analyzer/birdnetdefault"
)

func main() {
	cli.Execute()
}
