package main

import "os"

var (
	version = "dev"
	commit  = "none"
)

func main() {
	os.Exit(run())
}

func run() int {
	root := newRootCmd()
	if err := root.Execute(); err != nil {
		return exitCodeFor(err)
	}
	return lastExitCode
}
