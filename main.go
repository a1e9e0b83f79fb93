package main

import "github.com/kayz/tokenbrush/cmd"

// build is set via ldflags
var build = "dev"

func main() {
	cmd.SetBuild(build)
	cmd.Execute()
}
