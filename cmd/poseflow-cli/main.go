package main

import "github.com/claude/poseflow/internal/cli"

func main() {
	cli.Execute()
}
