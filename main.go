package main

import "github.com/pstuifzand/scene-diff/internal/cli"

func main() {
	cli.Execute()
}
