package main

import "github.com/pfrederiksen/domevents/internal/cli"

func main() {
	cli.Execute()
}
