// Package main is the entry point for the playcall CLI, which stores NFL
// play-by-play corpora and recommends play calls for game situations.
package main

import "github.com/pable/playcall/cmd"

func main() {
	cmd.Execute()
}
