// Package main runs the memory scrubber of a simulated board.
package main

import "github.com/sarchlab/psp/pspscrub/cmd"

func main() {
	cmd.Execute()
}
