// Command morse is the offline companion of the server:
//
//	morse encode <text>     text to Morse
//	morse decode <code>     Morse to text
//	morse table             the alphabet
//	morse render <text>     text to WAV or raw PCM
//	morse token             mint a gateway token
//	morse archive           list archived transmissions of a room
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
