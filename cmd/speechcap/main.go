// Command speechcap captures speech from a microphone, the system audio
// output or an audio file and turns it into text.
package main

import "os"

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
