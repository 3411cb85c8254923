// Command test-inject is a manual test for text injection.
// It waits 3 seconds, then types or pastes test text.
// Focus a text editor before the countdown finishes.
//
// With --select it injects a second transcript afterwards that replaces
// the first, the way corrected dictation results are delivered.
//
// Usage:
//
//	go run ./cmd/test-inject [--method type|paste] [--select]
package main

import (
	"flag"
	"fmt"
	"time"

	"github.com/notune/speechcap/internal/inject"
)

func main() {
	method := flag.String("method", "type", "inject method: type or paste")
	replace := flag.Bool("select", false, "replace the first injection with a second one")
	flag.Parse()

	text := "Hello from speechcap!"

	fmt.Printf("Will inject %q using %q method in 3 seconds...\n", text, *method)
	fmt.Println("Focus a text editor now!")

	for i := 3; i > 0; i-- {
		fmt.Printf("%d...\n", i)
		time.Sleep(time.Second)
	}

	inj := inject.NewInjector(*method, *replace)
	if err := inj.Inject(text); err != nil {
		fmt.Printf("Error: %v\n", err)
		return
	}

	if *replace {
		fmt.Println("Replacing in 2 seconds...")
		time.Sleep(2 * time.Second)
		if err := inj.Inject("Hello again, replaced!"); err != nil {
			fmt.Printf("Error: %v\n", err)
			return
		}
	}

	fmt.Println("\nDone!")
}
