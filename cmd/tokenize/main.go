// Command tokenize is the Go port of the original Assignment1/PartA.py
// standalone script: read a text file, tokenize it, and print
// "token count" lines ordered by descending frequency with an ascending
// alphabetical tie-break.
package main

import (
	"fmt"
	"os"

	"github.com/icscrawl/crawler/internal/tokenize"
)

func main() {
	if len(os.Args) != 2 {
		fmt.Fprintf(os.Stderr, "usage: %s <file>\n", os.Args[0])
		os.Exit(1)
	}

	f, err := os.Open(os.Args[1])
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	defer f.Close()

	counts := tokenize.Tokens(f)
	for _, c := range tokenize.Sorted(counts) {
		fmt.Printf("%s %d\n", c.Token, c.N)
	}
}
