// Command overlap is the Go port of the original Assignment1/PartB.py
// standalone script: tokenize two files and print the count of tokens
// present in both (by presence, not by total occurrence count).
package main

import (
	"fmt"
	"os"

	"github.com/icscrawl/crawler/internal/tokenize"
)

func main() {
	if len(os.Args) != 3 {
		fmt.Fprintf(os.Stderr, "usage: %s <file1> <file2>\n", os.Args[0])
		os.Exit(1)
	}

	counts1, err := tokensOf(os.Args[1])
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	counts2, err := tokensOf(os.Args[2])
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	overlap := 0
	for tok := range counts1 {
		if _, ok := counts2[tok]; ok {
			overlap++
		}
	}
	fmt.Println(overlap)
}

func tokensOf(path string) (map[string]int, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return tokenize.Tokens(f), nil
}
