package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "court",
	Short: "The People's Court: adjudicate social conflicts against AITA case law",
	Long: `Diagnostic CLI for the People's Court backend. Runs the full
adjudication pipeline (hybrid precedent retrieval, jury polling, judge
deliberation) against the local corpus and prints the verdict with
retrieval diagnostics.`,
}

func main() {
	rootCmd.AddCommand(adjudicateCmd)
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}
