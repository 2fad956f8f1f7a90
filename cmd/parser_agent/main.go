// Package main provides the entry point for the statement parser agent CLI.
package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "parser_agent",
	Short: "Generate bank statement parsers with an LLM",
	Long: `parser_agent analyzes a bank statement PDF, asks a model to write a parser for it,
runs that parser, and checks its output against a reference CSV, retrying with feedback
until the output matches or the attempt budget is spent.`,
	SilenceUsage: true,
}

func main() {
	// Load .env file if it exists
	_ = godotenv.Load()

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
