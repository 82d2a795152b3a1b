package main

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

var evaluateCmd = &cobra.Command{
	Use:   "evaluate [question]",
	Short: "Score RAG and LLM answers to a question",
	Long:  `Answer the question with both pipelines, score the answers, and print the evaluation as JSON.`,
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		a, err := startApp(ctx)
		if err != nil {
			return err
		}
		defer a.Close()

		result := a.Evaluation.EvaluateSingleQuestion(ctx, strings.Join(args, " "))

		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		if err := enc.Encode(result); err != nil {
			return err
		}
		if result.Failed() {
			return fmt.Errorf("evaluation failed: %s", result.Error)
		}
		return nil
	},
}
