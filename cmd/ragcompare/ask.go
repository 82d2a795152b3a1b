package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"ragcompare-backend/models"

	"github.com/spf13/cobra"
)

// Answer modes accepted by --mode
const (
	modeLLM         = "llm"
	modeRAG         = "rag"
	modeRAGSimple   = "rag-simple"
	modeRAGDetailed = "rag-detailed"
)

var askModes = []string{modeLLM, modeRAG, modeRAGSimple, modeRAGDetailed}

var askMode string

var askCmd = &cobra.Command{
	Use:   "ask [question]",
	Short: "Answer a question",
	Long: `Answer a question with the model alone (llm), with cited retrieval (rag),
with uncited retrieval (rag-simple), or with cited retrieval plus source metadata (rag-detailed).`,
	Args: cobra.MinimumNArgs(1),
	PreRunE: func(cmd *cobra.Command, args []string) error {
		return validateMode(askMode)
	},
	RunE: runAsk,
}

func init() {
	askCmd.Flags().StringVarP(&askMode, "mode", "m", modeRAG, "Answer mode: "+strings.Join(askModes, ", "))
}

func validateMode(mode string) error {
	for _, m := range askModes {
		if m == mode {
			return nil
		}
	}
	return fmt.Errorf("unknown mode %q (want one of %s)", mode, strings.Join(askModes, ", "))
}

// answerer is the slice of the services the ask command uses
type answerer interface {
	llmAnswer(ctx context.Context, question string) string
	ragAnswer(ctx context.Context, question string) (string, error)
	ragSimple(ctx context.Context, question string) string
	ragDetailed(ctx context.Context, question string) (*models.RAGAnswer, error)
}

func runAsk(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	a, err := startApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	return ask(ctx, cmd.OutOrStdout(), appAnswerer{a}, askMode, strings.Join(args, " "))
}

func ask(ctx context.Context, out io.Writer, svc answerer, mode, question string) error {
	switch mode {
	case modeLLM:
		fmt.Fprintln(out, svc.llmAnswer(ctx, question))
	case modeRAG:
		answer, err := svc.ragAnswer(ctx, question)
		if err != nil {
			return err
		}
		fmt.Fprintln(out, answer)
	case modeRAGSimple:
		fmt.Fprintln(out, svc.ragSimple(ctx, question))
	case modeRAGDetailed:
		answer, err := svc.ragDetailed(ctx, question)
		if err != nil {
			return err
		}
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(answer)
	default:
		return validateMode(mode)
	}
	return nil
}
