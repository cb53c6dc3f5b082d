package main

import (
	"encoding/json"
	"errors"
	"log"
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	"docuquery/internal/app"
	"docuquery/internal/bootstrap"
)

func askCMD() *cobra.Command {
	var (
		document  string
		questions []string
		concepts  []string
		modelName string
		settings  app.AskSettings
		temp      float64
	)
	var ask = &cobra.Command{
		Use:     "ask",
		Short:   "Answer questions about one document and print the results as JSON",
		Example: `  docuquery ask --doc uploads/policy.pdf -q "What is covered?" -q "Who is insured?" --concept structured`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if document == "" || len(questions) == 0 {
				return errors.New("--doc and at least one -q are required")
			}
			settings.Temperature = temperatureFlag(cmd, temp)
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
			defer stop()

			a, err := bootstrap.New(ctx)
			if err != nil {
				return err
			}
			defer func() {
				if err := a.Close(); err != nil {
					log.Printf("close resources failed: %v", err)
				}
			}()

			results, err := a.RAG.AnswerQuestions(ctx, document, questions, app.AskOptions{
				Model:    modelName,
				Concepts: concepts,
				Settings: settings,
			})
			if err != nil {
				return err
			}
			if a.Runs.Enabled() {
				run := a.Runs.Record(ctx, document, a.RAG.ModelFor(modelName), results)
				log.Printf("recorded run %s", run.ID)
			}

			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(results)
		},
	}
	ask.Flags().StringVar(&document, "doc", "", "document path or http(s) URL")
	ask.Flags().StringArrayVarP(&questions, "question", "q", nil, "question to answer (repeatable)")
	ask.Flags().StringSliceVar(&concepts, "concept", nil, "prompting concepts: structured, chain-thought, dynamic, temperature")
	ask.Flags().StringVar(&modelName, "model", "", "model override")
	ask.Flags().IntVar(&settings.ChunkSize, "chunk-size", 0, "chunk size in characters (default from config)")
	ask.Flags().IntVar(&settings.ChunkOverlap, "chunk-overlap", 0, "chunk overlap in characters (default from config)")
	ask.Flags().IntVar(&settings.TopK, "top-k", 0, "chunks per question (default from config)")
	ask.Flags().Float64Var(&temp, "temperature", 0, "sampling temperature in [0,1] (default from config)")
	return ask
}

// temperatureFlag returns nil unless --temperature was given, so an explicit 0
// still overrides the configured value.
func temperatureFlag(cmd *cobra.Command, temp float64) *float64 {
	if !cmd.Flags().Changed("temperature") {
		return nil
	}
	return &temp
}
