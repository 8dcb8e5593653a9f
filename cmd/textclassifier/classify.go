package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/helixml/textclassifier/application/service"
	"github.com/helixml/textclassifier/internal/log"
)

func classifyCmd() *cobra.Command {
	var (
		envFile string
		topK    int
		asJSON  bool
	)

	cmd := &cobra.Command{
		Use:   "classify [text...]",
		Short: "Classify text once and print the ranked categories",
		Long: `Classify text against the configured taxonomy and print the best
matching categories. Arguments are joined with spaces; with no arguments the
text is read from stdin.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			text := strings.Join(args, " ")
			if len(args) == 0 {
				data, err := io.ReadAll(cmd.InOrStdin())
				if err != nil {
					return fmt.Errorf("read stdin: %w", err)
				}
				text = string(data)
			}
			return runClassify(cmd.Context(), cmd.OutOrStdout(), envFile, text, topK, asJSON)
		},
	}

	cmd.Flags().StringVar(&envFile, "env-file", "", "Path to .env file")
	cmd.Flags().IntVarP(&topK, "top-k", "k", 0, "Number of categories to print (default: DEFAULT_TOP_K)")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print JSON instead of a table")

	return cmd
}

func runClassify(ctx context.Context, out io.Writer, envFile, text string, topK int, asJSON bool) error {
	cfg, err := loadConfig(envFile)
	if err != nil {
		return err
	}

	logger := log.Configure(cfg, log.WithWriter(os.Stderr))

	client, err := newClient(cfg, logger.Slog())
	if err != nil {
		return err
	}
	defer func() { _ = client.Close() }()

	if topK <= 0 {
		topK = client.DefaultTopK()
	}

	if ctx == nil {
		ctx = context.Background()
	}
	predictions, err := client.Classifier.Classify(ctx, text, topK)
	if err != nil {
		return err
	}

	return printPredictions(out, predictions, asJSON)
}

func printPredictions(out io.Writer, predictions []service.Prediction, asJSON bool) error {
	if asJSON {
		type row struct {
			Category   string  `json:"category"`
			Confidence float64 `json:"confidence"`
		}
		rows := make([]row, len(predictions))
		for i, p := range predictions {
			rows[i] = row{Category: p.Category, Confidence: p.Score}
		}
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(rows)
	}

	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	_, _ = fmt.Fprintln(tw, "CATEGORY\tCONFIDENCE")
	for _, p := range predictions {
		_, _ = fmt.Fprintf(tw, "%s\t%.4f\n", p.Category, p.Score)
	}
	return tw.Flush()
}
