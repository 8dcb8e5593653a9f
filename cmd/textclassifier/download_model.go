package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/helixml/textclassifier/infrastructure/provider"
)

func downloadModelCmd() *cobra.Command {
	var (
		envFile string
		model   string
		dest    string
		force   bool
	)

	cmd := &cobra.Command{
		Use:   "download-model",
		Short: "Download the local embedding model",
		Long: `Download a sentence-transformer model with ONNX weights from Hugging Face
into the model directory, where the hugot provider picks it up.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(envFile)
			if err != nil {
				return err
			}
			if dest == "" {
				dest = cfg.ModelDir()
			}

			out := cmd.OutOrStdout()
			if !force && provider.NewHugotEmbedding(dest).Available() {
				_, _ = fmt.Fprintf(out, "Model already present in %s\n", dest)
				return nil
			}

			_, _ = fmt.Fprintf(out, "Downloading %s to %s...\n", model, dest)
			path, err := provider.DownloadHugotModel(model, dest)
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintf(out, "Model ready at %s\n", path)
			return nil
		},
	}

	cmd.Flags().StringVar(&envFile, "env-file", "", "Path to .env file")
	cmd.Flags().StringVar(&model, "model", provider.DefaultHugotModel, "Hugging Face model to download")
	cmd.Flags().StringVar(&dest, "dest", "", "Destination directory (default: MODEL_DIR)")
	cmd.Flags().BoolVar(&force, "force", false, "Download even if a model is already present")

	return cmd
}
