package main

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/helixml/textclassifier/domain/category"
)

func categoriesCmd() *cobra.Command {
	var (
		envFile string
		asYAML  bool
	)

	cmd := &cobra.Command{
		Use:   "categories",
		Short: "Print the taxonomy the server starts with",
		Long: `Print the categories loaded at startup: CATEGORIES_FILE when set,
otherwise the built-in defaults. --yaml prints a file usable as
CATEGORIES_FILE.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(envFile)
			if err != nil {
				return err
			}

			defs := category.Defaults()
			if path := cfg.CategoriesFile(); path != "" {
				defs, err = category.LoadTaxonomy(path)
				if err != nil {
					return err
				}
			}

			return printCategories(cmd.OutOrStdout(), defs, asYAML)
		},
	}

	cmd.Flags().StringVar(&envFile, "env-file", "", "Path to .env file")
	cmd.Flags().BoolVar(&asYAML, "yaml", false, "Print as a YAML taxonomy file")

	return cmd
}

func printCategories(out io.Writer, defs []category.Definition, asYAML bool) error {
	if asYAML {
		enc := yaml.NewEncoder(out)
		enc.SetIndent(2)
		if err := enc.Encode(category.Taxonomy{Categories: defs}); err != nil {
			return fmt.Errorf("encode taxonomy: %w", err)
		}
		return enc.Close()
	}

	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	_, _ = fmt.Fprintln(tw, "NAME\tDESCRIPTION")
	for _, d := range defs {
		_, _ = fmt.Fprintf(tw, "%s\t%s\n", category.NormalizeName(d.Name), d.Description)
	}
	return tw.Flush()
}
