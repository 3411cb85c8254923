package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/notune/speechcap/internal/models"
)

func newModelCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "model [name]",
		Short: "Download a whisper model",
		Long: `Download a whisper ggml model from HuggingFace into the models
directory. Without a name, downloads base.en, the default model.

Available models: ` + strings.Join(models.Names(), ", "),
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			name := "base.en"
			if len(args) == 1 {
				name = args[0]
			}
			path, err := models.Download(name)
			if err != nil {
				return err
			}
			fmt.Printf("Model ready: %s\n", path)
			return nil
		},
	}
}
