package main

import (
	"fmt"
	"os"
	"path/filepath"

	jsoniter "github.com/json-iterator/go"
	"github.com/spf13/cobra"

	"inventory-vision/internal/domain/entity"
)

const exitUserError = 2

func newAnnotateCmd(rt *runtime) *cobra.Command {
	var outPath string

	cmd := &cobra.Command{
		Use:   "annotate <image>",
		Short: "Detect objects on a local image and print the result as JSON",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			content, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("read image: %w", err)
			}

			result, err := rt.container.PipelineService.Process(cmd.Context(), entity.UploadedImage{
				Filename: filepath.Base(args[0]),
				Content:  content,
			})
			if err != nil {
				if entity.IsUserError(err) {
					return &exitError{code: exitUserError, err: err}
				}
				return err
			}

			if outPath != "" {
				data, err := rt.container.Storage.Get(cmd.Context(), result.AnnotatedImage.Key)
				if err != nil {
					return fmt.Errorf("load annotated image: %w", err)
				}
				if err := os.WriteFile(outPath, data, 0o644); err != nil {
					return fmt.Errorf("write annotated image: %w", err)
				}
			}

			out, err := jsoniter.MarshalIndent(result, "", "  ")
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), string(out))
			return err
		},
	}

	cmd.Flags().StringVarP(&outPath, "out", "o", "", "also write the annotated PNG to this path")

	return cmd
}
