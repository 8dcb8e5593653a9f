package provider

import (
	"fmt"
	"os"

	"github.com/knights-analytics/hugot"
)

// DownloadHugotModel fetches a Hugging Face model with its ONNX weights into
// dest and returns the model directory. The result is what HugotEmbedding
// expects to find in its model directory.
func DownloadHugotModel(name, dest string) (string, error) {
	if name == "" {
		name = DefaultHugotModel
	}
	if err := os.MkdirAll(dest, 0o755); err != nil {
		return "", fmt.Errorf("create model directory: %w", err)
	}

	opts := hugot.NewDownloadOptions()
	opts.OnnxFilePath = "onnx/model.onnx"
	path, err := hugot.DownloadModel(name, dest, opts)
	if err != nil {
		return "", fmt.Errorf("download model %s: %w", name, err)
	}
	return path, nil
}
