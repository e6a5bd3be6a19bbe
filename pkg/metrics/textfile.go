package metrics

import (
	"os"
	"path/filepath"

	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
)

// WriteTextfile dumps every metric gathered from g into path using the node_exporter
// textfile collector format. The write is atomic.
func WriteTextfile(path string, g prometheus.Gatherer) error {
	if path == "" {
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return errors.Wrap(err, "failed to create metrics directory")
	}
	if err := prometheus.WriteToTextfile(path, g); err != nil {
		return errors.Wrap(err, "failed to write metrics textfile")
	}
	return nil
}
