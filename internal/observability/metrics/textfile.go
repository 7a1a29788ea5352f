package metrics

import (
	"errors"

	"github.com/prometheus/client_golang/prometheus"
)

// WriteTextfile writes every metric gathered from g to path in the text
// exposition format, for node_exporter's textfile collector.
func WriteTextfile(path string, g prometheus.Gatherer) error {
	if path == "" {
		return errors.New("metrics: empty textfile path")
	}
	if g == nil {
		g = prometheus.DefaultGatherer
	}
	return prometheus.WriteToTextfile(path, g)
}
