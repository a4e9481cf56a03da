package gui

import (
	"testing"

	"figure-stand/internal/pipeline"

	"github.com/stretchr/testify/assert"
)

func TestStatusText(t *testing.T) {
	tests := []struct {
		name    string
		metrics pipeline.RunMetrics
		want    string
	}{
		{"loaded", pipeline.RunMetrics{State: "loaded"}, "Ready: loaded"},
		{"real asset", pipeline.RunMetrics{State: "composited", Pedestal: "16mm"}, "Ready: composited"},
		{
			"placeholder",
			pipeline.RunMetrics{State: "composited", Pedestal: "16mm", Placeholder: true},
			"Ready: composited (pedestal 16mm asset missing, placeholder drawn)",
		},
		{
			"placeholder survives merge",
			pipeline.RunMetrics{State: "merged", Pedestal: "20mm", Placeholder: true},
			"Ready: merged (pedestal 20mm asset missing, placeholder drawn)",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, statusText(tt.metrics))
		})
	}
}
