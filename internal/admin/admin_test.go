package admin

import (
	"context"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCollectServerHealth(t *testing.T) {
	health := CollectServerHealth(context.Background())

	assert.Equal(t, "online", health.Status)
	assert.Equal(t, runtime.Version(), health.Runtime.GoVersion)
	assert.Positive(t, health.CPU.Cores)
	assert.Positive(t, health.Runtime.Goroutines)
	assert.NotEmpty(t, health.Runtime.StartTime)
	assert.NotEmpty(t, health.CPU.UsagePercent)
}

func TestGigabytes(t *testing.T) {
	assert.Equal(t, "1.00 GB", gigabytes(1<<30))
	assert.Equal(t, "0.50 GB", gigabytes(1<<29))
}
