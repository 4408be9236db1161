package telemetry

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestWithProfilingLabels_RunsFn(t *testing.T) {
	for _, labels := range []map[string]string{nil, {}, {ProfilingLabelTenantID: "t1", ProfilingLabelOperation: "checkpoint"}} {
		called := false
		WithProfilingLabels(context.Background(), labels, func(ctx context.Context) {
			called = true
			assert.NotNil(t, ctx)
		})
		assert.True(t, called)
	}
}

func TestSanitizeLabels(t *testing.T) {
	pairs := sanitizeLabels(map[string]string{
		ProfilingLabelTenantID:  "tenant-a",
		ProfilingLabelOperation: "ingest",
		"user_id":               "u-1",
		"empty":                 "",
		"":                      "no-key",
	})
	assert.Equal(t, []string{"operation", "ingest", "tenant_id", "tenant-a"}, pairs)
}

func TestSanitizeLabels_TruncatesLongValues(t *testing.T) {
	pairs := sanitizeLabels(map[string]string{"route": strings.Repeat("x", MaxLabelValueLength+10)})
	assert.Len(t, pairs, 2)
	assert.Len(t, pairs[1], MaxLabelValueLength)
}

func TestSanitizeLabels_Empty(t *testing.T) {
	assert.Nil(t, sanitizeLabels(nil))
}
