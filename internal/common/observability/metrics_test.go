package observability

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestDisabledDropsMeasurements(t *testing.T) {
	var nilObs *Observability
	for _, o := range []*Observability{Disabled(), nilObs} {
		assert.NotPanics(t, func() {
			o.RecordJob(context.Background(), "assess-readiness", time.Second)
			o.RecordPortalCall(context.Background(), "verify", "success", time.Millisecond)
			o.Shutdown()
		})
	}
}

func TestNewRecords(t *testing.T) {
	o := New("visa-locker-test")
	defer o.Shutdown()

	assert.NotNil(t, o.meterProvider)
	assert.NotPanics(t, func() {
		o.RecordJob(context.Background(), "index-summary", 15*time.Millisecond)
		o.RecordPortalCall(context.Background(), "update_questions", "error", 3*time.Millisecond)
	})
}
