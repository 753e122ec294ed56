package components

import (
	"testing"
	"time"

	"github.com/caixa-installment-ledger/internal/clock"
	"github.com/caixa-installment-ledger/internal/commission_processor/service"
	"github.com/caixa-installment-ledger/internal/config"
	"github.com/stretchr/testify/assert"
)

func TestCreateDerivationService(t *testing.T) {
	clk := clock.NewFakeClock(time.Now())

	t.Run("Worker pool", func(t *testing.T) {
		cfg := &config.Config{WorkerPool: config.WorkerPoolConfig{Size: 4}}

		svc, release := CreateDerivationService(new(MockDirectory), new(MockCommissionRepo), clk, nil, newTestLogger(), cfg)
		defer release()

		pooled, ok := svc.(*service.WorkerPoolDerivationService)
		if assert.True(t, ok) {
			assert.Equal(t, 4, pooled.Capacity())
		}
	})

	t.Run("Falls back to the base service", func(t *testing.T) {
		cfg := &config.Config{WorkerPool: config.WorkerPoolConfig{Size: 0}}

		svc, release := CreateDerivationService(new(MockDirectory), new(MockCommissionRepo), clk, nil, newTestLogger(), cfg)
		defer release()

		_, ok := svc.(*service.DerivationServiceImpl)
		assert.True(t, ok)
	})
}
