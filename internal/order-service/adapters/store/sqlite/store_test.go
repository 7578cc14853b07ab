package sqlite

import (
	"testing"

	"github.com/jcmexdev/ecommerce-orders/internal/order-service/adapters/store/storetest"
	"github.com/jcmexdev/ecommerce-orders/internal/order-service/app"
	"github.com/stretchr/testify/require"
)

func TestStore(t *testing.T) {
	storetest.Run(t, func(t *testing.T) app.Store {
		s, err := Open(":memory:")
		require.NoError(t, err)
		t.Cleanup(func() { _ = s.Close() })
		return s
	})
}
