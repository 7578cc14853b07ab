package memory

import (
	"testing"

	"github.com/jcmexdev/ecommerce-orders/internal/order-service/adapters/store/storetest"
	"github.com/jcmexdev/ecommerce-orders/internal/order-service/app"
)

func TestStore(t *testing.T) {
	storetest.Run(t, func(t *testing.T) app.Store { return NewStore() })
}
