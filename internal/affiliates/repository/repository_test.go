package repository

import (
	"context"
	"strings"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/shopspring/decimal"
)

// uniquePurchases stands in for the partial unique index on purchase order
// ids: a second purchase insert for the same order affects no rows.
type uniquePurchases struct {
	mu      sync.Mutex
	orders  map[uuid.UUID]bool
	inserts int
}

func (u *uniquePurchases) Exec(_ context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	if !strings.Contains(sql, "'purchase'") {
		return pgconn.NewCommandTag("INSERT 0 1"), nil
	}
	u.mu.Lock()
	defer u.mu.Unlock()
	orderID := args[3].(uuid.UUID)
	if u.orders[orderID] {
		return pgconn.NewCommandTag("INSERT 0 0"), nil
	}
	u.orders[orderID] = true
	u.inserts++
	return pgconn.NewCommandTag("INSERT 0 1"), nil
}

func TestRecordPurchaseOncePerOrder(t *testing.T) {
	tx := &uniquePurchases{orders: map[uuid.UUID]bool{}}
	params := PurchaseParams{
		VendorID:        uuid.New(),
		AffiliateCode:   "MARIAB7K2",
		ClientID:        uuid.New(),
		OrderID:         uuid.New(),
		OrderValue:      decimal.RequireFromString("300.00"),
		CommissionValue: decimal.RequireFromString("30.00"),
	}

	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		recorded int
	)
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ok, err := recordPurchase(context.Background(), tx, params)
			if err != nil {
				t.Errorf("record purchase: %v", err)
				return
			}
			if ok {
				mu.Lock()
				recorded++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	if recorded != 1 || tx.inserts != 1 {
		t.Fatalf("expected one purchase snapshot, got recorded=%d inserts=%d", recorded, tx.inserts)
	}
}

func TestPurchaseInsertTargetsUniqueIndex(t *testing.T) {
	if !strings.Contains(purchaseEventInsert, "ON CONFLICT (order_id) WHERE event_type = 'purchase' DO NOTHING") {
		t.Fatalf("purchase insert must defer to the unique order index:\n%s", purchaseEventInsert)
	}
}
