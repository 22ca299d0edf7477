package repositories

import (
	"errors"
	"fmt"
	"time"

	"fuelpass/internal/models"

	"gorm.io/gorm"
)

// ErrCaptureConflict means the session left the approved state before the
// capture could commit (a concurrent transition won).
var ErrCaptureConflict = errors.New("session is no longer capturable")

type LedgerRepository interface {
	// Capture commits the full capture unit of work atomically: invoice,
	// ledger row, session compare-and-swap to captured, and merchant running
	// totals. All of it succeeds or none of it does.
	Capture(session *models.CheckoutSession, commission, net float64, capturedAt time.Time) (*models.MerchantTransaction, *models.Invoice, error)
	ListTransactionsByMerchant(merchantID uint, limit int) ([]models.MerchantTransaction, error)
	// BatchSettlement groups a merchant's completed, unsettled transactions
	// under one payable reference.
	BatchSettlement(merchantID uint, reference string) (*models.Settlement, error)
}

type ledgerRepository struct {
	db *gorm.DB
}

func NewLedgerRepository(db *gorm.DB) LedgerRepository {
	return &ledgerRepository{db: db}
}

func (r *ledgerRepository) Capture(session *models.CheckoutSession, commission, net float64, capturedAt time.Time) (*models.MerchantTransaction, *models.Invoice, error) {
	invoice := &models.Invoice{
		SessionID:        session.ID,
		MerchantID:       session.MerchantID,
		Amount:           session.TotalAmount,
		InstallmentCount: session.InstallmentCount,
	}
	ledgerRow := &models.MerchantTransaction{
		MerchantID:       session.MerchantID,
		SessionID:        session.ID,
		GrossAmount:      session.TotalAmount,
		CommissionAmount: commission,
		NetAmount:        net,
		Currency:         session.Currency,
		Status:           models.TransactionStatusCompleted,
	}

	err := r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(invoice).Error; err != nil {
			return fmt.Errorf("create invoice: %w", err)
		}

		ledgerRow.InvoiceID = invoice.ID
		if err := tx.Create(ledgerRow).Error; err != nil {
			return fmt.Errorf("create ledger row: %w", err)
		}

		res := tx.Model(&models.CheckoutSession{}).
			Where("id = ? AND status = ?", session.ID, models.SessionStatusApproved).
			Updates(map[string]interface{}{
				"status":      models.SessionStatusCaptured,
				"invoice_id":  invoice.ID,
				"captured_at": capturedAt,
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected != 1 {
			return ErrCaptureConflict
		}

		// Merchant counters move only inside this transaction, never on
		// their own, so they cannot drift from the ledger.
		res = tx.Model(&models.Merchant{}).
			Where("id = ?", session.MerchantID).
			Updates(map[string]interface{}{
				"transaction_count": gorm.Expr("transaction_count + 1"),
				"monthly_volume":    gorm.Expr("monthly_volume + ?", session.TotalAmount),
			})
		if res.Error != nil {
			return res.Error
		}
		return nil
	})
	if err != nil {
		return nil, nil, err
	}

	return ledgerRow, invoice, nil
}

func (r *ledgerRepository) ListTransactionsByMerchant(merchantID uint, limit int) ([]models.MerchantTransaction, error) {
	var rows []models.MerchantTransaction
	err := r.db.Where("merchant_id = ?", merchantID).
		Order("created_at desc").
		Limit(limit).
		Find(&rows).Error
	return rows, err
}

func (r *ledgerRepository) BatchSettlement(merchantID uint, reference string) (*models.Settlement, error) {
	settlement := &models.Settlement{
		MerchantID: merchantID,
		Reference:  reference,
		Status:     models.SettlementStatusPending,
	}

	err := r.db.Transaction(func(tx *gorm.DB) error {
		var rows []models.MerchantTransaction
		if err := tx.Where("merchant_id = ? AND status = ? AND settlement_id IS NULL",
			merchantID, models.TransactionStatusCompleted).Find(&rows).Error; err != nil {
			return err
		}
		if len(rows) == 0 {
			return errors.New("no settleable transactions")
		}

		for _, row := range rows {
			settlement.GrossAmount += row.GrossAmount
			settlement.CommissionAmount += row.CommissionAmount
			settlement.NetAmount += row.NetAmount
		}
		settlement.TransactionCount = len(rows)

		if err := tx.Create(settlement).Error; err != nil {
			return err
		}

		ids := make([]uint, 0, len(rows))
		for _, row := range rows {
			ids = append(ids, row.ID)
		}
		return tx.Model(&models.MerchantTransaction{}).
			Where("id IN ?", ids).
			Update("settlement_id", settlement.ID).Error
	})
	if err != nil {
		return nil, err
	}
	return settlement, nil
}
