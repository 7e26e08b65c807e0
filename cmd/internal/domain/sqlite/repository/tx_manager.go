package repository

import "gorm.io/gorm"

// TxRepositories bundles repositories scoped to one database transaction.
type TxRepositories struct {
	Users *DefaultUserRepository
	Slots *DefaultSlotRepository
	Swaps *DefaultSwapRequestRepository
}

// TxManager runs a function against transaction-scoped repositories. Any
// error returned from fn rolls every write back, so multi-row mutations are
// all-or-nothing.
type TxManager interface {
	WithTx(fn func(repos TxRepositories) error) error
}

type GormTxManager struct {
	db *gorm.DB
}

func NewTxManager(db *gorm.DB) *GormTxManager {
	return &GormTxManager{db: db}
}

func (m *GormTxManager) WithTx(fn func(repos TxRepositories) error) error {
	return m.db.Transaction(func(tx *gorm.DB) error {
		return fn(TxRepositories{
			Users: NewUserRepository(tx),
			Slots: NewSlotRepository(tx),
			Swaps: NewSwapRequestRepository(tx),
		})
	})
}
