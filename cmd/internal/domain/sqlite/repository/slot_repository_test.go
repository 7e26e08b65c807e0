package repository

import (
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"slotswapper/cmd/internal/domain/entity"
	"slotswapper/cmd/internal/domain/sqlite"
	"slotswapper/cmd/internal/utils"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := sqlite.Init(":memory:")
	require.NoError(t, err)
	return db
}

func seedOwner(t *testing.T, db *gorm.DB, name string) *entity.User {
	t.Helper()
	now := utils.NowUTC()
	user := &entity.User{
		SubUUID:   uuid.NewString(),
		Username:  name,
		Email:     name + "@example.com",
		CreatedAt: now,
		UpdatedAt: now,
	}
	require.NoError(t, db.Create(user).Error)
	return user
}

func seedOwnedSlot(t *testing.T, db *gorm.DB, owner *entity.User, status entity.SlotStatus, beginsAt int64) *entity.Slot {
	t.Helper()
	now := utils.NowUTC()
	slot := &entity.Slot{
		Title:     "slot",
		BeginsAt:  beginsAt,
		EndsAt:    beginsAt + 3_600_000,
		Status:    status,
		UserID:    owner.ID,
		CreatedAt: now,
		UpdatedAt: now,
	}
	require.NoError(t, db.Create(slot).Error)
	return slot
}

func TestCompareAndSetStatus(t *testing.T) {
	db := newTestDB(t)
	repo := NewSlotRepository(db)
	owner := seedOwner(t, db, "alice")
	slot := seedOwnedSlot(t, db, owner, entity.SlotExchangeable, 1_000_000)

	flipped, err := repo.CompareAndSetStatus(slot.ID, entity.SlotExchangeable, entity.SlotPendingSwap, utils.NowUTC())
	require.NoError(t, err)
	assert.True(t, flipped)

	// The slot no longer holds the expected status, so nothing changes.
	flipped, err = repo.CompareAndSetStatus(slot.ID, entity.SlotExchangeable, entity.SlotPendingSwap, utils.NowUTC())
	require.NoError(t, err)
	assert.False(t, flipped)

	got, err := repo.FindByID(slot.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.SlotPendingSwap, got.Status)
}

func TestTransferOwnership(t *testing.T) {
	db := newTestDB(t)
	repo := NewSlotRepository(db)
	alice := seedOwner(t, db, "alice")
	bob := seedOwner(t, db, "bob")

	pending := seedOwnedSlot(t, db, alice, entity.SlotPendingSwap, 1_000_000)
	occupied := seedOwnedSlot(t, db, alice, entity.SlotOccupied, 2_000_000)

	moved, err := repo.TransferOwnership(pending.ID, bob.ID, utils.NowUTC())
	require.NoError(t, err)
	assert.True(t, moved)

	got, err := repo.FindByID(pending.ID)
	require.NoError(t, err)
	assert.Equal(t, bob.ID, got.UserID)
	assert.Equal(t, entity.SlotOccupied, got.Status)

	// Only PENDING_SWAP slots can change hands.
	moved, err = repo.TransferOwnership(occupied.ID, bob.ID, utils.NowUTC())
	require.NoError(t, err)
	assert.False(t, moved)

	got, err = repo.FindByID(occupied.ID)
	require.NoError(t, err)
	assert.Equal(t, alice.ID, got.UserID)
}

func TestGuardedOwnerWrites(t *testing.T) {
	db := newTestDB(t)
	repo := NewSlotRepository(db)
	owner := seedOwner(t, db, "alice")
	slot := seedOwnedSlot(t, db, owner, entity.SlotExchangeable, 1_000_000)

	stale, err := repo.FindByID(slot.ID)
	require.NoError(t, err)

	// A swap request commits between the owner's read and write.
	flipped, err := repo.CompareAndSetStatus(slot.ID, entity.SlotExchangeable, entity.SlotPendingSwap, utils.NowUTC())
	require.NoError(t, err)
	require.True(t, flipped)

	stale.Title = "edited"
	stale.Status = entity.SlotOccupied
	saved, err := repo.UpdateUnlessPending(stale)
	require.NoError(t, err)
	assert.False(t, saved)

	deleted, err := repo.DeleteUnlessPending(slot.ID)
	require.NoError(t, err)
	assert.False(t, deleted)

	got, err := repo.FindByID(slot.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.SlotPendingSwap, got.Status)
	assert.Equal(t, "slot", got.Title)

	// Once the swap resolves, owner writes go through again.
	flipped, err = repo.CompareAndSetStatus(slot.ID, entity.SlotPendingSwap, entity.SlotOccupied, utils.NowUTC())
	require.NoError(t, err)
	require.True(t, flipped)

	saved, err = repo.UpdateUnlessPending(stale)
	require.NoError(t, err)
	assert.True(t, saved)

	deleted, err = repo.DeleteUnlessPending(slot.ID)
	require.NoError(t, err)
	assert.True(t, deleted)
}

func TestFindSwappable(t *testing.T) {
	db := newTestDB(t)
	repo := NewSlotRepository(db)
	alice := seedOwner(t, db, "alice")
	bob := seedOwner(t, db, "bob")

	seedOwnedSlot(t, db, alice, entity.SlotExchangeable, 1_000_000)
	late := seedOwnedSlot(t, db, bob, entity.SlotExchangeable, 9_000_000)
	early := seedOwnedSlot(t, db, bob, entity.SlotExchangeable, 2_000_000)
	seedOwnedSlot(t, db, bob, entity.SlotOccupied, 3_000_000)
	seedOwnedSlot(t, db, bob, entity.SlotPendingSwap, 4_000_000)

	slots, err := repo.FindSwappable(alice.ID)
	require.NoError(t, err)
	require.Len(t, slots, 2)
	assert.Equal(t, early.ID, slots[0].ID)
	assert.Equal(t, late.ID, slots[1].ID)
	assert.Equal(t, "bob", slots[0].Owner.Username)
}

func TestWithTxRollsBackEveryWrite(t *testing.T) {
	db := newTestDB(t)
	manager := NewTxManager(db)
	alice := seedOwner(t, db, "alice")
	bob := seedOwner(t, db, "bob")
	slotA := seedOwnedSlot(t, db, alice, entity.SlotExchangeable, 1_000_000)
	slotB := seedOwnedSlot(t, db, bob, entity.SlotExchangeable, 2_000_000)

	boom := errors.New("boom")
	err := manager.WithTx(func(r TxRepositories) error {
		flipped, err := r.Slots.CompareAndSetStatus(slotA.ID, entity.SlotExchangeable, entity.SlotPendingSwap, utils.NowUTC())
		require.NoError(t, err)
		require.True(t, flipped)

		flipped, err = r.Slots.CompareAndSetStatus(slotB.ID, entity.SlotExchangeable, entity.SlotPendingSwap, utils.NowUTC())
		require.NoError(t, err)
		require.True(t, flipped)

		require.NoError(t, r.Swaps.Create(&entity.SwapRequest{
			RequesterSlotID: slotA.ID,
			TargetSlotID:    slotB.ID,
			RequesterID:     alice.ID,
			TargetUserID:    bob.ID,
			Status:          entity.SwapPending,
			CreatedAt:       utils.NowUTC(),
			UpdatedAt:       utils.NowUTC(),
		}))
		return boom
	})
	require.ErrorIs(t, err, boom)

	repo := NewSlotRepository(db)
	got, err := repo.FindByID(slotA.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.SlotExchangeable, got.Status)

	var count int64
	require.NoError(t, db.Model(&entity.SwapRequest{}).Count(&count).Error)
	assert.Zero(t, count)
}

func TestSwapRequestListsNewestFirst(t *testing.T) {
	db := newTestDB(t)
	repo := NewSwapRequestRepository(db)
	alice := seedOwner(t, db, "alice")
	bob := seedOwner(t, db, "bob")
	slotA := seedOwnedSlot(t, db, alice, entity.SlotPendingSwap, 1_000_000)
	slotB := seedOwnedSlot(t, db, bob, entity.SlotPendingSwap, 2_000_000)

	older := &entity.SwapRequest{
		RequesterSlotID: slotA.ID, TargetSlotID: slotB.ID,
		RequesterID: alice.ID, TargetUserID: bob.ID,
		Status: entity.SwapRejected, CreatedAt: 1_000, UpdatedAt: 1_000,
	}
	newer := &entity.SwapRequest{
		RequesterSlotID: slotA.ID, TargetSlotID: slotB.ID,
		RequesterID: alice.ID, TargetUserID: bob.ID,
		Status: entity.SwapPending, CreatedAt: 2_000, UpdatedAt: 2_000,
	}
	require.NoError(t, repo.Create(older))
	require.NoError(t, repo.Create(newer))

	outgoing, err := repo.FindByRequesterID(alice.ID)
	require.NoError(t, err)
	require.Len(t, outgoing, 2)
	assert.Equal(t, newer.ID, outgoing[0].ID)
	assert.Equal(t, "bob", outgoing[0].TargetUser.Username)

	incoming, err := repo.FindByTargetUserID(bob.ID)
	require.NoError(t, err)
	require.Len(t, incoming, 2)
	assert.Equal(t, "alice", incoming[0].Requester.Username)
}
