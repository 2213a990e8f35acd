package commands

import (
	"github.com/google/uuid"

	"solartycoon/internal/catalog"
)

// Command represents a typed command for the GameService executor.
type Command interface {
	CommandID() string
	Name() string
}

// NewID returns a fresh random command id.
func NewID() string {
	return uuid.NewString()
}

// SyncState emits the current read model without changing game state.
type SyncState struct {
	ID string
}

func (c SyncState) CommandID() string {
	return c.ID
}

func (c SyncState) Name() string {
	return "SyncState"
}

// Tick accrues one production interval and exposes the amount gained.
type Tick struct {
	ID     string
	Gained float64
	Halted bool
}

func (c *Tick) CommandID() string {
	return c.ID
}

func (c *Tick) Name() string {
	return "Tick"
}

// Buy purchases Quantity units from the shop.
type Buy struct {
	ID       string
	ItemID   catalog.ItemID
	Quantity int
}

func (c Buy) CommandID() string {
	return c.ID
}

func (c Buy) Name() string {
	return "Buy"
}

// Sell returns one unplaced unit and exposes the refund.
type Sell struct {
	ID     string
	ItemID catalog.ItemID
	Refund float64
}

func (c *Sell) CommandID() string {
	return c.ID
}

func (c *Sell) Name() string {
	return "Sell"
}

// SelectItem arms an owned item for placement and leaves store mode.
type SelectItem struct {
	ID     string
	ItemID catalog.ItemID
}

func (c SelectItem) CommandID() string {
	return c.ID
}

func (c SelectItem) Name() string {
	return "SelectItem"
}

// ClearSelection cancels a pending placement.
type ClearSelection struct {
	ID string
}

func (c ClearSelection) CommandID() string {
	return c.ID
}

func (c ClearSelection) Name() string {
	return "ClearSelection"
}

// ToggleStoreMode flips store mode; entering it clears the selection.
type ToggleStoreMode struct {
	ID string
}

func (c ToggleStoreMode) CommandID() string {
	return c.ID
}

func (c ToggleStoreMode) Name() string {
	return "ToggleStoreMode"
}

// ClickCell stores the occupant in store mode and places the selection
// otherwise.
type ClickCell struct {
	ID    string
	Index int
}

func (c ClickCell) CommandID() string {
	return c.ID
}

func (c ClickCell) Name() string {
	return "ClickCell"
}

// Place puts one owned unit on an empty cell.
type Place struct {
	ID     string
	Index  int
	ItemID catalog.ItemID
}

func (c Place) CommandID() string {
	return c.ID
}

func (c Place) Name() string {
	return "Place"
}

// Store moves a placed unit back into the inventory.
type Store struct {
	ID    string
	Index int
}

func (c Store) CommandID() string {
	return c.ID
}

func (c Store) Name() string {
	return "Store"
}

// Swap exchanges the occupants of two cells.
type Swap struct {
	ID   string
	From int
	To   int
}

func (c Swap) CommandID() string {
	return c.ID
}

func (c Swap) Name() string {
	return "Swap"
}

// Rebirth resets progress for a permanent multiplier.
type Rebirth struct {
	ID string
}

func (c Rebirth) CommandID() string {
	return c.ID
}

func (c Rebirth) Name() string {
	return "Rebirth"
}

// UnlockExchange buys access to the credit exchange.
type UnlockExchange struct {
	ID string
}

func (c UnlockExchange) CommandID() string {
	return c.ID
}

func (c UnlockExchange) Name() string {
	return "UnlockExchange"
}

// ClaimCredit converts money into one credit.
type ClaimCredit struct {
	ID string
}

func (c ClaimCredit) CommandID() string {
	return c.ID
}

func (c ClaimCredit) Name() string {
	return "ClaimCredit"
}

// HardReset replaces the game with a pristine instance.
type HardReset struct {
	ID string
}

func (c HardReset) CommandID() string {
	return c.ID
}

func (c HardReset) Name() string {
	return "HardReset"
}
