package events

import (
	"time"

	"github.com/bwmarrin/snowflake"

	"solartycoon/internal/catalog"
)

// EventType describes the kind of event emitted by the game.
type EventType string

const (
	EventTypeStateSynced      EventType = "StateSynced"
	EventTypeTicked           EventType = "Ticked"
	EventTypeStockRefreshed   EventType = "StockRefreshed"
	EventTypeBought           EventType = "Bought"
	EventTypeSold             EventType = "Sold"
	EventTypeSelectionChanged EventType = "SelectionChanged"
	EventTypePlaced           EventType = "Placed"
	EventTypeStored           EventType = "Stored"
	EventTypeSwapped          EventType = "Swapped"
	EventTypeReborn           EventType = "Reborn"
	EventTypeExchangeUnlocked EventType = "ExchangeUnlocked"
	EventTypeCreditClaimed    EventType = "CreditClaimed"
	EventTypeReset            EventType = "Reset"
)

// StateSyncedData is the read model a front end redraws from.
type StateSyncedData struct {
	Money            float64
	Experience       float64
	Level            int
	LevelFraction    float64
	ProductionRate   float64
	Credits          int64
	RebirthLevel     int
	Multiplier       float64
	NextRebirthCost  float64
	CanRebirth       bool
	CreditCooldown   time.Duration
	NextStockRefresh time.Time
	SelectedItem     catalog.ItemID
	StoreMode        bool
}

type TickedData struct {
	Gained float64
	Halted bool
	Level  int
}

type StockRefreshedData struct {
	NextRefresh time.Time
}

type BoughtData struct {
	ItemID   catalog.ItemID
	Quantity int
	Cost     float64
}

type SoldData struct {
	ItemID catalog.ItemID
	Refund float64
}

type SelectionChangedData struct {
	ItemID    catalog.ItemID
	StoreMode bool
}

type PlacedData struct {
	Index  int
	ItemID catalog.ItemID
}

type StoredData struct {
	Index  int
	ItemID catalog.ItemID
}

type SwappedData struct {
	From int
	To   int
}

type RebornData struct {
	RebirthLevel int
	Multiplier   float64
	Cost         float64
}

type CreditClaimedData struct {
	Credits int64
}

// Event represents a game event produced by command execution.
type Event struct {
	ID        snowflake.ID
	At        time.Time
	CommandID string
	Type      EventType
	Data      any
}

// New constructs a new Event with the provided fields.
func New(id snowflake.ID, at time.Time, commandID string, eventType EventType, data any) Event {
	return Event{
		ID:        id,
		At:        at,
		CommandID: commandID,
		Type:      eventType,
		Data:      data,
	}
}

// Recorder stamps events with ids from one snowflake node.
type Recorder struct {
	node *snowflake.Node
}

func NewRecorder(nodeID int64) (*Recorder, error) {
	node, err := snowflake.NewNode(nodeID)
	if err != nil {
		return nil, err
	}
	return &Recorder{node: node}, nil
}

func (r *Recorder) Record(at time.Time, commandID string, eventType EventType, data any) Event {
	return New(r.node.Generate(), at, commandID, eventType, data)
}
