// Package persistence serializes the game aggregate and keeps local and
// remote copies of it up to date.
package persistence

import (
	"encoding/json"
	"fmt"
	"math"
	"time"

	"solartycoon/internal/catalog"
	"solartycoon/internal/domain"
	"solartycoon/internal/engine"
)

const (
	// SchemaVersion is written into every snapshot.
	SchemaVersion = 2
	// MinSchemaVersion is the oldest layout that can still be migrated.
	// Unversioned snapshots are version 0.
	MinSchemaVersion = 1
)

// Upper bounds for integer fields read back from a snapshot.
const (
	maxCount   = math.MaxInt32
	maxCredits = 1 << 53
	maxMillis  = 1 << 53
)

type cellRecord struct {
	ID     int     `json:"id"`
	ItemID *string `json:"itemId"`
}

// Snapshot is the persisted layout. Timestamps are unix milliseconds and 0
// means never.
type Snapshot struct {
	SchemaVersion       int            `json:"schemaVersion"`
	Money               float64        `json:"money"`
	XP                  float64        `json:"xp"`
	Credits             int64          `json:"credits"`
	Grid                []cellRecord   `json:"grid"`
	Inventory           map[string]int `json:"inventory"`
	ShopStock           map[string]int `json:"shopStock"`
	NextStockRefresh    int64          `json:"nextStockRefresh"`
	LastSaveTime        int64          `json:"lastSaveTime"`
	TotalProductionRate float64        `json:"totalProductionRate"`
	RebirthLevel        int            `json:"rebirthLevel"`
	Multiplier          float64        `json:"multiplier"`
	IsExchangeUnlocked  bool           `json:"isExchangeUnlocked"`
	LastCreditClaimTime int64          `json:"lastCreditClaimTime"`
	Level               int            `json:"level"`
}

// migration upgrades a decoded field set from version v to v+1 in place.
type migration func(fields map[string]json.RawMessage)

var migrations = map[int]migration{
	// v1 stored the save instant as savedAt.
	1: func(fields map[string]json.RawMessage) {
		if _, ok := fields["lastSaveTime"]; !ok {
			if raw, ok := fields["savedAt"]; ok {
				fields["lastSaveTime"] = raw
			}
		}
		delete(fields, "savedAt")
	},
}

func millis(t time.Time) int64 {
	if t.IsZero() {
		return 0
	}
	return t.UnixMilli()
}

func fromMillis(ms int64) time.Time {
	if ms <= 0 {
		return time.Time{}
	}
	return time.UnixMilli(ms).UTC()
}

func toSnapshot(st domain.State, savedAt time.Time) Snapshot {
	snap := Snapshot{
		SchemaVersion:       SchemaVersion,
		Money:               st.Money,
		XP:                  st.Experience,
		Credits:             st.Credits,
		Grid:                make([]cellRecord, len(st.Grid)),
		Inventory:           make(map[string]int, len(st.Inventory)),
		ShopStock:           make(map[string]int, len(st.ShopStock)),
		NextStockRefresh:    millis(st.NextStockRefresh),
		LastSaveTime:        millis(savedAt),
		TotalProductionRate: st.TotalProductionRate,
		RebirthLevel:        st.RebirthLevel,
		Multiplier:          st.Multiplier,
		IsExchangeUnlocked:  st.ExchangeUnlocked,
		LastCreditClaimTime: millis(st.LastCreditClaimAt),
		Level:               st.Level,
	}
	for i, cell := range st.Grid {
		snap.Grid[i].ID = i
		if !cell.Empty() {
			id := string(cell.Occupant)
			snap.Grid[i].ItemID = &id
		}
	}
	for id, n := range st.Inventory {
		if n > 0 {
			snap.Inventory[string(id)] = n
		}
	}
	for id, n := range st.ShopStock {
		snap.ShopStock[string(id)] = n
	}
	return snap
}

// Codec converts between the aggregate and its persisted bytes. Decoding
// merges onto a fresh default so any absent or malformed field falls back
// instead of failing.
type Codec struct {
	eng *engine.Engine
}

func NewCodec(eng *engine.Engine) *Codec {
	return &Codec{eng: eng}
}

func (c *Codec) Encode(st domain.State, savedAt time.Time) ([]byte, error) {
	return json.Marshal(toSnapshot(st, savedAt))
}

// Decode returns domain.ErrCorruptSnapshot when the payload is not an object
// or money is missing or non-numeric, and domain.ErrIncompatibleSnapshot for
// versions outside [MinSchemaVersion, SchemaVersion].
func (c *Codec) Decode(data []byte, now time.Time) (domain.State, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return domain.State{}, fmt.Errorf("%w: %v", domain.ErrCorruptSnapshot, err)
	}
	if fields == nil {
		return domain.State{}, fmt.Errorf("%w: null payload", domain.ErrCorruptSnapshot)
	}

	version := 0
	if raw, ok := fields["schemaVersion"]; ok {
		if err := json.Unmarshal(raw, &version); err != nil {
			return domain.State{}, fmt.Errorf("%w: schemaVersion: %v", domain.ErrCorruptSnapshot, err)
		}
	}
	if version < MinSchemaVersion || version > SchemaVersion {
		return domain.State{}, fmt.Errorf("%w: version %d", domain.ErrIncompatibleSnapshot, version)
	}
	for v := version; v < SchemaVersion; v++ {
		if m, ok := migrations[v]; ok {
			m(fields)
		}
	}

	money, ok := number(fields, "money")
	if !ok {
		return domain.State{}, fmt.Errorf("%w: money missing or not a number", domain.ErrCorruptSnapshot)
	}

	st := c.eng.NewState(now)
	st.Money = math.Max(money, 0)
	if xp, ok := number(fields, "xp"); ok && xp >= 0 {
		st.Experience = xp
	}
	if credits, ok := whole(fields, "credits", maxCredits); ok {
		st.Credits = credits
	}
	if lvl, ok := whole(fields, "rebirthLevel", maxCount); ok {
		st.RebirthLevel = int(lvl)
	}
	if ms, ok := whole(fields, "nextStockRefresh", maxMillis); ok && ms > 0 {
		st.NextStockRefresh = fromMillis(ms)
	}
	if ms, ok := whole(fields, "lastSaveTime", maxMillis); ok && ms > 0 {
		st.LastSaveAt = fromMillis(ms)
	}
	if ms, ok := whole(fields, "lastCreditClaimTime", maxMillis); ok {
		st.LastCreditClaimAt = fromMillis(ms)
	}
	var unlocked bool
	if decode(fields, "isExchangeUnlocked", &unlocked) {
		st.ExchangeUnlocked = unlocked
	}

	c.mergeGrid(st, fields)
	c.mergeInventory(st, fields)
	c.mergeStock(st, fields)

	c.eng.Recompute(st)
	return *st, nil
}

func (c *Codec) known(id string) (catalog.ItemDefinition, bool) {
	return c.eng.Catalog().Lookup(catalog.ItemID(id))
}

// mergeGrid keeps the default length and takes occupants by position.
func (c *Codec) mergeGrid(st *domain.State, fields map[string]json.RawMessage) {
	var cells []cellRecord
	if !decode(fields, "grid", &cells) {
		return
	}
	for i, rec := range cells {
		if i >= len(st.Grid) {
			break
		}
		if rec.ItemID == nil {
			continue
		}
		if _, ok := c.known(*rec.ItemID); ok {
			st.Grid[i].Occupant = catalog.ItemID(*rec.ItemID)
		}
	}
}

func (c *Codec) mergeInventory(st *domain.State, fields map[string]json.RawMessage) {
	var inv map[string]float64
	if !decode(fields, "inventory", &inv) {
		return
	}
	for id, n := range inv {
		v, ok := bounded(n, maxCount)
		if _, known := c.known(id); !known || !ok || v < 1 {
			continue
		}
		st.Inventory[catalog.ItemID(id)] = int(v)
	}
}

// mergeStock starts from a full cycle and clamps whatever was persisted.
func (c *Codec) mergeStock(st *domain.State, fields map[string]json.RawMessage) {
	var stock map[string]float64
	if !decode(fields, "shopStock", &stock) {
		return
	}
	for id, n := range stock {
		def, ok := c.known(id)
		if !ok {
			continue
		}
		left := def.MaxStock
		if math.IsNaN(n) || n < 0 {
			left = 0
		} else if n < float64(def.MaxStock) {
			left = int(n)
		}
		st.ShopStock[def.ID] = left
	}
}

func decode(fields map[string]json.RawMessage, key string, dst any) bool {
	raw, ok := fields[key]
	if !ok || string(raw) == "null" {
		return false
	}
	return json.Unmarshal(raw, dst) == nil
}

// whole reads a non-negative number no larger than limit. Anything else is
// treated as absent so the field keeps its default.
func whole(fields map[string]json.RawMessage, key string, limit float64) (int64, bool) {
	f, ok := number(fields, key)
	if !ok {
		return 0, false
	}
	return bounded(f, limit)
}

func bounded(f, limit float64) (int64, bool) {
	if math.IsNaN(f) || f < 0 || f > limit {
		return 0, false
	}
	return int64(f), true
}

func number(fields map[string]json.RawMessage, key string) (float64, bool) {
	var f float64
	if !decode(fields, key, &f) {
		return 0, false
	}
	return f, true
}
