package persistence

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"solartycoon/internal/catalog"
	"solartycoon/internal/config"
	"solartycoon/internal/domain"
	"solartycoon/internal/engine"
)

var testNow = time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

func newCodec() (*Codec, *engine.Engine) {
	eng := engine.New(config.Default().Game, catalog.Default())
	return NewCodec(eng), eng
}

func TestEncodeDecodeRoundTrip(t *testing.T) {
	codec, eng := newCodec()
	st := eng.NewState(testNow)
	st.Money = 4321.5
	st.Experience = 2000
	st.Credits = 3
	st.RebirthLevel = 1
	st.ExchangeUnlocked = true
	st.LastCreditClaimAt = testNow.Add(-time.Hour)
	st.Inventory.Add("panel_adv", 2)
	st.ShopStock["panel_basic"] = 12
	st.Grid[5].Occupant = "plasma_conner"
	eng.Recompute(st)

	data, err := codec.Encode(*st, testNow)
	require.NoError(t, err)

	got, err := codec.Decode(data, testNow.Add(time.Minute))
	require.NoError(t, err)

	assert.Equal(t, st.Money, got.Money)
	assert.Equal(t, st.Experience, got.Experience)
	assert.Equal(t, st.Credits, got.Credits)
	assert.Equal(t, 1, got.RebirthLevel)
	assert.Equal(t, 1.5, got.Multiplier)
	assert.Equal(t, 3, got.Level)
	assert.True(t, got.ExchangeUnlocked)
	assert.True(t, got.LastCreditClaimAt.Equal(st.LastCreditClaimAt))
	assert.True(t, got.NextStockRefresh.Equal(st.NextStockRefresh))
	assert.True(t, got.LastSaveAt.Equal(testNow))
	assert.Equal(t, 2, got.Inventory.Count("panel_adv"))
	assert.Equal(t, 12, got.ShopStock["panel_basic"])
	assert.Equal(t, catalog.ItemID("plasma_conner"), got.Grid[5].Occupant)
	assert.Equal(t, 1200.0, got.TotalProductionRate)
}

func TestEncodeUsesMillisAndNullCells(t *testing.T) {
	codec, eng := newCodec()
	st := eng.NewState(testNow)
	st.Grid[1].Occupant = "panel_basic"

	data, err := codec.Encode(*st, testNow)
	require.NoError(t, err)

	var snap Snapshot
	require.NoError(t, json.Unmarshal(data, &snap))
	assert.Equal(t, SchemaVersion, snap.SchemaVersion)
	assert.Equal(t, testNow.UnixMilli(), snap.LastSaveTime)
	assert.Zero(t, snap.LastCreditClaimTime)
	assert.Len(t, snap.Grid, 64)
	assert.Nil(t, snap.Grid[0].ItemID)
	require.NotNil(t, snap.Grid[1].ItemID)
	assert.Equal(t, "panel_basic", *snap.Grid[1].ItemID)
	assert.Equal(t, 1, snap.Grid[1].ID)
}

func TestDecodeMissingExperienceDefaultsToZero(t *testing.T) {
	codec, _ := newCodec()
	got, err := codec.Decode([]byte(`{"schemaVersion":2,"money":5000}`), testNow)
	require.NoError(t, err)

	assert.Equal(t, 5000.0, got.Money)
	assert.Zero(t, got.Experience)
	assert.Equal(t, 1, got.Level)
	assert.Len(t, got.Grid, 64)
	assert.Equal(t, 100, got.ShopStock["panel_basic"])
	assert.True(t, got.NextStockRefresh.Equal(testNow.Add(5*time.Minute)))
}

func TestDecodeCorrupt(t *testing.T) {
	codec, _ := newCodec()
	cases := map[string]string{
		"money string":  `{"schemaVersion":2,"money":"abc"}`,
		"money missing": `{"schemaVersion":2,"xp":10}`,
		"money null":    `{"schemaVersion":2,"money":null}`,
		"not json":      `{{{`,
		"array":         `[1,2]`,
		"null":          `null`,
		"bad version":   `{"schemaVersion":"two","money":1}`,
	}
	for name, payload := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := codec.Decode([]byte(payload), testNow)
			assert.ErrorIs(t, err, domain.ErrCorruptSnapshot)
		})
	}
}

func TestDecodeIncompatibleVersions(t *testing.T) {
	codec, _ := newCodec()

	_, err := codec.Decode([]byte(`{"money":1000,"grid":[]}`), testNow)
	assert.ErrorIs(t, err, domain.ErrIncompatibleSnapshot)

	_, err = codec.Decode([]byte(`{"schemaVersion":3,"money":1000}`), testNow)
	assert.ErrorIs(t, err, domain.ErrIncompatibleSnapshot)
}

func TestDecodeMigratesVersionOne(t *testing.T) {
	codec, _ := newCodec()
	saved := testNow.Add(-time.Hour).UnixMilli()
	payload := []byte(`{"schemaVersion":1,"money":10,"savedAt":` + jsonInt(saved) + `}`)

	got, err := codec.Decode(payload, testNow)
	require.NoError(t, err)
	assert.Equal(t, saved, got.LastSaveAt.UnixMilli())
}

func TestDecodeFallsBackPerField(t *testing.T) {
	codec, _ := newCodec()
	payload := []byte(`{
		"schemaVersion": 2,
		"money": 900,
		"xp": "lots",
		"credits": -4,
		"inventory": "nope",
		"shopStock": {"panel_basic": 500, "panel_adv": -3, "coal_plant": 9},
		"rebirthLevel": null,
		"isExchangeUnlocked": "yes",
		"level": 19,
		"multiplier": 40,
		"totalProductionRate": 1e9
	}`)

	got, err := codec.Decode(payload, testNow)
	require.NoError(t, err)

	assert.Equal(t, 900.0, got.Money)
	assert.Zero(t, got.Experience)
	assert.Zero(t, got.Credits)
	assert.Empty(t, got.Inventory)
	assert.Equal(t, 100, got.ShopStock["panel_basic"])
	assert.Equal(t, 0, got.ShopStock["panel_adv"])
	assert.NotContains(t, got.ShopStock, catalog.ItemID("coal_plant"))
	assert.Zero(t, got.RebirthLevel)
	assert.False(t, got.ExchangeUnlocked)
	assert.Equal(t, 1, got.Level)
	assert.Equal(t, 1.0, got.Multiplier)
	assert.Zero(t, got.TotalProductionRate)
}

func TestDecodeNormalizesGrid(t *testing.T) {
	codec, _ := newCodec()

	cells := make([]map[string]any, 70)
	for i := range cells {
		cells[i] = map[string]any{"id": i, "itemId": nil}
	}
	cells[0]["itemId"] = "panel_basic"
	cells[1]["itemId"] = "coal_plant"
	cells[66]["itemId"] = "panel_basic"
	raw, err := json.Marshal(map[string]any{
		"schemaVersion": 2,
		"money":         1,
		"grid":          cells,
		"inventory":     map[string]int{"panel_basic": 2, "coal_plant": 4, "panel_adv": 0},
	})
	require.NoError(t, err)

	got, err := codec.Decode(raw, testNow)
	require.NoError(t, err)

	assert.Len(t, got.Grid, 64)
	assert.Equal(t, catalog.ItemID("panel_basic"), got.Grid[0].Occupant)
	assert.True(t, got.Grid[1].Empty())
	assert.Equal(t, 1.0, got.TotalProductionRate)
	assert.Equal(t, domain.Inventory{"panel_basic": 2}, got.Inventory)

	short, err := codec.Decode([]byte(`{"schemaVersion":2,"money":1,"grid":[{"id":0,"itemId":"panel_adv"}]}`), testNow)
	require.NoError(t, err)
	assert.Len(t, short.Grid, 64)
	assert.Equal(t, 63, short.Grid[63].Index)
	assert.Equal(t, 8.0, short.TotalProductionRate)
}

func TestDecodeClampsNegativeMoney(t *testing.T) {
	codec, _ := newCodec()
	got, err := codec.Decode([]byte(`{"schemaVersion":2,"money":-50}`), testNow)
	require.NoError(t, err)
	assert.Zero(t, got.Money)
}

func jsonInt(v int64) string {
	b, _ := json.Marshal(v)
	return string(b)
}

func TestDecodeRejectsOutOfRangeIntegers(t *testing.T) {
	codec, eng := newCodec()
	data := `{"schemaVersion":2,"money":10,"credits":1e20,"rebirthLevel":1e20,` +
		`"nextStockRefresh":1e300,"lastCreditClaimTime":-1e20,` +
		`"inventory":{"panel_basic":1e20,"panel_adv":3},"shopStock":{"panel_basic":1e20,"panel_adv":-1e20}}`
	got, err := codec.Decode([]byte(data), testNow)
	require.NoError(t, err)

	fresh := eng.NewState(testNow)
	assert.Zero(t, got.Credits)
	assert.Zero(t, got.RebirthLevel)
	assert.Equal(t, 1.0, got.Multiplier)
	assert.Equal(t, fresh.NextStockRefresh, got.NextStockRefresh)
	assert.True(t, got.LastCreditClaimAt.IsZero())
	assert.Equal(t, 0, got.Inventory.Count("panel_basic"))
	assert.Equal(t, 3, got.Inventory.Count("panel_adv"))

	basic, _ := eng.Catalog().Lookup("panel_basic")
	assert.Equal(t, basic.MaxStock, got.ShopStock["panel_basic"])
	assert.Equal(t, 0, got.ShopStock["panel_adv"])
}
