package gormdb

import (
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/fltvhs/recorder/internal/model"
)

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	return db
}

func TestInitMigratesSchema(t *testing.T) {
	db := openTestDB(t)
	b := New(db)
	require.NoError(t, b.Init())

	for _, m := range model.DatabaseModels {
		assert.True(t, db.Migrator().HasTable(m), "table for %T", m)
	}
}

func TestSaveFlight(t *testing.T) {
	db := openTestDB(t)
	b := New(db)
	require.NoError(t, b.Init())

	a := &model.Archive{
		Recording: model.Recording{FileName: "falcon4.00.flt", Theater: "korea"},
		Entities: []model.Entity{
			{UID: 1, Kind: 3, Callsign: "Viper 1", Updates: datatypes.JSON("[]"), Events: datatypes.JSON("[]")},
			{UID: 2, Kind: 8, Updates: datatypes.JSON("[]"), Events: datatypes.JSON("[]")},
		},
		Features: []model.Feature{
			{UID: 5, Kind: 9, Events: datatypes.JSON("[]")},
		},
		GeneralEvents: []model.GeneralEvent{
			{Tag: 4, Start: 1, Stop: 6},
		},
	}
	require.NoError(t, b.SaveFlight(a))
	require.NotZero(t, a.Recording.ID)

	var entities []model.Entity
	require.NoError(t, db.Where("recording_id = ?", a.Recording.ID).Find(&entities).Error)
	require.Len(t, entities, 2)
	assert.Equal(t, "Viper 1", entities[0].Callsign)

	var featureCount, eventCount int64
	require.NoError(t, db.Model(&model.Feature{}).Count(&featureCount).Error)
	require.NoError(t, db.Model(&model.GeneralEvent{}).Count(&eventCount).Error)
	assert.Equal(t, int64(1), featureCount)
	assert.Equal(t, int64(1), eventCount)
}

func TestSaveFlightEmpty(t *testing.T) {
	b := New(openTestDB(t))
	require.NoError(t, b.Init())

	a := &model.Archive{
		Recording: model.Recording{FileName: "empty.flt"},
	}
	require.NoError(t, b.SaveFlight(a))
	assert.NotZero(t, a.Recording.ID)
}

func TestSaveTwoFlights(t *testing.T) {
	db := openTestDB(t)
	b := New(db)
	require.NoError(t, b.Init())

	first := &model.Archive{Recording: model.Recording{FileName: "a.flt"}}
	second := &model.Archive{Recording: model.Recording{FileName: "b.flt"}}
	require.NoError(t, b.SaveFlight(first))
	require.NoError(t, b.SaveFlight(second))

	var count int64
	require.NoError(t, db.Model(&model.Recording{}).Count(&count).Error)
	assert.Equal(t, int64(2), count)
	assert.NotEqual(t, first.Recording.ID, second.Recording.ID)
}
