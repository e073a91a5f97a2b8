package database_test

import (
	"context"
	"errors"
	"testing"

	"barbershop_backend/internal/common"
	"barbershop_backend/internal/platform/database"
	"barbershop_backend/internal/platform/database/dbtest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type widget struct {
	common.BaseModel
	Name string `gorm:"uniqueIndex"`
}

func TestWithinTransactionCommits(t *testing.T) {
	db := dbtest.New(t, &widget{})
	tx := database.NewTransactor(db)

	err := tx.WithinTransaction(context.Background(), func(ctx context.Context) error {
		return database.Conn(ctx, db).Create(&widget{Name: "a"}).Error
	})
	require.NoError(t, err)

	var count int64
	require.NoError(t, db.Model(&widget{}).Count(&count).Error)
	assert.Equal(t, int64(1), count)
}

func TestWithinTransactionRollsBackOnError(t *testing.T) {
	db := dbtest.New(t, &widget{})
	tx := database.NewTransactor(db)
	boom := errors.New("boom")

	err := tx.WithinTransaction(context.Background(), func(ctx context.Context) error {
		if err := database.Conn(ctx, db).Create(&widget{Name: "a"}).Error; err != nil {
			return err
		}
		return boom
	})
	assert.ErrorIs(t, err, boom)

	var count int64
	require.NoError(t, db.Model(&widget{}).Count(&count).Error)
	assert.Zero(t, count)
}

func TestNestedTransactionRollsBackToSavepoint(t *testing.T) {
	db := dbtest.New(t, &widget{})
	tx := database.NewTransactor(db)
	boom := errors.New("boom")

	err := tx.WithinTransaction(context.Background(), func(ctx context.Context) error {
		if err := database.Conn(ctx, db).Create(&widget{Name: "outer"}).Error; err != nil {
			return err
		}
		innerErr := tx.WithinTransaction(ctx, func(ctx context.Context) error {
			if err := database.Conn(ctx, db).Create(&widget{Name: "inner"}).Error; err != nil {
				return err
			}
			return boom
		})
		assert.ErrorIs(t, innerErr, boom)
		return nil
	})
	require.NoError(t, err)

	var names []string
	require.NoError(t, db.Model(&widget{}).Pluck("name", &names).Error)
	assert.Equal(t, []string{"outer"}, names)
}

func TestSavepointKeepsTransactionUsableAfterConflict(t *testing.T) {
	db := dbtest.New(t, &widget{})
	tx := database.NewTransactor(db)
	require.NoError(t, db.Create(&widget{Name: "taken"}).Error)

	err := tx.WithinTransaction(context.Background(), func(ctx context.Context) error {
		conflict := database.Savepoint(ctx, db, func(conn *gorm.DB) error {
			return conn.Create(&widget{Name: "taken"}).Error
		})
		require.Error(t, conflict)
		assert.True(t, database.IsUniqueViolation(conflict))

		var found widget
		if err := database.Conn(ctx, db).Where("name = ?", "taken").First(&found).Error; err != nil {
			return err
		}
		return database.Conn(ctx, db).Create(&widget{Name: "after"}).Error
	})
	require.NoError(t, err)

	var count int64
	require.NoError(t, db.Model(&widget{}).Count(&count).Error)
	assert.Equal(t, int64(2), count)
}

func TestSavepointOutsideTransaction(t *testing.T) {
	db := dbtest.New(t, &widget{})

	err := database.Savepoint(context.Background(), db, func(conn *gorm.DB) error {
		return conn.Create(&widget{Name: "solo"}).Error
	})
	require.NoError(t, err)

	var count int64
	require.NoError(t, db.Model(&widget{}).Count(&count).Error)
	assert.Equal(t, int64(1), count)
}

func TestIsUniqueViolation(t *testing.T) {
	db := dbtest.New(t, &widget{})
	require.NoError(t, db.Create(&widget{Name: "dup"}).Error)

	err := db.Create(&widget{Name: "dup"}).Error
	require.Error(t, err)
	assert.True(t, database.IsUniqueViolation(err))
	assert.False(t, database.IsUniqueViolation(errors.New("other")))
	assert.False(t, database.IsUniqueViolation(nil))
}
