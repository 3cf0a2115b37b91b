package db

import (
	"context"

	charmlog "github.com/charmbracelet/log"
	"github.com/glebarez/sqlite"
	"github.com/jsphweid/bmsdex/model"
	"github.com/pkg/errors"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"
)

type SQLite struct {
	db *gorm.DB
}

// OpenSQLite opens, creating if needed, the song table in a sqlite file.
func OpenSQLite(ctx context.Context, path string) (*SQLite, error) {
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, errors.Wrapf(err, "opening song db %s", path)
	}
	if err := db.WithContext(ctx).AutoMigrate(&model.Song{}); err != nil {
		return nil, errors.Wrap(err, "migrating song table")
	}
	charmlog.FromContext(ctx).Debug("song db open", "driver", "sqlite", "path", path)
	return &SQLite{db: db}, nil
}

func (s *SQLite) Lookup(ctx context.Context, sha256 string) (model.Song, error) {
	var song model.Song
	err := s.db.WithContext(ctx).First(&song, "sha256 = ?", sha256).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return song, errors.Wrapf(ErrSongNotFound, "sha256 %s", sha256)
	}
	if err != nil {
		return song, errors.Wrap(err, "looking up song")
	}
	return song, nil
}

// Put inserts song or replaces the row with the same hash.
func (s *SQLite) Put(ctx context.Context, song model.Song) error {
	err := s.db.WithContext(ctx).
		Clauses(clause.OnConflict{UpdateAll: true}).
		Create(&song).Error
	return errors.Wrapf(err, "storing song %s", song.SHA256)
}

func (s *SQLite) List(ctx context.Context) ([]model.Song, error) {
	var songs []model.Song
	if err := s.db.WithContext(ctx).Order("path").Find(&songs).Error; err != nil {
		return nil, errors.Wrap(err, "listing songs")
	}
	return songs, nil
}

func (s *SQLite) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
