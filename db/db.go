package db

import (
	"context"

	"github.com/jsphweid/bmsdex/config"
	"github.com/jsphweid/bmsdex/model"
	"github.com/pkg/errors"
)

// ErrSongNotFound is returned when no song has the requested hash.
var ErrSongNotFound = errors.New("song not found")

// Store maps chart hashes to indexed songs.
type Store interface {
	Lookup(ctx context.Context, sha256 string) (model.Song, error)
	Put(ctx context.Context, song model.Song) error
	List(ctx context.Context) ([]model.Song, error)
	Close() error
}

// Open connects to the song database the config names.
func Open(ctx context.Context, c config.SongDB) (Store, error) {
	switch c.Driver {
	case config.DriverSQLite:
		return OpenSQLite(ctx, c.Path)
	case config.DriverDynamo:
		return OpenDynamo(c.Endpoint, c.Region, c.Table)
	}
	return nil, errors.Errorf("unknown song db driver %q", c.Driver)
}
