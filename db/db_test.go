package db

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"sync"
	"testing"

	"github.com/jsphweid/bmsdex/config"
	"github.com/jsphweid/bmsdex/model"
	"github.com/stretchr/testify/assert"
)

var song = model.Song{
	SHA256:   "5f1c",
	MD5:      "aa",
	Path:     "songs/a.bms",
	Title:    "A",
	Artist:   "someone",
	Level:    12.5,
	Notes:    900,
	LengthMS: 120000,
}

func exerciseStore(t *testing.T, s Store) {
	ctx := context.Background()
	assert := assert.New(t)

	_, err := s.Lookup(ctx, song.SHA256)
	assert.ErrorIs(err, ErrSongNotFound)

	assert.NoError(s.Put(ctx, song))
	got, err := s.Lookup(ctx, song.SHA256)
	assert.NoError(err)
	assert.Equal(song, got)

	updated := song
	updated.Level = 13
	assert.NoError(s.Put(ctx, updated))
	got, err = s.Lookup(ctx, song.SHA256)
	assert.NoError(err)
	assert.Equal(13.0, got.Level)

	other := song
	other.SHA256 = "0000"
	other.Path = "songs/b.bms"
	assert.NoError(s.Put(ctx, other))
	all, err := s.List(ctx)
	assert.NoError(err)
	assert.Len(all, 2)

	assert.NoError(s.Close())
}

func TestSQLite(t *testing.T) {
	s, err := Open(context.Background(), config.SongDB{
		Driver: config.DriverSQLite,
		Path:   filepath.Join(t.TempDir(), "songdata.db"),
	})
	if err != nil {
		t.Fatal(err)
	}
	exerciseStore(t, s)
}

// fakeDynamo answers the few DynamoDB calls the store makes.
type fakeDynamo struct {
	sync.Mutex
	items map[string]map[string]json.RawMessage
}

func (f *fakeDynamo) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.Lock()
	defer f.Unlock()

	var in struct {
		Item map[string]json.RawMessage
		Key  map[string]struct{ S string }
	}
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	w.Header().Set("Content-Type", "application/x-amz-json-1.0")

	var out interface{}
	switch r.Header.Get("X-Amz-Target") {
	case "DynamoDB_20120810.PutItem":
		var pk struct{ S string }
		json.Unmarshal(in.Item["PK"], &pk)
		f.items[pk.S] = in.Item
		out = map[string]interface{}{}
	case "DynamoDB_20120810.GetItem":
		item, ok := f.items[in.Key["PK"].S]
		if !ok {
			out = map[string]interface{}{}
		} else {
			out = map[string]interface{}{"Item": item}
		}
	case "DynamoDB_20120810.Scan":
		items := make([]map[string]json.RawMessage, 0, len(f.items))
		for _, item := range f.items {
			items = append(items, item)
		}
		out = map[string]interface{}{"Items": items, "Count": len(items)}
	default:
		http.Error(w, "unsupported", http.StatusBadRequest)
		return
	}
	json.NewEncoder(w).Encode(out)
}

func TestDynamo(t *testing.T) {
	server := httptest.NewServer(&fakeDynamo{items: make(map[string]map[string]json.RawMessage)})
	defer server.Close()

	s, err := Open(context.Background(), config.SongDB{
		Driver:   config.DriverDynamo,
		Endpoint: server.URL,
		Region:   "localhost",
		Table:    "songs",
	})
	if err != nil {
		t.Fatal(err)
	}
	exerciseStore(t, s)
}

func TestOpenUnknownDriver(t *testing.T) {
	_, err := Open(context.Background(), config.SongDB{Driver: "mongo"})

	assert.Error(t, err)
}
