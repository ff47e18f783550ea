package storage

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"

	"github.com/law-makers/harvest/pkg/models"
)

type memorySink struct {
	name    string
	err     error
	saved   []models.Record
	closed  bool
	closeFn func() error
}

func (m *memorySink) Name() string { return m.name }

func (m *memorySink) SaveRecords(_ context.Context, _, _ string, records []models.Record) (int64, error) {
	if m.err != nil {
		return 0, m.err
	}
	m.saved = append(m.saved, records...)
	return int64(len(records)), nil
}

func (m *memorySink) Close() error {
	m.closed = true
	if m.closeFn != nil {
		return m.closeFn()
	}
	return nil
}

func TestMulti_WritesToEverySink(t *testing.T) {
	down := errors.New("down")
	a := &memorySink{name: "a"}
	b := &memorySink{name: "b", err: down}
	c := &memorySink{name: "c"}
	multi := NewMulti(a, b, c)

	n, err := multi.SaveRecords(context.Background(), "run", "q", []models.Record{{Title: "x"}, {Title: "y"}})

	assert.ErrorIs(t, err, down)
	assert.Equal(t, int64(2), n)
	assert.Len(t, a.saved, 2)
	assert.Len(t, c.saved, 2, "a failing sink does not stop later sinks")
	assert.Equal(t, 3, multi.Len())
}

func TestMulti_CloseAll(t *testing.T) {
	a := &memorySink{name: "a", closeFn: func() error { return errors.New("boom") }}
	b := &memorySink{name: "b"}

	err := NewMulti(a, b).Close()

	assert.Error(t, err)
	assert.True(t, a.closed)
	assert.True(t, b.closed)
}

func TestRecordDocs(t *testing.T) {
	at := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	docs := recordDocs("run-1", "fossil", []models.Record{{Title: "Fossil Grant", Price: 8995, Rating: 4.5, ReviewCount: 1024}}, at)

	require.Len(t, docs, 1)
	doc, ok := docs[0].(bson.D)
	require.True(t, ok)
	m := doc.Map()
	assert.Equal(t, "run-1", m["run_id"])
	assert.Equal(t, "Fossil Grant", m["title"])
	assert.Equal(t, 1024, m["review_count"])
	assert.Equal(t, at, m["scraped_at"])
}

func TestMongo_SaveRecords(t *testing.T) {
	uri := os.Getenv("HARVEST_TEST_MONGO_URI")
	if uri == "" {
		t.Skip("HARVEST_TEST_MONGO_URI not set")
	}

	ctx := context.Background()
	store, err := NewMongo(ctx, uri, "harvest_test", "listing_records")
	require.NoError(t, err)
	defer store.Close()

	n, err := store.SaveRecords(ctx, "test-run", "fossil", []models.Record{{Title: "a"}})
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
}
