package db

import (
	"context"
	"testing"
	"time"

	"earnings-transcripts/pkg/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/integration/mtest"
)

func sampleRecord() *domain.TranscriptRecord {
	return &domain.TranscriptRecord{
		Ticker:         "MSFT",
		CompanyName:    "Microsoft",
		Year:           2023,
		Quarter:        4,
		TranscriptText: "Operator: Welcome.",
		Speakers:       []string{"Operator"},
		SourceName:     "structured-api",
		RetrievedAt:    time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC),
	}
}

func recordDoc(key, ticker string, year, quarter int) bson.D {
	return bson.D{
		{Key: "key", Value: key},
		{Key: "ticker", Value: ticker},
		{Key: "company_name", Value: "Microsoft"},
		{Key: "year", Value: year},
		{Key: "quarter", Value: quarter},
		{Key: "transcript_text", Value: "Operator: Welcome."},
		{Key: "speakers", Value: bson.A{"Operator"}},
		{Key: "source_name", Value: "structured-api"},
	}
}

func TestMongoArchive(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("save upserts", func(mt *mtest.T) {
		c := &Client{collection: mt.Coll}
		mt.AddMockResponses(mtest.CreateSuccessResponse(bson.E{Key: "n", Value: 1}))

		require.NoError(t, c.SaveTranscript(context.Background(), sampleRecord()))
	})

	mt.Run("save surfaces write errors", func(mt *mtest.T) {
		c := &Client{collection: mt.Coll}
		mt.AddMockResponses(mtest.CreateWriteErrorsResponse(mtest.WriteError{Index: 0, Code: 11000, Message: "duplicate key"}))

		err := c.SaveTranscript(context.Background(), sampleRecord())
		assert.ErrorContains(t, err, "MSFT-2023-Q4")
	})

	mt.Run("save rejects keyless records", func(mt *mtest.T) {
		c := &Client{collection: mt.Coll}
		err := c.SaveTranscript(context.Background(), &domain.TranscriptRecord{TranscriptText: "x"})
		assert.Error(t, err)
	})

	mt.Run("get by key", func(mt *mtest.T) {
		c := &Client{collection: mt.Coll}
		ns := mt.Coll.Database().Name() + "." + mt.Coll.Name()
		mt.AddMockResponses(mtest.CreateCursorResponse(0, ns, mtest.FirstBatch, recordDoc("MSFT-2023-Q4", "MSFT", 2023, 4)))

		rec, err := c.GetTranscript(context.Background(), "MSFT-2023-Q4")
		require.NoError(t, err)
		assert.Equal(t, "MSFT", rec.Ticker)
		assert.Equal(t, 4, rec.Quarter)
		assert.Equal(t, []string{"Operator"}, rec.Speakers)
	})

	mt.Run("get missing", func(mt *mtest.T) {
		c := &Client{collection: mt.Coll}
		ns := mt.Coll.Database().Name() + "." + mt.Coll.Name()
		mt.AddMockResponses(mtest.CreateCursorResponse(0, ns, mtest.FirstBatch))

		_, err := c.GetTranscript(context.Background(), "ZZZZ-1999-Q1")
		assert.ErrorIs(t, err, ErrNotFound)
	})

	mt.Run("list by ticker", func(mt *mtest.T) {
		c := &Client{collection: mt.Coll}
		ns := mt.Coll.Database().Name() + "." + mt.Coll.Name()
		mt.AddMockResponses(mtest.CreateCursorResponse(0, ns, mtest.FirstBatch,
			recordDoc("MSFT-2023-Q4", "MSFT", 2023, 4),
			recordDoc("MSFT-2023-Q3", "MSFT", 2023, 3),
		))

		recs, err := c.ListTranscripts(context.Background(), " msft ")
		require.NoError(t, err)
		require.Len(t, recs, 2)
		assert.Equal(t, 4, recs[0].Quarter)
		assert.Equal(t, 3, recs[1].Quarter)
	})
}

func TestClientWithoutCollection(t *testing.T) {
	c := &Client{}
	assert.Error(t, c.SaveTranscript(context.Background(), sampleRecord()))
	_, err := c.GetTranscript(context.Background(), "MSFT-2023-Q4")
	assert.Error(t, err)
	_, err = c.GetAllTranscripts(context.Background())
	assert.Error(t, err)
	assert.Error(t, c.Connect(context.Background()))
	assert.NoError(t, c.Close(context.Background()))
}
