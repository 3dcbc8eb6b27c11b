package inmemdb

import (
	"context"
	"sort"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/darasahq/darasa/core/stream"
)

type streamRepository struct {
	db *DB
}

var _ stream.Repository = (*streamRepository)(nil)

func NewStreamRepository(db *DB) *streamRepository {
	return &streamRepository{db: db}
}

func (repo *streamRepository) CreateStream(_ context.Context, s stream.Stream) (stream.Stream, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	s.ID = primitive.NewObjectID()
	repo.db.streams[s.ID] = &s
	return s, nil
}

func (repo *streamRepository) GetStreamByID(_ context.Context, id primitive.ObjectID) (stream.Stream, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	if s, ok := repo.db.streams[id]; ok {
		return *s, nil
	}
	return stream.Stream{}, stream.ErrNotFound
}

func (repo *streamRepository) FilterStreams(_ context.Context, qf stream.QueryFilter) ([]stream.Stream, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	streams := make([]stream.Stream, 0)
	for _, s := range repo.db.streams {
		if !qf.CohortID.IsZero() && s.CohortID != qf.CohortID {
			continue
		}
		if qf.TrackID != "" && s.TrackID != "" && s.TrackID != qf.TrackID {
			continue
		}
		if qf.PublishedOnly && !s.IsPublished {
			continue
		}
		streams = append(streams, *s)
	}
	sort.Slice(streams, func(i, j int) bool {
		if streams[i].IsPinned != streams[j].IsPinned {
			return streams[i].IsPinned
		}
		return streams[i].CreatedAt.After(streams[j].CreatedAt)
	})
	return streams, nil
}

func (repo *streamRepository) UpdateStream(_ context.Context, s stream.Stream, isPinned, isPublished *bool) (stream.Stream, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	orig, ok := repo.db.streams[s.ID]
	if !ok {
		return stream.Stream{}, stream.ErrNotFound
	}
	if s.Title != "" {
		orig.Title = s.Title
	}
	if s.Body != "" {
		orig.Body = s.Body
	}
	if isPinned != nil {
		orig.IsPinned = *isPinned
	}
	if isPublished != nil {
		orig.IsPublished = *isPublished
		if *isPublished {
			now := time.Now().UTC()
			orig.PublishedAt = &now
		}
	}
	orig.UpdatedAt = s.UpdatedAt
	return *orig, nil
}

func (repo *streamRepository) DeleteStream(_ context.Context, id primitive.ObjectID) error {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	if _, ok := repo.db.streams[id]; !ok {
		return stream.ErrNotFound
	}
	delete(repo.db.streams, id)
	return nil
}
