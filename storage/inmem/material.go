package inmemdb

import (
	"context"
	"sort"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/darasahq/darasa/core/material"
)

type materialRepository struct {
	db *DB
}

var _ material.Repository = (*materialRepository)(nil)

func NewMaterialRepository(db *DB) *materialRepository {
	return &materialRepository{db: db}
}

func (repo *materialRepository) CreateMaterial(_ context.Context, m material.Material) (material.Material, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	m.ID = primitive.NewObjectID()
	repo.db.materials[m.ID] = &m
	return m, nil
}

func (repo *materialRepository) GetMaterialByID(_ context.Context, id primitive.ObjectID) (material.Material, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	if m, ok := repo.db.materials[id]; ok {
		return *m, nil
	}
	return material.Material{}, material.ErrNotFound
}

func (repo *materialRepository) FilterMaterials(_ context.Context, qf material.QueryFilter) ([]material.Material, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	materials := make([]material.Material, 0)
	for _, m := range repo.db.materials {
		if !qf.CohortID.IsZero() && m.CohortID != qf.CohortID {
			continue
		}
		if qf.TrackID != "" && m.TrackID != qf.TrackID {
			continue
		}
		if qf.PublishedOnly && !m.IsPublished {
			continue
		}
		materials = append(materials, *m)
	}
	sort.Slice(materials, func(i, j int) bool { return materials[i].CreatedAt.After(materials[j].CreatedAt) })
	return materials, nil
}

func (repo *materialRepository) UpdateMaterial(_ context.Context, m material.Material, isPublished *bool) (material.Material, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	orig, ok := repo.db.materials[m.ID]
	if !ok {
		return material.Material{}, material.ErrNotFound
	}
	if m.Title != "" {
		orig.Title = m.Title
	}
	if m.Description != "" {
		orig.Description = m.Description
	}
	if m.Type != "" {
		orig.Type = m.Type
	}
	if m.URL != "" {
		orig.URL = m.URL
	}
	if isPublished != nil {
		orig.IsPublished = *isPublished
	}
	orig.UpdatedAt = m.UpdatedAt
	return *orig, nil
}

func (repo *materialRepository) DeleteMaterial(_ context.Context, id primitive.ObjectID) error {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	if _, ok := repo.db.materials[id]; !ok {
		return material.ErrNotFound
	}
	delete(repo.db.materials, id)
	return nil
}
