package mongodb

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/darasahq/darasa/core/material"
)

type materialRepository struct {
	coll *mongo.Collection
}

var _ material.Repository = (*materialRepository)(nil) // interface compliance check

func NewMaterialRepository(db *mongo.Database) *materialRepository {
	return &materialRepository{coll: db.Collection(materialsColl)}
}

func (repo *materialRepository) CreateMaterial(ctx context.Context, m material.Material) (material.Material, error) {
	m.ID = primitive.NewObjectID()
	if _, err := repo.coll.InsertOne(ctx, m); err != nil {
		return material.Material{}, err
	}
	return m, nil
}

func (repo *materialRepository) GetMaterialByID(ctx context.Context, id primitive.ObjectID) (material.Material, error) {
	var m material.Material
	err := repo.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&m)
	if err == mongo.ErrNoDocuments {
		return material.Material{}, material.ErrNotFound
	}
	return m, err
}

func (repo *materialRepository) FilterMaterials(ctx context.Context, qf material.QueryFilter) ([]material.Material, error) {
	filter := bson.M{}
	if !qf.CohortID.IsZero() {
		filter["cohort_id"] = qf.CohortID
	}
	if qf.TrackID != "" {
		filter["track_id"] = qf.TrackID
	}
	if qf.PublishedOnly {
		filter["is_published"] = true
	}

	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})
	cur, err := repo.coll.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	materials := make([]material.Material, 0)
	if err = cur.All(ctx, &materials); err != nil {
		return nil, err
	}
	return materials, nil
}

func (repo *materialRepository) UpdateMaterial(ctx context.Context, m material.Material, isPublished *bool) (material.Material, error) {
	set := bson.M{"updated_at": m.UpdatedAt}
	if m.Title != "" {
		set["title"] = m.Title
	}
	if m.Description != "" {
		set["description"] = m.Description
	}
	if m.Type != "" {
		set["type"] = m.Type
	}
	if m.URL != "" {
		set["url"] = m.URL
	}
	if isPublished != nil {
		set["is_published"] = *isPublished
	}

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var updated material.Material
	err := repo.coll.FindOneAndUpdate(ctx, bson.M{"_id": m.ID}, bson.M{"$set": set}, opts).Decode(&updated)
	if err == mongo.ErrNoDocuments {
		return material.Material{}, material.ErrNotFound
	}
	return updated, err
}

func (repo *materialRepository) DeleteMaterial(ctx context.Context, id primitive.ObjectID) error {
	res, err := repo.coll.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return material.ErrNotFound
	}
	return nil
}
