package repository

import (
	"context"
)

const findImageAssetByUrl = `-- name: FindImageAssetByUrl :one
SELECT id, asset_id, url, created_at FROM image_assets WHERE url = $1`

func (q *Queries) FindImageAssetByUrl(ctx context.Context, url string) (ImageAsset, error) {
	row := q.db.QueryRow(ctx, findImageAssetByUrl, url)
	var i ImageAsset
	err := row.Scan(&i.ID, &i.AssetID, &i.Url, &i.CreatedAt)
	return i, err
}

const findImageAssetById = `-- name: FindImageAssetById :one
SELECT id, asset_id, url, created_at FROM image_assets WHERE id = $1`

func (q *Queries) FindImageAssetById(ctx context.Context, id string) (ImageAsset, error) {
	row := q.db.QueryRow(ctx, findImageAssetById, id)
	var i ImageAsset
	err := row.Scan(&i.ID, &i.AssetID, &i.Url, &i.CreatedAt)
	return i, err
}

const insertImageAsset = `-- name: InsertImageAsset :one
INSERT INTO image_assets (id, asset_id, url) VALUES ($1, $2, $3)
RETURNING id, asset_id, url, created_at`

type InsertImageAssetParams struct {
	ID      string
	AssetID string
	Url     string
}

func (q *Queries) InsertImageAsset(ctx context.Context, arg InsertImageAssetParams) (ImageAsset, error) {
	row := q.db.QueryRow(ctx, insertImageAsset, arg.ID, arg.AssetID, arg.Url)
	var i ImageAsset
	err := row.Scan(&i.ID, &i.AssetID, &i.Url, &i.CreatedAt)
	return i, err
}
