package storage

import (
	"context"
	"errors"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var ErrNotFound = errors.New("object not found")

// PostgresStore keeps uploaded objects in the stored_files table and serves
// them through the /files route, so a single database backs both rows and
// blobs.
type PostgresStore struct {
	DB      *pgxpool.Pool
	BaseURL string
}

func NewPostgresStore(db *pgxpool.Pool, baseURL string) *PostgresStore {
	return &PostgresStore{DB: db, BaseURL: strings.TrimRight(baseURL, "/")}
}

func (s *PostgresStore) Upload(ctx context.Context, bucket, key string, data []byte, contentType string) (string, error) {
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	_, err := s.DB.Exec(ctx, `
    INSERT INTO stored_files (bucket, key, content_type, data)
    VALUES ($1,$2,$3,$4)
    ON CONFLICT (bucket, key) DO UPDATE SET content_type = EXCLUDED.content_type, data = EXCLUDED.data
  `, bucket, key, contentType, data)
	if err != nil {
		return "", err
	}
	return s.PublicURL(bucket, key), nil
}

func (s *PostgresStore) PublicURL(bucket, key string) string {
	return s.BaseURL + "/files/" + bucket + "/" + key
}

func (s *PostgresStore) Get(ctx context.Context, bucket, key string) (Object, error) {
	obj := Object{Bucket: bucket, Key: key}
	err := s.DB.QueryRow(ctx, `
    SELECT content_type, data
    FROM stored_files
    WHERE bucket = $1 AND key = $2
  `, bucket, key).Scan(&obj.ContentType, &obj.Data)
	if errors.Is(err, pgx.ErrNoRows) {
		return Object{}, ErrNotFound
	}
	if err != nil {
		return Object{}, err
	}
	return obj, nil
}
