package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/octobees/business-directory/api/internal/entity"
)

const pgForeignKeyViolation = "23503"

// ReviewsRepository stores customer reviews.
type ReviewsRepository interface {
	Create(ctx context.Context, review *entity.Review) error
	ListByBusiness(ctx context.Context, businessID uuid.UUID, page, limit int) ([]entity.Review, int, error)
	RatingCounts(ctx context.Context, businessID uuid.UUID) (map[int]int, error)
}

// PGXReviewsRepository implements ReviewsRepository using pgx.
type PGXReviewsRepository struct {
	pool pgxPool
}

// NewPGXReviewsRepository wires a pgx backed repository.
func NewPGXReviewsRepository(pool *pgxpool.Pool) *PGXReviewsRepository {
	return &PGXReviewsRepository{pool: pool}
}

// Create inserts a review. A missing business yields ErrBusinessNotFound.
func (r *PGXReviewsRepository) Create(ctx context.Context, review *entity.Review) error {
	if review == nil {
		return fmt.Errorf("review payload is nil")
	}
	row := r.pool.QueryRow(ctx, `
        INSERT INTO reviews (business_id, rating, comment, reviewer_name, reviewer_email)
        VALUES ($1, $2, $3, $4, $5)
        RETURNING id, created_at
    `, review.BusinessID, review.Rating, review.Comment, review.ReviewerName, review.ReviewerEmail)

	if err := row.Scan(&review.ID, &review.CreatedAt); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgForeignKeyViolation {
			return ErrBusinessNotFound
		}
		return fmt.Errorf("insert review: %w", err)
	}
	return nil
}

// ListByBusiness returns a page of reviews, newest first, and the total.
func (r *PGXReviewsRepository) ListByBusiness(ctx context.Context, businessID uuid.UUID, page, limit int) ([]entity.Review, int, error) {
	if page <= 0 {
		page = 1
	}
	if limit <= 0 {
		limit = 10
	}

	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM reviews WHERE business_id = $1`, businessID).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count reviews: %w", err)
	}

	rows, err := r.pool.Query(ctx, `
        SELECT id, business_id, rating, comment, reviewer_name, reviewer_email, created_at
        FROM reviews
        WHERE business_id = $1
        ORDER BY created_at DESC
        LIMIT $2 OFFSET $3
    `, businessID, limit, (page-1)*limit)
	if err != nil {
		return nil, 0, fmt.Errorf("list reviews: %w", err)
	}
	defer rows.Close()

	reviews := []entity.Review{}
	for rows.Next() {
		var rv entity.Review
		if err := rows.Scan(&rv.ID, &rv.BusinessID, &rv.Rating, &rv.Comment, &rv.ReviewerName, &rv.ReviewerEmail, &rv.CreatedAt); err != nil {
			return nil, 0, fmt.Errorf("scan review: %w", err)
		}
		reviews = append(reviews, rv)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate reviews: %w", err)
	}
	return reviews, total, nil
}

// RatingCounts returns how many reviews gave each star rating.
func (r *PGXReviewsRepository) RatingCounts(ctx context.Context, businessID uuid.UUID) (map[int]int, error) {
	rows, err := r.pool.Query(ctx, `
        SELECT rating, COUNT(*)
        FROM reviews
        WHERE business_id = $1
        GROUP BY rating
    `, businessID)
	if err != nil {
		return nil, fmt.Errorf("count ratings: %w", err)
	}
	defer rows.Close()

	counts := make(map[int]int)
	for rows.Next() {
		var rating, n int
		if err := rows.Scan(&rating, &n); err != nil {
			return nil, fmt.Errorf("scan rating count: %w", err)
		}
		counts[rating] = n
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate rating counts: %w", err)
	}
	return counts, nil
}
