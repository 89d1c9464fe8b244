package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/octobees/business-directory/api/internal/entity"
)

func TestPGXReviewsRepository_CreateUnknownBusiness(t *testing.T) {
	repo := &PGXReviewsRepository{pool: &stubPool{
		queryRowFunc: func(ctx context.Context, query string, args ...any) pgx.Row {
			return &stubRow{scan: func(dest ...any) error {
				return &pgconn.PgError{Code: "23503"}
			}}
		},
	}}

	err := repo.Create(context.Background(), &entity.Review{BusinessID: uuid.New(), Rating: 5, Comment: "Great", ReviewerName: "Ali"})
	if !errors.Is(err, ErrBusinessNotFound) {
		t.Fatalf("expected ErrBusinessNotFound, got %v", err)
	}
}

func TestPGXReviewsRepository_Create(t *testing.T) {
	id := uuid.MustParse("cccccccc-cccc-cccc-cccc-cccccccccccc")
	created := time.Date(2024, 5, 1, 8, 0, 0, 0, time.UTC)
	repo := &PGXReviewsRepository{pool: &stubPool{
		queryRowFunc: func(ctx context.Context, query string, args ...any) pgx.Row {
			if len(args) != 5 {
				t.Fatalf("expected 5 args, got %d", len(args))
			}
			return &stubRow{scan: assign(id, created)}
		},
	}}

	review := &entity.Review{BusinessID: testBusinessID, Rating: 4, Comment: "Good", ReviewerName: "Sara"}
	if err := repo.Create(context.Background(), review); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if review.ID != id || !review.CreatedAt.Equal(created) {
		t.Fatalf("expected generated columns to be filled, got %+v", review)
	}
}

func TestPGXReviewsRepository_ListByBusiness(t *testing.T) {
	created := time.Now()
	var gotArgs []any
	repo := &PGXReviewsRepository{pool: &stubPool{
		queryRowFunc: func(ctx context.Context, query string, args ...any) pgx.Row {
			return &stubRow{scan: func(dest ...any) error {
				*dest[0].(*int) = 12
				return nil
			}}
		},
		queryFunc: func(ctx context.Context, query string, args ...any) (pgx.Rows, error) {
			gotArgs = args
			return &stubRows{scans: []func(dest ...any) error{
				assign(uuid.New(), testBusinessID, 5, "Excellent", "Ali", "", created),
			}}, nil
		},
	}}

	reviews, total, err := repo.ListByBusiness(context.Background(), testBusinessID, 2, 5)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if total != 12 || len(reviews) != 1 || reviews[0].Rating != 5 {
		t.Fatalf("unexpected result: total=%d reviews=%+v", total, reviews)
	}
	if gotArgs[1] != 5 || gotArgs[2] != 5 {
		t.Fatalf("unexpected pagination args: %v", gotArgs)
	}
}

func TestPGXReviewsRepository_RatingCounts(t *testing.T) {
	repo := &PGXReviewsRepository{pool: &stubPool{
		queryFunc: func(ctx context.Context, query string, args ...any) (pgx.Rows, error) {
			return &stubRows{scans: []func(dest ...any) error{
				assign(5, 3),
				assign(1, 1),
			}}, nil
		},
	}}

	counts, err := repo.RatingCounts(context.Background(), testBusinessID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if counts[5] != 3 || counts[1] != 1 || counts[3] != 0 {
		t.Fatalf("unexpected counts: %v", counts)
	}
}
