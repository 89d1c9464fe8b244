package entity

import (
	"time"

	"github.com/google/uuid"
)

// Review is a customer rating for a business.
type Review struct {
	ID            uuid.UUID `json:"id"`
	BusinessID    uuid.UUID `json:"businessId"`
	Rating        int       `json:"rating"`
	Comment       string    `json:"comment"`
	ReviewerName  string    `json:"reviewerName"`
	ReviewerEmail string    `json:"reviewerEmail"`
	CreatedAt     time.Time `json:"createdAt"`
}

// ReviewStats aggregates the reviews of one business.
type ReviewStats struct {
	AverageRating      float64     `json:"averageRating"`
	TotalReviews       int         `json:"totalReviews"`
	RatingDistribution map[int]int `json:"ratingDistribution"`
}
