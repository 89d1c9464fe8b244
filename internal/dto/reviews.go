package dto

import "github.com/octobees/business-directory/api/internal/entity"

// ReviewRequest is the payload for a new review.
type ReviewRequest struct {
	Rating        int    `json:"rating" validate:"required,min=1,max=5"`
	Comment       string `json:"comment" validate:"required,max=2000"`
	ReviewerName  string `json:"reviewerName" validate:"required,max=120"`
	ReviewerEmail string `json:"reviewerEmail" validate:"omitempty,email"`
}

// ReviewListResponse is a page of reviews with the overall average.
type ReviewListResponse struct {
	Reviews       []entity.Review `json:"reviews"`
	CurrentPage   int             `json:"currentPage"`
	TotalPages    int             `json:"totalPages"`
	TotalReviews  int             `json:"totalReviews"`
	AverageRating float64         `json:"averageRating"`
}
