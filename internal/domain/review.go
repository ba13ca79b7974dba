package domain

import "time"

type Review struct {
	ID         int32     `json:"id"`
	RequestID  int32     `json:"request_id"`
	ReviewerID int32     `json:"reviewer_id"`
	RevieweeID int32     `json:"reviewee_id"`
	Rating     int32     `json:"rating"`
	Comment    string    `json:"comment"`
	CreatedAt  time.Time `json:"created_at"`
}

type ReviewSummary struct {
	UserID        int32    `json:"user_id"`
	Count         int32    `json:"count"`
	AverageRating float64  `json:"average_rating"`
	Reviews       []Review `json:"reviews"`
}
