package models

import (
	"time"

	"github.com/lib/pq"
)

// ProblemCategory is the closed set of institutional domains.
type ProblemCategory string

const (
	CategoryInfrastructure ProblemCategory = "infrastructure"
	CategoryAcademic       ProblemCategory = "academic"
	CategoryHostel         ProblemCategory = "hostel"
	CategoryCanteen        ProblemCategory = "canteen"
	CategoryTransportation ProblemCategory = "transportation"
	CategoryLibrary        ProblemCategory = "library"
	CategorySports         ProblemCategory = "sports"
	CategoryMedical        ProblemCategory = "medical"
	CategoryAdministration ProblemCategory = "administration"
	CategoryOther          ProblemCategory = "other"
)

// ProblemPriority orders problems by urgency.
type ProblemPriority string

const (
	PriorityLow    ProblemPriority = "low"
	PriorityMedium ProblemPriority = "medium"
	PriorityHigh   ProblemPriority = "high"
	PriorityUrgent ProblemPriority = "urgent"
)

// ProblemStatus tracks the report lifecycle.
type ProblemStatus string

const (
	ProblemOpen       ProblemStatus = "open"
	ProblemInProgress ProblemStatus = "in-progress"
	ProblemResolved   ProblemStatus = "resolved"
	ProblemClosed     ProblemStatus = "closed"
)

// VoteDirection is the closed set of vote kinds.
type VoteDirection string

const (
	Upvote   VoteDirection = "upvote"
	Downvote VoteDirection = "downvote"
)

// Problem represents an institutional problem report.
type Problem struct {
	ID          string          `db:"id" json:"id"`
	Title       string          `db:"title" json:"title"`
	Description string          `db:"description" json:"description"`
	Category    ProblemCategory `db:"category" json:"category"`
	Priority    ProblemPriority `db:"priority" json:"priority"`
	Location    string          `db:"location" json:"location"`
	IsAnonymous bool            `db:"is_anonymous" json:"isAnonymous"`
	ReportedBy  string          `db:"reported_by" json:"reportedBy"`
	Status      ProblemStatus   `db:"status" json:"status"`
	AssignedTo  *string         `db:"assigned_to" json:"assignedTo,omitempty"`
	Tags        pq.StringArray  `db:"tags" json:"tags"`
	CreatedAt   time.Time       `db:"created_at" json:"createdAt"`
	UpdatedAt   time.Time       `db:"updated_at" json:"updatedAt"`

	ResolutionDescription *string    `db:"resolution_description" json:"-"`
	ResolvedBy            *string    `db:"resolved_by" json:"-"`
	ResolvedAt            *time.Time `db:"resolved_at" json:"-"`

	Resolution    *Resolution      `db:"-" json:"resolution,omitempty"`
	Images        []Image          `db:"-" json:"images"`
	Reporter      *PublicProfile   `db:"-" json:"reporter,omitempty"`
	Comments      []ProblemComment `db:"-" json:"comments,omitempty"`
	UpvoteCount   int              `db:"upvote_count" json:"upvoteCount"`
	DownvoteCount int              `db:"downvote_count" json:"downvoteCount"`
	NetVotes      int              `db:"-" json:"netVotes"`
	ViewerVote    *VoteDirection   `db:"-" json:"viewerVote,omitempty"`
}

// Resolution records how and by whom a problem was resolved.
type Resolution struct {
	Description string    `json:"description"`
	ResolvedBy  string    `json:"resolvedBy"`
	ResolvedAt  time.Time `json:"resolvedAt"`
}

// Decorate assembles the nested resolution object from the flat columns.
func (p *Problem) Decorate() {
	if p.ResolvedAt != nil {
		res := &Resolution{ResolvedAt: *p.ResolvedAt}
		if p.ResolutionDescription != nil {
			res.Description = *p.ResolutionDescription
		}
		if p.ResolvedBy != nil {
			res.ResolvedBy = *p.ResolvedBy
		}
		p.Resolution = res
	}
}

// ProblemComment is an append-only comment on a problem report.
type ProblemComment struct {
	ID          string    `db:"id" json:"id"`
	ProblemID   string    `db:"problem_id" json:"problemId"`
	UserID      string    `db:"user_id" json:"userId"`
	Text        string    `db:"text" json:"text"`
	IsAnonymous bool      `db:"is_anonymous" json:"isAnonymous"`
	CreatedAt   time.Time `db:"created_at" json:"createdAt"`

	Author *PublicProfile `db:"-" json:"author,omitempty"`
}

// ProblemVote is one user's membership in exactly one direction list.
type ProblemVote struct {
	ProblemID string        `db:"problem_id" json:"problemId"`
	UserID    string        `db:"user_id" json:"userId"`
	Direction VoteDirection `db:"direction" json:"direction"`
	CreatedAt time.Time     `db:"created_at" json:"createdAt"`
}

// VoteCounts aggregates vote list sizes for a problem.
type VoteCounts struct {
	ProblemID string `db:"problem_id"`
	Upvotes   int    `db:"upvotes"`
	Downvotes int    `db:"downvotes"`
}

// ProblemImage is a stored image reference keyed by problem.
type ProblemImage struct {
	ID        string `db:"id"`
	ProblemID string `db:"problem_id"`
	URL       string `db:"url"`
	PublicID  string `db:"public_id"`
}

// CreateProblemRequest is the payload for POST /problems.
type CreateProblemRequest struct {
	Title       string   `json:"title" validate:"required,max=100"`
	Description string   `json:"description" validate:"required,max=1000"`
	Category    string   `json:"category" validate:"required,oneof=infrastructure academic hostel canteen transportation library sports medical administration other"`
	Priority    string   `json:"priority" validate:"omitempty,oneof=low medium high urgent"`
	Location    string   `json:"location" validate:"required"`
	IsAnonymous bool     `json:"isAnonymous"`
	Images      []Image  `json:"images" validate:"omitempty,dive"`
	Tags        []string `json:"tags"`
}

// UpdateProblemRequest is the partial payload for PUT /problems/:id.
type UpdateProblemRequest struct {
	Title       *string  `json:"title" validate:"omitempty,max=100"`
	Description *string  `json:"description" validate:"omitempty,max=1000"`
	Category    *string  `json:"category" validate:"omitempty,oneof=infrastructure academic hostel canteen transportation library sports medical administration other"`
	Priority    *string  `json:"priority" validate:"omitempty,oneof=low medium high urgent"`
	Location    *string  `json:"location" validate:"omitempty,min=1"`
	IsAnonymous *bool    `json:"isAnonymous"`
	Tags        []string `json:"tags"`
}

// VotePayload casts a vote on a problem.
type VotePayload struct {
	Type VoteDirection `json:"type" validate:"required,oneof=upvote downvote"`
}

// CommentPayload appends a comment to a problem.
type CommentPayload struct {
	Text        string `json:"text" validate:"required,max=500"`
	IsAnonymous bool   `json:"isAnonymous"`
}

// UpdateProblemStatusPayload is the privileged status transition payload.
type UpdateProblemStatusPayload struct {
	Status     ProblemStatus `json:"status" validate:"required,oneof=open in-progress resolved closed"`
	Resolution string        `json:"resolution" validate:"max=1000"`
}
