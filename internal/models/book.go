package models

import (
	"time"

	"github.com/lib/pq"
)

// BookAvailability tracks the listing lifecycle: available -> reserved -> sold.
type BookAvailability string

const (
	BookAvailable BookAvailability = "available"
	BookReserved  BookAvailability = "reserved"
	BookSold      BookAvailability = "sold"
)

// BookCondition grades the physical state of a shared book.
type BookCondition string

const (
	ConditionExcellent BookCondition = "excellent"
	ConditionGood      BookCondition = "good"
	ConditionFair      BookCondition = "fair"
	ConditionPoor      BookCondition = "poor"
)

// RequestStatus tracks an interest request on a book listing.
type RequestStatus string

const (
	RequestPending  RequestStatus = "pending"
	RequestAccepted RequestStatus = "accepted"
	RequestRejected RequestStatus = "rejected"
)

// ContactMethod is the owner's preferred way to be reached.
type ContactMethod string

const (
	ContactEmail ContactMethod = "email"
	ContactPhone ContactMethod = "phone"
	ContactBoth  ContactMethod = "both"
)

// Book represents a textbook listing shared by a senior student.
type Book struct {
	ID              string           `db:"id" json:"id"`
	Title           string           `db:"title" json:"title"`
	Author          string           `db:"author" json:"author"`
	ISBN            *string          `db:"isbn" json:"isbn,omitempty"`
	Subject         string           `db:"subject" json:"subject"`
	Department      string           `db:"department" json:"department"`
	Semester        int              `db:"semester" json:"semester"`
	Description     string           `db:"description" json:"description,omitempty"`
	Condition       BookCondition    `db:"condition" json:"condition"`
	Price           float64          `db:"price" json:"price"`
	OriginalPrice   *float64         `db:"original_price" json:"originalPrice,omitempty"`
	SharedBy        string           `db:"shared_by" json:"sharedBy"`
	Availability    BookAvailability `db:"availability" json:"availability"`
	Tags            pq.StringArray   `db:"tags" json:"tags"`
	IsNegotiable    bool             `db:"is_negotiable" json:"isNegotiable"`
	Location        string           `db:"location" json:"location"`
	PreferredContact ContactMethod   `db:"preferred_contact" json:"preferredContactMethod"`
	Notes           string           `db:"notes" json:"notes,omitempty"`
	SoldTo          *string          `db:"sold_to" json:"soldTo,omitempty"`
	SoldAt          *time.Time       `db:"sold_at" json:"soldAt,omitempty"`
	Views           int              `db:"views" json:"views"`
	CreatedAt       time.Time        `db:"created_at" json:"createdAt"`
	UpdatedAt       time.Time        `db:"updated_at" json:"updatedAt"`

	Owner     *PublicProfile `db:"-" json:"owner,omitempty"`
	Requests  []BookRequest  `db:"-" json:"interestedStudents,omitempty"`
	LikeCount int            `db:"like_count" json:"likeCount"`
	Liked     bool           `db:"liked" json:"liked"`
}

// DiscountPercentage derives the discount against the original price.
func (b *Book) DiscountPercentage() int {
	if b.OriginalPrice == nil || *b.OriginalPrice <= 0 {
		return 0
	}
	return int(((*b.OriginalPrice - b.Price) / *b.OriginalPrice) * 100)
}

// BookRequest is an interest request embedded in a listing, one per
// (book, student) pair.
type BookRequest struct {
	ID           string        `db:"id" json:"id"`
	BookID       string        `db:"book_id" json:"bookId"`
	StudentID    string        `db:"student_id" json:"studentId"`
	Message      string        `db:"message" json:"message"`
	ContactEmail string        `db:"contact_email" json:"contactEmail,omitempty"`
	ContactPhone string        `db:"contact_phone" json:"contactPhone,omitempty"`
	Status       RequestStatus `db:"status" json:"status"`
	RequestedAt  time.Time     `db:"requested_at" json:"requestedAt"`

	Student *PublicProfile `db:"-" json:"student,omitempty"`
}

// CreateBookRequest is the payload for POST /books.
type CreateBookRequest struct {
	Title           string   `json:"title" validate:"required,max=100"`
	Author          string   `json:"author" validate:"required"`
	ISBN            *string  `json:"isbn" validate:"omitempty,min=10,max=17"`
	Subject         string   `json:"subject" validate:"required"`
	Department      string   `json:"department" validate:"required"`
	Semester        int      `json:"semester" validate:"required,min=1,max=8"`
	Description     string   `json:"description" validate:"max=500"`
	Condition       string   `json:"condition" validate:"required,oneof=excellent good fair poor"`
	Price           *float64 `json:"price" validate:"required,gte=0"`
	OriginalPrice   *float64 `json:"originalPrice" validate:"omitempty,gte=0"`
	Tags            []string `json:"tags"`
	IsNegotiable    *bool    `json:"isNegotiable"`
	Location        string   `json:"location" validate:"required"`
	PreferredContact string  `json:"preferredContactMethod" validate:"omitempty,oneof=email phone both"`
	Notes           string   `json:"notes" validate:"max=300"`
}

// UpdateBookRequest is the partial payload for PUT /books/:id.
type UpdateBookRequest struct {
	Title           *string  `json:"title" validate:"omitempty,max=100"`
	Author          *string  `json:"author" validate:"omitempty,min=1"`
	Subject         *string  `json:"subject" validate:"omitempty,min=1"`
	Department      *string  `json:"department" validate:"omitempty,min=1"`
	Semester        *int     `json:"semester" validate:"omitempty,min=1,max=8"`
	Description     *string  `json:"description" validate:"omitempty,max=500"`
	Condition       *string  `json:"condition" validate:"omitempty,oneof=excellent good fair poor"`
	Price           *float64 `json:"price" validate:"omitempty,gte=0"`
	OriginalPrice   *float64 `json:"originalPrice" validate:"omitempty,gte=0"`
	Tags            []string `json:"tags"`
	IsNegotiable    *bool    `json:"isNegotiable"`
	Location        *string  `json:"location" validate:"omitempty,min=1"`
	PreferredContact *string `json:"preferredContactMethod" validate:"omitempty,oneof=email phone both"`
	Notes           *string  `json:"notes" validate:"omitempty,max=300"`
}

// RequestBookPayload expresses interest in a listing.
type RequestBookPayload struct {
	Message     string `json:"message" validate:"max=300"`
	ContactInfo struct {
		Email string `json:"email" validate:"omitempty,email"`
		Phone string `json:"phone" validate:"omitempty,len=10,numeric"`
	} `json:"contactInfo"`
}

// UpdateRequestStatusPayload sets the status of an interest request.
type UpdateRequestStatusPayload struct {
	Status RequestStatus `json:"status" validate:"required,oneof=pending accepted rejected"`
}

// MarkSoldPayload records the buyer when a listing is sold.
type MarkSoldPayload struct {
	SoldTo string `json:"soldTo" validate:"required,uuid"`
}
