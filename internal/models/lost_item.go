package models

import "time"

// LostItemStatus tracks a lost item report: lost -> found -> claimed.
type LostItemStatus string

const (
	ItemLost    LostItemStatus = "lost"
	ItemFound   LostItemStatus = "found"
	ItemClaimed LostItemStatus = "claimed"
)

// Image groups a stored image URL and its storage id.
type Image struct {
	URL      string `json:"url"`
	PublicID string `json:"publicId,omitempty"`
}

// FinderContact is the optional contact left by whoever found the item.
type FinderContact struct {
	Name  string `json:"name,omitempty"`
	Email string `json:"email,omitempty"`
	Phone string `json:"phone,omitempty"`
}

// LostItem represents a reported lost item.
type LostItem struct {
	ID          string         `db:"id" json:"id"`
	Title       string         `db:"title" json:"title"`
	Description string         `db:"description" json:"description"`
	ImageURL    string         `db:"image_url" json:"-"`
	ImageID     string         `db:"image_id" json:"-"`
	Location    string         `db:"location" json:"location"`
	DateLost    time.Time      `db:"date_lost" json:"dateLost"`
	FinderName  string         `db:"finder_name" json:"-"`
	FinderEmail string         `db:"finder_email" json:"-"`
	FinderPhone string         `db:"finder_phone" json:"-"`
	Status      LostItemStatus `db:"status" json:"status"`
	ReportedBy  string         `db:"reported_by" json:"reportedBy"`
	CreatedAt   time.Time      `db:"created_at" json:"createdAt"`
	UpdatedAt   time.Time      `db:"updated_at" json:"updatedAt"`

	Image    Image          `db:"-" json:"image"`
	Finder   *FinderContact `db:"-" json:"finderContact,omitempty"`
	Reporter *PublicProfile `db:"-" json:"reporter,omitempty"`
}

// Decorate assembles the nested response objects from the flat columns.
func (l *LostItem) Decorate() {
	l.Image = Image{URL: l.ImageURL, PublicID: l.ImageID}
	if l.FinderName != "" || l.FinderEmail != "" || l.FinderPhone != "" {
		l.Finder = &FinderContact{Name: l.FinderName, Email: l.FinderEmail, Phone: l.FinderPhone}
	}
}

// CreateLostItemRequest is the payload for POST /lost-items.
type CreateLostItemRequest struct {
	Title       string `json:"title" validate:"required"`
	Description string `json:"description" validate:"required"`
	Image       struct {
		URL      string `json:"url" validate:"required,url"`
		PublicID string `json:"publicId"`
	} `json:"image"`
	Location string    `json:"location" validate:"required"`
	DateLost time.Time `json:"dateLost" validate:"required"`
}

// UpdateLostItemRequest is the partial payload for PUT /lost-items/:id.
type UpdateLostItemRequest struct {
	Title         *string         `json:"title" validate:"omitempty,min=1"`
	Description   *string         `json:"description" validate:"omitempty,min=1"`
	Location      *string         `json:"location" validate:"omitempty,min=1"`
	DateLost      *time.Time      `json:"dateLost"`
	Status        *LostItemStatus `json:"status" validate:"omitempty,oneof=lost found claimed"`
	FinderContact *FinderContact  `json:"finderContact"`
}
