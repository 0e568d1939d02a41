package catalog

import "time"

// Classic is a literary text in the catalog. Classics are curated content,
// not user-owned; only their annotations are.
type Classic struct {
	ID          int64     `json:"id"`
	Title       string    `json:"title"`
	Author      string    `json:"author,omitempty"`
	Dynasty     string    `json:"dynasty,omitempty"`
	Content     string    `json:"content"`
	Explanation string    `json:"explanation,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Note is a user annotation on a classic. UserID records the owner at
// creation time and never changes; it is the sole authorization input for
// later mutation.
type Note struct {
	ID        int64     `json:"id"`
	ClassicID int64     `json:"classic_id"`
	UserID    int64     `json:"user_id"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Translation is a user-contributed rendering of a classic into a target
// language. Ownership works exactly like notes.
type Translation struct {
	ID        int64     `json:"id"`
	ClassicID int64     `json:"classic_id"`
	UserID    int64     `json:"user_id"`
	Language  string    `json:"language"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// ClassicQuery filters classic listings.
type ClassicQuery struct {
	Search string
	Limit  int
	Offset int
}

// NoteQuery filters note listings.
type NoteQuery struct {
	ClassicID int64
	Limit     int
	Offset    int
}

// TranslationQuery filters translation listings.
type TranslationQuery struct {
	ClassicID int64
	Language  string
	Limit     int
	Offset    int
}
