package api

import "time"

// Visibility controls who can see a lesson
type Visibility string

const (
	VisibilityPublic  Visibility = "public"
	VisibilityPrivate Visibility = "private"
)

// Access gates a lesson behind the premium entitlement
type Access string

const (
	AccessFree    Access = "free"
	AccessPremium Access = "premium"
)

// Lesson is a shared life lesson post
type Lesson struct {
	ID          string     `json:"_id"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Category    string     `json:"category"`
	Tone        string     `json:"tone"`
	Visibility  Visibility `json:"visibility"`
	Access      Access     `json:"accessLevel"`
	AuthorName  string     `json:"authorName"`
	AuthorEmail string     `json:"authorEmail"`
	AuthorPhoto string     `json:"authorPhoto,omitempty"`
	Likes       int        `json:"likesCount"`
	Favorites   int        `json:"favoritesCount"`
	Featured    bool       `json:"featured"`
	Reviewed    bool       `json:"reviewed"`
	CreatedAt   time.Time  `json:"createdAt"`
}

// NewLesson is the creation payload
type NewLesson struct {
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Category    string     `json:"category"`
	Tone        string     `json:"tone"`
	Visibility  Visibility `json:"visibility"`
	Access      Access     `json:"accessLevel"`
}

// LessonPage is the list envelope for paginated lesson endpoints. Endpoints
// report either a flat total or a page count; both fields are carried.
type LessonPage struct {
	Items      []Lesson `json:"items"`
	Total      int      `json:"total,omitempty"`
	TotalPages int      `json:"totalPages,omitempty"`
}

// LessonUpdate is the full-replace edit payload for an owned lesson
type LessonUpdate struct {
	Title       string `json:"title"`
	Category    string `json:"category"`
	Tone        string `json:"tone"`
	Description string `json:"description"`
}

// LessonQuery are the 1-indexed pagination and filter parameters
type LessonQuery struct {
	Page     int
	Limit    int
	Search   string
	Category string
	Tone     string
}

// NewUser is the registration payload mirrored to the backend after the
// identity provider creates the account
type NewUser struct {
	Email    string `json:"email"`
	Name     string `json:"name"`
	PhotoURL string `json:"photoURL,omitempty"`
}

// UserPatch updates mutable profile fields
type UserPatch struct {
	Name     string `json:"name,omitempty"`
	PhotoURL string `json:"photoURL,omitempty"`
}

// RoleRecord is the backend's role and entitlement classification for a user
type RoleRecord struct {
	Role    string `json:"role"`
	Premium bool   `json:"premium"`
}

// PlatformUser is a user row in the admin user listing
type PlatformUser struct {
	ID       string    `json:"_id"`
	Email    string    `json:"email"`
	Name     string    `json:"name"`
	Role     string    `json:"role"`
	Premium  bool      `json:"premium"`
	JoinedAt time.Time `json:"createdAt"`
}

// UserQuery are the admin user listing pagination and search parameters
type UserQuery struct {
	Page   int
	Limit  int
	Search string
}

// UserPage is the admin user listing envelope
type UserPage struct {
	Users []PlatformUser `json:"users"`
	Total int            `json:"total"`
}

// ReportedLesson is a moderation queue entry
type ReportedLesson struct {
	ID         string    `json:"_id"`
	LessonID   string    `json:"lessonId"`
	Title      string    `json:"title"`
	Reason     string    `json:"reason"`
	ReportedBy string    `json:"reportedBy"`
	ReportedAt time.Time `json:"reportedAt"`
}

// StatsOverview is the public landing page counters
type StatsOverview struct {
	Lessons      int `json:"lessons"`
	Users        int `json:"users"`
	Favorites    int `json:"favorites"`
	Contributors int `json:"contributors"`
}

// AdminStats is the moderation dashboard counters
type AdminStats struct {
	TotalUsers      int `json:"totalUsers"`
	TotalLessons    int `json:"totalLessons"`
	PublicLessons   int `json:"publicLessons"`
	ReportedLessons int `json:"reportedLessons"`
	PremiumUsers    int `json:"premiumUsers"`
}

// GrowthPoint is one bucket in a growth series
type GrowthPoint struct {
	Date  string `json:"date"`
	Count int    `json:"count"`
}

// Contributor is a top contributor row
type Contributor struct {
	Email   string `json:"email"`
	Name    string `json:"name"`
	Lessons int    `json:"lessons"`
	Likes   int    `json:"likes"`
}

// AdminProfile is the administrator's own profile
type AdminProfile struct {
	Email    string `json:"email"`
	Name     string `json:"name"`
	PhotoURL string `json:"photoURL,omitempty"`
}
