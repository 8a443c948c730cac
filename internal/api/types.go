package api

import "time"

// Role values for User.Role. Zero means student; any nonzero value is staff.
const (
	RoleStudent = 0
	RoleTeacher = 1
)

// User is an account record as returned by the Cohort Manager API.
type User struct {
	ID         int    `json:"id"`
	Email      string `json:"email"`
	FirstName  string `json:"firstName"`
	LastName   string `json:"lastName"`
	Username   string `json:"username"`
	Bio        string `json:"bio"`
	GithubURL  string `json:"githubUrl"`
	Mobile     string `json:"mobile"`
	PhotoURL   string `json:"photoUrl"`
	Role       int    `json:"role"`
	Specialism string `json:"specialism"`
	CohortID   int    `json:"cohortId"`
}

// IsTeacher reports whether the role discriminator marks this user as staff.
func (u User) IsTeacher() bool {
	return u.Role != RoleStudent
}

// FullName returns "First Last", falling back to the username when both name
// fields are empty.
func (u User) FullName() string {
	switch {
	case u.FirstName == "" && u.LastName == "":
		return u.Username
	case u.FirstName == "":
		return u.LastName
	case u.LastName == "":
		return u.FirstName
	}
	return u.FirstName + " " + u.LastName
}

// Post is a feed entry with its nested comment sequence. Comments are ordered
// oldest-first as the server returns them.
type Post struct {
	ID        int       `json:"id"`
	UserID    int       `json:"userId"`
	Content   string    `json:"content"`
	Author    *User     `json:"author,omitempty"`
	Comments  []Comment `json:"comments"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Comment always belongs to exactly one post.
type Comment struct {
	ID        int       `json:"id"`
	PostID    int       `json:"postId"`
	UserID    int       `json:"userId"`
	Content   string    `json:"content"`
	Author    *User     `json:"author,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

// Cohort is a read-only aggregate of courses.
type Cohort struct {
	ID      int      `json:"id"`
	Title   string   `json:"title"`
	Courses []Course `json:"courses"`
}

// Course groups the students and teachers enrolled in one strand of a cohort.
type Course struct {
	Title    string `json:"title"`
	Students []User `json:"students"`
	Teachers []User `json:"teachers"`
}

// AuthResponse is returned by login and register.
type AuthResponse struct {
	Token string `json:"token"`
	User  User   `json:"user"`
}

// LoginRequest is the POST /login payload.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// RegisterRequest is the POST /users payload.
type RegisterRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// UpdateUserRequest is the PATCH /users/:id payload. Pointer fields are
// omitted when nil so a patch only touches the fields the caller set.
type UpdateUserRequest struct {
	Email      *string `json:"email,omitempty"`
	FirstName  *string `json:"firstName,omitempty"`
	LastName   *string `json:"lastName,omitempty"`
	Username   *string `json:"username,omitempty"`
	Bio        *string `json:"bio,omitempty"`
	GithubURL  *string `json:"githubUrl,omitempty"`
	Mobile     *string `json:"mobile,omitempty"`
	PhotoURL   *string `json:"photoUrl,omitempty"`
	Password   *string `json:"password,omitempty"`
	Specialism *string `json:"specialism,omitempty"`
}

// CreatePostRequest is the POST /posts payload.
type CreatePostRequest struct {
	UserID  int    `json:"userId"`
	Content string `json:"content"`
}

// UpdatePostRequest is the PATCH /posts/:id payload.
type UpdatePostRequest struct {
	Content string `json:"content"`
}

// CreateCommentRequest is the POST /posts/:id/comments payload.
type CreateCommentRequest struct {
	UserID  int    `json:"userId"`
	Content string `json:"content"`
}

// UpdateCommentRequest is the PATCH /comments/:id payload.
type UpdateCommentRequest struct {
	Content string `json:"content"`
}
