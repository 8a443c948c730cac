package harness

import (
	"sort"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"golang.org/x/crypto/bcrypt"

	"github.com/cohortlab/cohort/internal/api"
)

func (s *Server) login(c *fiber.Ctx) error {
	var req api.LoginRequest
	if err := c.BodyParser(&req); err != nil {
		return fail(c, fiber.StatusBadRequest, "Invalid request body")
	}

	s.mu.Lock()
	record := s.findByEmail(req.Email)
	s.mu.Unlock()
	if record == nil {
		return fail(c, fiber.StatusUnauthorized, "Invalid credentials")
	}
	if err := bcrypt.CompareHashAndPassword(record.passwordHash, []byte(req.Password)); err != nil {
		return fail(c, fiber.StatusUnauthorized, "Invalid credentials")
	}

	token, err := s.generateToken(record.user.ID)
	if err != nil {
		return fail(c, fiber.StatusInternalServerError, "Token generation failed")
	}
	return c.JSON(fiber.Map{
		"status": "success",
		"data":   fiber.Map{"token": token, "user": record.user},
	})
}

func (s *Server) register(c *fiber.Ctx) error {
	var req api.RegisterRequest
	if err := c.BodyParser(&req); err != nil {
		return fail(c, fiber.StatusBadRequest, "Invalid request body")
	}
	if req.Email == "" || req.Password == "" {
		return fail(c, fiber.StatusBadRequest, "Email and password are required")
	}

	s.mu.Lock()
	if s.findByEmail(req.Email) != nil {
		s.mu.Unlock()
		return fail(c, fiber.StatusConflict, "Email already in use")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.MinCost)
	if err != nil {
		s.mu.Unlock()
		return fail(c, fiber.StatusInternalServerError, "Hashing failed")
	}
	user := api.User{
		ID:    s.nextID,
		Email: req.Email,
		Role:  api.RoleStudent,
	}
	if len(s.cohorts) > 0 {
		user.CohortID = s.cohorts[0].id
	}
	s.nextID++
	s.users[user.ID] = &userRecord{user: user, passwordHash: hash}
	s.mu.Unlock()

	token, err := s.generateToken(user.ID)
	if err != nil {
		return fail(c, fiber.StatusInternalServerError, "Token generation failed")
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"status": "success",
		"data":   fiber.Map{"token": token, "user": user},
	})
}

// findByEmail expects s.mu held.
func (s *Server) findByEmail(email string) *userRecord {
	for _, record := range s.users {
		if strings.EqualFold(record.user.Email, email) {
			return record
		}
	}
	return nil
}

func (s *Server) listUsers(c *fiber.Ctx) error {
	name := strings.ToLower(strings.TrimSpace(c.Query("name")))

	s.mu.Lock()
	defer s.mu.Unlock()

	users := make([]api.User, 0, len(s.users))
	for _, record := range s.users {
		u := record.user
		if name != "" {
			first := strings.ToLower(u.FirstName)
			last := strings.ToLower(u.LastName)
			if !strings.Contains(first, name) && !strings.Contains(last, name) {
				continue
			}
		}
		users = append(users, u)
	}
	sort.Slice(users, func(i, j int) bool { return users[i].ID < users[j].ID })
	return respond(c, fiber.StatusOK, "users", users)
}

func (s *Server) getUser(c *fiber.Ctx) error {
	id, err := c.ParamsInt("id")
	if err != nil {
		return fail(c, fiber.StatusBadRequest, "Invalid user ID")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	record, ok := s.users[id]
	if !ok {
		return fail(c, fiber.StatusNotFound, "User not found")
	}
	return respond(c, fiber.StatusOK, "user", record.user)
}

func (s *Server) updateUser(c *fiber.Ctx) error {
	id, err := c.ParamsInt("id")
	if err != nil {
		return fail(c, fiber.StatusBadRequest, "Invalid user ID")
	}
	callerID := c.Locals("userID").(int)

	var req api.UpdateUserRequest
	if err := c.BodyParser(&req); err != nil {
		return fail(c, fiber.StatusBadRequest, "Invalid request body")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	record, ok := s.users[id]
	if !ok {
		return fail(c, fiber.StatusNotFound, "User not found")
	}
	caller, ok := s.users[callerID]
	if !ok {
		return fail(c, fiber.StatusUnauthorized, "Unknown caller")
	}
	// Users edit themselves; staff edit anyone.
	if callerID != id && !caller.user.IsTeacher() {
		return fail(c, fiber.StatusForbidden, "Not allowed to edit this profile")
	}

	u := &record.user
	setString(&u.Email, req.Email)
	setString(&u.FirstName, req.FirstName)
	setString(&u.LastName, req.LastName)
	setString(&u.Username, req.Username)
	setString(&u.Bio, req.Bio)
	setString(&u.GithubURL, req.GithubURL)
	setString(&u.Mobile, req.Mobile)
	setString(&u.PhotoURL, req.PhotoURL)
	setString(&u.Specialism, req.Specialism)
	if req.Password != nil && *req.Password != "" {
		hash, err := bcrypt.GenerateFromPassword([]byte(*req.Password), bcrypt.MinCost)
		if err != nil {
			return fail(c, fiber.StatusInternalServerError, "Hashing failed")
		}
		record.passwordHash = hash
	}

	return respond(c, fiber.StatusOK, "user", record.user)
}

func setString(dst *string, src *string) {
	if src != nil {
		*dst = *src
	}
}

func (s *Server) listPosts(c *fiber.Ctx) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	posts := make([]api.Post, 0, len(s.postIDs))
	for _, id := range s.postIDs {
		posts = append(posts, s.materializePost(id))
	}
	return respond(c, fiber.StatusOK, "posts", posts)
}

func (s *Server) createPost(c *fiber.Ctx) error {
	var req api.CreatePostRequest
	if err := c.BodyParser(&req); err != nil {
		return fail(c, fiber.StatusBadRequest, "Invalid request body")
	}
	if strings.TrimSpace(req.Content) == "" {
		return fail(c, fiber.StatusBadRequest, "Content is required")
	}
	userID := req.UserID
	if userID == 0 {
		userID = c.Locals("userID").(int)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now().UTC()
	post := &api.Post{
		ID:        s.nextID,
		UserID:    userID,
		Content:   req.Content,
		CreatedAt: now,
		UpdatedAt: now,
	}
	s.nextID++
	s.posts[post.ID] = post
	s.postIDs = append(s.postIDs, post.ID)

	return respond(c, fiber.StatusCreated, "post", s.materializePost(post.ID))
}

func (s *Server) updatePost(c *fiber.Ctx) error {
	id, err := c.ParamsInt("id")
	if err != nil {
		return fail(c, fiber.StatusBadRequest, "Invalid post ID")
	}
	var req api.UpdatePostRequest
	if err := c.BodyParser(&req); err != nil {
		return fail(c, fiber.StatusBadRequest, "Invalid request body")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	post, ok := s.posts[id]
	if !ok {
		return fail(c, fiber.StatusNotFound, "Post not found")
	}
	post.Content = req.Content
	post.UpdatedAt = time.Now().UTC()
	return respond(c, fiber.StatusOK, "post", s.materializePost(id))
}

func (s *Server) deletePost(c *fiber.Ctx) error {
	id, err := c.ParamsInt("id")
	if err != nil {
		return fail(c, fiber.StatusBadRequest, "Invalid post ID")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.posts[id]; !ok {
		return fail(c, fiber.StatusNotFound, "Post not found")
	}
	deleted := s.materializePost(id)
	delete(s.posts, id)
	delete(s.comments, id)
	next := s.postIDs[:0]
	for _, pid := range s.postIDs {
		if pid != id {
			next = append(next, pid)
		}
	}
	s.postIDs = next
	return respond(c, fiber.StatusOK, "post", deleted)
}

func (s *Server) listComments(c *fiber.Ctx) error {
	id, err := c.ParamsInt("id")
	if err != nil {
		return fail(c, fiber.StatusBadRequest, "Invalid post ID")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.posts[id]; !ok {
		return fail(c, fiber.StatusNotFound, "Post not found")
	}
	return respond(c, fiber.StatusOK, "comments", s.materializeComments(id))
}

func (s *Server) createComment(c *fiber.Ctx) error {
	postID, err := c.ParamsInt("id")
	if err != nil {
		return fail(c, fiber.StatusBadRequest, "Invalid post ID")
	}
	var req api.CreateCommentRequest
	if err := c.BodyParser(&req); err != nil {
		return fail(c, fiber.StatusBadRequest, "Invalid request body")
	}
	if strings.TrimSpace(req.Content) == "" {
		return fail(c, fiber.StatusBadRequest, "Content is required")
	}
	userID := req.UserID
	if userID == 0 {
		userID = c.Locals("userID").(int)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.posts[postID]; !ok {
		return fail(c, fiber.StatusNotFound, "Post not found")
	}
	comment := api.Comment{
		ID:        s.nextID,
		PostID:    postID,
		UserID:    userID,
		Content:   req.Content,
		CreatedAt: time.Now().UTC(),
	}
	s.nextID++
	s.comments[postID] = append(s.comments[postID], comment)

	withAuthor := comment
	if record, ok := s.users[userID]; ok {
		author := record.user
		withAuthor.Author = &author
	}
	return respond(c, fiber.StatusCreated, "comment", withAuthor)
}

func (s *Server) updateComment(c *fiber.Ctx) error {
	id, err := c.ParamsInt("id")
	if err != nil {
		return fail(c, fiber.StatusBadRequest, "Invalid comment ID")
	}
	var req api.UpdateCommentRequest
	if err := c.BodyParser(&req); err != nil {
		return fail(c, fiber.StatusBadRequest, "Invalid request body")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for postID, list := range s.comments {
		for i, comment := range list {
			if comment.ID == id {
				s.comments[postID][i].Content = req.Content
				return respond(c, fiber.StatusOK, "comment", s.comments[postID][i])
			}
		}
	}
	return fail(c, fiber.StatusNotFound, "Comment not found")
}

func (s *Server) deleteComment(c *fiber.Ctx) error {
	id, err := c.ParamsInt("id")
	if err != nil {
		return fail(c, fiber.StatusBadRequest, "Invalid comment ID")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for postID, list := range s.comments {
		for i, comment := range list {
			if comment.ID == id {
				s.comments[postID] = append(list[:i:i], list[i+1:]...)
				return respond(c, fiber.StatusOK, "comment", comment)
			}
		}
	}
	return fail(c, fiber.StatusNotFound, "Comment not found")
}

func (s *Server) cohortsHandler(c *fiber.Ctx) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if userQuery := c.QueryInt("user"); userQuery > 0 {
		record, ok := s.users[userQuery]
		if !ok {
			return fail(c, fiber.StatusNotFound, "User not found")
		}
		for _, cohort := range s.cohorts {
			if cohort.id == record.user.CohortID {
				return respond(c, fiber.StatusOK, "cohort", s.materializeCohort(cohort))
			}
		}
		return fail(c, fiber.StatusNotFound, "Cohort not found")
	}

	cohorts := make([]api.Cohort, 0, len(s.cohorts))
	for _, cohort := range s.cohorts {
		cohorts = append(cohorts, s.materializeCohort(cohort))
	}
	return respond(c, fiber.StatusOK, "cohorts", cohorts)
}

// materializePost expects s.mu held.
func (s *Server) materializePost(id int) api.Post {
	post := *s.posts[id]
	post.Comments = s.materializeComments(id)
	if record, ok := s.users[post.UserID]; ok {
		author := record.user
		post.Author = &author
	}
	return post
}

// materializeComments expects s.mu held.
func (s *Server) materializeComments(postID int) []api.Comment {
	list := s.comments[postID]
	out := make([]api.Comment, len(list))
	copy(out, list)
	for i := range out {
		if record, ok := s.users[out[i].UserID]; ok {
			author := record.user
			out[i].Author = &author
		}
	}
	return out
}

// materializeCohort expects s.mu held. Each cohort carries a single course
// whose students and teachers are the users assigned to the cohort.
func (s *Server) materializeCohort(cohort cohortRecord) api.Cohort {
	course := api.Course{Title: "Software Development"}
	ids := make([]int, 0, len(s.users))
	for id := range s.users {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	for _, id := range ids {
		u := s.users[id].user
		if u.CohortID != cohort.id {
			continue
		}
		if u.IsTeacher() {
			course.Teachers = append(course.Teachers, u)
		} else {
			course.Students = append(course.Students, u)
		}
	}
	return api.Cohort{
		ID:      cohort.id,
		Title:   cohort.title,
		Courses: []api.Course{course},
	}
}
