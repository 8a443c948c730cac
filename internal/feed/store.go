package feed

import (
	"context"
	"sync"

	"github.com/rs/zerolog"

	"github.com/cohortlab/cohort/internal/api"
)

// Snapshot is the dashboard view-state at a point in time. Posts are ordered
// newest first. SelectedCohort is non-nil for students, who see exactly their
// own cohort; staff see the full Cohorts aggregate instead.
type Snapshot struct {
	Posts          []api.Post
	Cohorts        []api.Cohort
	SelectedCohort *api.Cohort
	LoadingPosts   bool
	LoadingCohorts bool
}

// Store holds the dashboard view-state and applies mutations to it. All
// transforms run against the latest state under the store lock, so two
// handlers racing on the same post cannot lose each other's update.
type Store struct {
	client api.Feed
	user   api.User
	log    zerolog.Logger

	mu             sync.RWMutex
	posts          []api.Post
	cohorts        []api.Cohort
	selectedCohort *api.Cohort
	loadingPosts   bool
	loadingCohorts bool
}

// NewStore builds a store for the given logged-in user. The user's role
// decides which cohort view Load fetches.
func NewStore(client api.Feed, user api.User, log zerolog.Logger) *Store {
	return &Store{
		client: client,
		user:   user,
		log:    log,
	}
}

// User returns the logged-in user this store was built for.
func (s *Store) User() api.User {
	return s.user
}

// Load performs the initial dashboard fetches: posts (reversed once so the
// newest appears first) and cohorts (branching on the user's role). The two
// fetches are independent and run concurrently; each clears its own loading
// flag whether it succeeds or not. A failed fetch is logged and leaves the
// corresponding collection empty.
func (s *Store) Load(ctx context.Context) {
	s.mu.Lock()
	s.loadingPosts = true
	s.loadingCohorts = true
	s.mu.Unlock()

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		s.loadPosts(ctx)
	}()
	go func() {
		defer wg.Done()
		s.loadCohorts(ctx)
	}()
	wg.Wait()
}

func (s *Store) loadPosts(ctx context.Context) {
	defer func() {
		s.mu.Lock()
		s.loadingPosts = false
		s.mu.Unlock()
	}()

	posts, err := s.client.Posts(ctx)
	if err != nil {
		s.log.Error().Err(err).Msg("load posts failed")
		return
	}
	reverse(posts)

	s.mu.Lock()
	s.posts = posts
	s.mu.Unlock()
}

func (s *Store) loadCohorts(ctx context.Context) {
	defer func() {
		s.mu.Lock()
		s.loadingCohorts = false
		s.mu.Unlock()
	}()

	if s.user.IsTeacher() {
		cohorts, err := s.client.Cohorts(ctx)
		if err != nil {
			s.log.Error().Err(err).Msg("load cohorts failed")
			return
		}
		s.mu.Lock()
		s.cohorts = cohorts
		s.selectedCohort = nil
		s.mu.Unlock()
		return
	}

	cohort, err := s.client.CohortForUser(ctx, s.user.ID)
	if err != nil {
		s.log.Error().Err(err).Msg("load cohort failed")
		return
	}
	s.mu.Lock()
	s.cohorts = []api.Cohort{*cohort}
	s.selectedCohort = cohort
	s.mu.Unlock()
}

// Snapshot returns a copy of the current view-state. The posts slice is
// cloned so the caller's view is stable across later mutations.
func (s *Store) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return Snapshot{
		Posts:          clonePosts(s.posts),
		Cohorts:        cloneCohorts(s.cohorts),
		SelectedCohort: s.selectedCohort,
		LoadingPosts:   s.loadingPosts,
		LoadingCohorts: s.loadingCohorts,
	}
}

func clonePosts(posts []api.Post) []api.Post {
	if len(posts) == 0 {
		return nil
	}
	dup := make([]api.Post, len(posts))
	copy(dup, posts)
	return dup
}

func cloneCohorts(cohorts []api.Cohort) []api.Cohort {
	if len(cohorts) == 0 {
		return nil
	}
	dup := make([]api.Cohort, len(cohorts))
	copy(dup, cohorts)
	return dup
}

func reverse(posts []api.Post) {
	for i, j := 0, len(posts)-1; i < j; i, j = i+1, j-1 {
		posts[i], posts[j] = posts[j], posts[i]
	}
}
