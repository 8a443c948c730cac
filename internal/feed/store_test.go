package feed

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/cohortlab/cohort/internal/api"
)

// fakeClient is an in-memory stand-in for the API: posts are held in server
// order (oldest first) with comments tracked per post. Individual calls can
// be made to fail or to run a hook before returning.
type fakeClient struct {
	mu       sync.Mutex
	nextID   int
	posts    []api.Post
	comments map[int][]api.Comment

	cohorts    []api.Cohort
	userCohort *api.Cohort

	errs           map[string]error
	beforeComments func()
	gatePosts      chan struct{}
}

func newFakeClient() *fakeClient {
	return &fakeClient{
		nextID:   1,
		comments: make(map[int][]api.Comment),
		errs:     make(map[string]error),
	}
}

func (f *fakeClient) seedPost(userID int, content string, commentContents ...string) api.Post {
	f.mu.Lock()
	defer f.mu.Unlock()
	post := api.Post{ID: f.nextID, UserID: userID, Content: content}
	f.nextID++
	for _, cc := range commentContents {
		f.comments[post.ID] = append(f.comments[post.ID], api.Comment{
			ID: f.nextID, PostID: post.ID, UserID: userID, Content: cc,
		})
		f.nextID++
	}
	f.posts = append(f.posts, post)
	return post
}

func (f *fakeClient) Posts(ctx context.Context) ([]api.Post, error) {
	if f.gatePosts != nil {
		<-f.gatePosts
	}
	if err := f.errs["Posts"]; err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]api.Post, len(f.posts))
	copy(out, f.posts)
	for i := range out {
		out[i].Comments = append([]api.Comment(nil), f.comments[out[i].ID]...)
	}
	return out, nil
}

func (f *fakeClient) CreatePost(ctx context.Context, req api.CreatePostRequest) (*api.Post, error) {
	if err := f.errs["CreatePost"]; err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	post := api.Post{ID: f.nextID, UserID: req.UserID, Content: req.Content}
	f.nextID++
	f.posts = append(f.posts, post)
	return &post, nil
}

func (f *fakeClient) UpdatePost(ctx context.Context, id int, req api.UpdatePostRequest) (*api.Post, error) {
	if err := f.errs["UpdatePost"]; err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	for i, p := range f.posts {
		if p.ID == id {
			f.posts[i].Content = req.Content
			out := f.posts[i]
			return &out, nil
		}
	}
	return nil, &api.Error{StatusCode: 404, Message: "post not found"}
}

func (f *fakeClient) DeletePost(ctx context.Context, id int) error {
	if err := f.errs["DeletePost"]; err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	next := f.posts[:0]
	for _, p := range f.posts {
		if p.ID != id {
			next = append(next, p)
		}
	}
	f.posts = next
	delete(f.comments, id)
	return nil
}

func (f *fakeClient) Comments(ctx context.Context, postID int) ([]api.Comment, error) {
	if f.beforeComments != nil {
		f.beforeComments()
	}
	if err := f.errs["Comments"]; err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]api.Comment(nil), f.comments[postID]...), nil
}

func (f *fakeClient) CreateComment(ctx context.Context, postID int, req api.CreateCommentRequest) (*api.Comment, error) {
	if err := f.errs["CreateComment"]; err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	comment := api.Comment{ID: f.nextID, PostID: postID, UserID: req.UserID, Content: req.Content}
	f.nextID++
	f.comments[postID] = append(f.comments[postID], comment)
	return &comment, nil
}

func (f *fakeClient) UpdateComment(ctx context.Context, id int, req api.UpdateCommentRequest) (*api.Comment, error) {
	if err := f.errs["UpdateComment"]; err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	for postID, list := range f.comments {
		for i, c := range list {
			if c.ID == id {
				f.comments[postID][i].Content = req.Content
				out := f.comments[postID][i]
				return &out, nil
			}
		}
	}
	return nil, &api.Error{StatusCode: 404, Message: "comment not found"}
}

func (f *fakeClient) DeleteComment(ctx context.Context, id int) error {
	if err := f.errs["DeleteComment"]; err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	for postID, list := range f.comments {
		next := list[:0]
		for _, c := range list {
			if c.ID != id {
				next = append(next, c)
			}
		}
		f.comments[postID] = next
	}
	return nil
}

func (f *fakeClient) Cohorts(ctx context.Context) ([]api.Cohort, error) {
	if err := f.errs["Cohorts"]; err != nil {
		return nil, err
	}
	return append([]api.Cohort(nil), f.cohorts...), nil
}

func (f *fakeClient) CohortForUser(ctx context.Context, userID int) (*api.Cohort, error) {
	if err := f.errs["CohortForUser"]; err != nil {
		return nil, err
	}
	if f.userCohort == nil {
		return nil, &api.Error{StatusCode: 404, Message: "cohort not found"}
	}
	out := *f.userCohort
	return &out, nil
}

var _ api.Feed = (*fakeClient)(nil)

var (
	student = api.User{ID: 10, FirstName: "Sam", Role: api.RoleStudent}
	teacher = api.User{ID: 20, FirstName: "Tessa", Role: api.RoleTeacher}
)

func newTestStore(client api.Feed, user api.User) *Store {
	return NewStore(client, user, zerolog.Nop())
}

func TestLoad_ReversesPostsNewestFirst(t *testing.T) {
	client := newFakeClient()
	first := client.seedPost(student.ID, "first")
	second := client.seedPost(student.ID, "second")
	third := client.seedPost(student.ID, "third")
	client.userCohort = &api.Cohort{ID: 1, Title: "Cohort 4"}

	s := newTestStore(client, student)
	s.Load(context.Background())

	snap := s.Snapshot()
	if snap.LoadingPosts || snap.LoadingCohorts {
		t.Fatalf("loading flags = %v/%v, want cleared after load", snap.LoadingPosts, snap.LoadingCohorts)
	}
	if len(snap.Posts) != 3 {
		t.Fatalf("posts = %d, want 3", len(snap.Posts))
	}
	if snap.Posts[0].ID != third.ID || snap.Posts[1].ID != second.ID || snap.Posts[2].ID != first.ID {
		t.Fatalf("posts order = %d,%d,%d, want newest first", snap.Posts[0].ID, snap.Posts[1].ID, snap.Posts[2].ID)
	}
}

func TestLoad_CohortBranchByRole(t *testing.T) {
	client := newFakeClient()
	client.cohorts = []api.Cohort{{ID: 1, Title: "Cohort 4"}, {ID: 2, Title: "Cohort 5"}}
	client.userCohort = &api.Cohort{ID: 2, Title: "Cohort 5"}

	studentStore := newTestStore(client, student)
	studentStore.Load(context.Background())
	snap := studentStore.Snapshot()
	if snap.SelectedCohort == nil || snap.SelectedCohort.ID != 2 {
		t.Fatalf("student SelectedCohort = %#v, want own cohort selected", snap.SelectedCohort)
	}
	if len(snap.Cohorts) != 1 {
		t.Fatalf("student cohorts = %d, want just the user's", len(snap.Cohorts))
	}

	teacherStore := newTestStore(client, teacher)
	teacherStore.Load(context.Background())
	snap = teacherStore.Snapshot()
	if snap.SelectedCohort != nil {
		t.Fatalf("teacher SelectedCohort = %#v, want nil for aggregate view", snap.SelectedCohort)
	}
	if len(snap.Cohorts) != 2 {
		t.Fatalf("teacher cohorts = %d, want all cohorts", len(snap.Cohorts))
	}
}

func TestLoad_FailureDegradesToEmptyAndClearsFlags(t *testing.T) {
	client := newFakeClient()
	client.seedPost(student.ID, "will not arrive")
	client.errs["Posts"] = errors.New("connection refused")
	client.userCohort = &api.Cohort{ID: 1}

	s := newTestStore(client, student)
	s.Load(context.Background())

	snap := s.Snapshot()
	if snap.LoadingPosts {
		t.Fatal("LoadingPosts still true after failed load")
	}
	if len(snap.Posts) != 0 {
		t.Fatalf("posts = %d, want empty on failure", len(snap.Posts))
	}
	// The cohort fetch is independent and still succeeds.
	if snap.SelectedCohort == nil {
		t.Fatal("SelectedCohort = nil, want cohort loaded despite posts failure")
	}
}

func TestLoad_LoadingFlagVisibleWhileFetchInFlight(t *testing.T) {
	client := newFakeClient()
	client.userCohort = &api.Cohort{ID: 1}
	client.gatePosts = make(chan struct{})

	s := newTestStore(client, student)
	done := make(chan struct{})
	go func() {
		s.Load(context.Background())
		close(done)
	}()

	// Wait for the posts fetch to be blocked on the gate.
	deadline := time.After(2 * time.Second)
	for {
		snap := s.Snapshot()
		if snap.LoadingPosts {
			break
		}
		select {
		case <-deadline:
			t.Fatal("LoadingPosts never became true")
		default:
			time.Sleep(time.Millisecond)
		}
	}

	close(client.gatePosts)
	<-done
	if snap := s.Snapshot(); snap.LoadingPosts {
		t.Fatal("LoadingPosts still true after load completed")
	}
}

func TestSnapshot_CloneIsIndependent(t *testing.T) {
	client := newFakeClient()
	client.seedPost(student.ID, "hello")
	client.userCohort = &api.Cohort{ID: 1}

	s := newTestStore(client, student)
	s.Load(context.Background())

	snap := s.Snapshot()
	snap.Posts[0].Content = "mutated"

	if got := s.Snapshot().Posts[0].Content; got != "hello" {
		t.Fatalf("store content = %q, want snapshot mutation not visible", got)
	}
}

func fmtIDs(posts []api.Post) string {
	ids := make([]int, len(posts))
	for i, p := range posts {
		ids[i] = p.ID
	}
	return fmt.Sprint(ids)
}
