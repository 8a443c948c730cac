package feed

import (
	"context"

	"github.com/cohortlab/cohort/internal/api"
)

// Each mutation is a server call followed by a local transform. The transform
// runs only after the call succeeds and trusts the server's response as the
// new truth for the fields the mutation changes; everything else is left
// untouched. A failed call returns before any local state changes.

// CreatePost publishes content as the store's user and prepends the server's
// returned post to the feed.
func (s *Store) CreatePost(ctx context.Context, content string) (*api.Post, error) {
	created, err := s.client.CreatePost(ctx, api.CreatePostRequest{
		UserID:  s.user.ID,
		Content: content,
	})
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	next := make([]api.Post, 0, len(s.posts)+1)
	next = append(next, *created)
	next = append(next, s.posts...)
	s.posts = next
	s.mu.Unlock()

	return created, nil
}

// DeletePost removes the post with the given id from the server, then from
// the feed.
func (s *Store) DeletePost(ctx context.Context, id int) error {
	if err := s.client.DeletePost(ctx, id); err != nil {
		return err
	}

	s.mu.Lock()
	next := make([]api.Post, 0, len(s.posts))
	for _, p := range s.posts {
		if p.ID != id {
			next = append(next, p)
		}
	}
	s.posts = next
	s.mu.Unlock()

	return nil
}

// UpdatePost patches a post's content and then re-fetches that post's
// comments, overwriting the local comment sequence with the server's. This is
// the one handler that re-synchronizes a nested collection instead of
// trusting prior local state.
func (s *Store) UpdatePost(ctx context.Context, id int, content string) error {
	patched, err := s.client.UpdatePost(ctx, id, api.UpdatePostRequest{Content: content})
	if err != nil {
		return err
	}
	comments, err := s.client.Comments(ctx, id)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.posts = replacePost(s.posts, id, func(api.Post) api.Post {
		next := *patched
		next.Comments = comments
		return next
	})
	return nil
}

// AddComment posts a comment and appends the server's returned comment to the
// matching post's sequence.
func (s *Store) AddComment(ctx context.Context, postID int, content string) (*api.Comment, error) {
	created, err := s.client.CreateComment(ctx, postID, api.CreateCommentRequest{
		UserID:  s.user.ID,
		Content: content,
	})
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.posts = replacePost(s.posts, postID, func(p api.Post) api.Post {
		next := make([]api.Comment, 0, len(p.Comments)+1)
		next = append(next, p.Comments...)
		next = append(next, *created)
		p.Comments = next
		return p
	})
	return created, nil
}

// DeleteComment removes a comment from the server and from its parent post's
// sequence, leaving sibling comments in order.
func (s *Store) DeleteComment(ctx context.Context, postID, commentID int) error {
	if err := s.client.DeleteComment(ctx, commentID); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.posts = replacePost(s.posts, postID, func(p api.Post) api.Post {
		next := make([]api.Comment, 0, len(p.Comments))
		for _, c := range p.Comments {
			if c.ID != commentID {
				next = append(next, c)
			}
		}
		p.Comments = next
		return p
	})
	return nil
}

// UpdateComment patches a comment's content and replaces it in place within
// its parent post.
func (s *Store) UpdateComment(ctx context.Context, postID, commentID int, content string) error {
	patched, err := s.client.UpdateComment(ctx, commentID, api.UpdateCommentRequest{Content: content})
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.posts = replacePost(s.posts, postID, func(p api.Post) api.Post {
		next := make([]api.Comment, len(p.Comments))
		copy(next, p.Comments)
		for i, c := range next {
			if c.ID == commentID {
				next[i] = *patched
			}
		}
		p.Comments = next
		return p
	})
	return nil
}

// replacePost rebuilds the posts slice with the post matching id passed
// through fn. Posts that don't match are carried over unchanged, so their
// comment slices keep their identity. A missing id leaves the slice equal to
// the input; the caller raced a delete and the mutation's target is gone.
func replacePost(posts []api.Post, id int, fn func(api.Post) api.Post) []api.Post {
	next := make([]api.Post, len(posts))
	copy(next, posts)
	for i, p := range next {
		if p.ID == id {
			next[i] = fn(p)
		}
	}
	return next
}
