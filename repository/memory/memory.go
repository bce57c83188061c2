// Package memory implements the repository interfaces over in-process
// maps. It exists for tests: handlers and middleware are exercised against
// it instead of a running Mongo. Semantics mirror the Mongo repositories,
// including uniqueness conflicts, counter floors, and newest-first order.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"anonyme/models"
	"anonyme/repository"
)

type Store struct {
	mu       sync.Mutex
	seq      int64
	users    map[primitive.ObjectID]*models.User
	posts    map[primitive.ObjectID]*models.Post
	comments map[primitive.ObjectID]*models.Comment
	postSeq  map[primitive.ObjectID]int64
	commSeq  map[primitive.ObjectID]int64
}

func NewStore() *Store {
	return &Store{
		users:    make(map[primitive.ObjectID]*models.User),
		posts:    make(map[primitive.ObjectID]*models.Post),
		comments: make(map[primitive.ObjectID]*models.Comment),
		postSeq:  make(map[primitive.ObjectID]int64),
		commSeq:  make(map[primitive.ObjectID]int64),
	}
}

func (s *Store) Users() repository.UserRepository       { return &userRepo{s} }
func (s *Store) Posts() repository.PostRepository       { return &postRepo{s} }
func (s *Store) Comments() repository.CommentRepository { return &commentRepo{s} }

func (s *Store) next() int64 {
	s.seq++
	return s.seq
}

type userRepo struct{ s *Store }

func (r *userRepo) Create(ctx context.Context, u *models.User) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	for _, existing := range r.s.users {
		switch {
		case existing.SubjectID == u.SubjectID:
			return &repository.DuplicateError{Field: "subjectId"}
		case existing.Username == u.Username:
			return &repository.DuplicateError{Field: "username"}
		case existing.Email == u.Email:
			return &repository.DuplicateError{Field: "email"}
		}
	}

	if u.ID.IsZero() {
		u.ID = primitive.NewObjectID()
	}
	now := time.Now().UTC()
	u.CreatedAt = now
	u.UpdatedAt = now

	cp := *u
	r.s.users[u.ID] = &cp
	return nil
}

func (r *userRepo) FindByID(ctx context.Context, id primitive.ObjectID) (*models.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	return r.findLocked(func(u *models.User) bool { return u.ID == id })
}

func (r *userRepo) FindBySubject(ctx context.Context, subjectID string) (*models.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	return r.findLocked(func(u *models.User) bool { return u.SubjectID == subjectID })
}

func (r *userRepo) FindByUsername(ctx context.Context, username string) (*models.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	return r.findLocked(func(u *models.User) bool { return u.Username == username })
}

func (r *userRepo) findLocked(match func(*models.User) bool) (*models.User, error) {
	for _, u := range r.s.users {
		if match(u) {
			cp := *u
			return &cp, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *userRepo) FindByIDs(ctx context.Context, ids []primitive.ObjectID) (map[primitive.ObjectID]*models.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	result := make(map[primitive.ObjectID]*models.User, len(ids))
	for _, id := range ids {
		if u, ok := r.s.users[id]; ok {
			cp := *u
			result[id] = &cp
		}
	}
	return result, nil
}

func (r *userRepo) UpdateProfile(ctx context.Context, id primitive.ObjectID, upd repository.ProfileUpdate) (*models.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	u, ok := r.s.users[id]
	if !ok {
		return nil, repository.ErrNotFound
	}

	if upd.DisplayName != nil {
		u.DisplayName = *upd.DisplayName
	}
	if upd.Bio != nil {
		u.Bio = *upd.Bio
	}
	if upd.ProfilePicture != nil {
		u.ProfilePicture = *upd.ProfilePicture
	}
	u.UpdatedAt = time.Now().UTC()

	cp := *u
	return &cp, nil
}

type postRepo struct{ s *Store }

func (r *postRepo) Create(ctx context.Context, p *models.Post) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if p.ID.IsZero() {
		p.ID = primitive.NewObjectID()
	}
	if p.Likes == nil {
		p.Likes = []primitive.ObjectID{}
	}
	now := time.Now().UTC()
	p.CreatedAt = now
	p.UpdatedAt = now
	p.LikesCount = 0
	p.CommentsCount = 0

	cp := clonePost(p)
	r.s.posts[p.ID] = cp
	r.s.postSeq[p.ID] = r.s.next()
	return nil
}

func (r *postRepo) FindByID(ctx context.Context, id primitive.ObjectID) (*models.Post, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	p, ok := r.s.posts[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return clonePost(p), nil
}

func (r *postRepo) List(ctx context.Context, page, limit int) ([]models.Post, int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	all := r.sortedLocked(func(*models.Post) bool { return true })
	total := int64(len(all))

	skip := (page - 1) * limit
	if skip >= len(all) {
		return []models.Post{}, total, nil
	}
	end := skip + limit
	if end > len(all) {
		end = len(all)
	}
	return all[skip:end], total, nil
}

func (r *postRepo) ListByUser(ctx context.Context, userID primitive.ObjectID) ([]models.Post, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	return r.sortedLocked(func(p *models.Post) bool { return p.UserID == userID }), nil
}

func (r *postRepo) sortedLocked(match func(*models.Post) bool) []models.Post {
	out := []models.Post{}
	for _, p := range r.s.posts {
		if match(p) {
			out = append(out, *clonePost(p))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return r.s.postSeq[out[i].ID] > r.s.postSeq[out[j].ID]
	})
	return out
}

func (r *postRepo) ToggleLike(ctx context.Context, postID, userID primitive.ObjectID) (*models.Post, bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	p, ok := r.s.posts[postID]
	if !ok {
		return nil, false, repository.ErrNotFound
	}

	liked := true
	if p.LikedBy(userID) {
		keep := p.Likes[:0]
		for _, id := range p.Likes {
			if id != userID {
				keep = append(keep, id)
			}
		}
		p.Likes = keep
		liked = false
	} else {
		p.Likes = append(p.Likes, userID)
	}
	p.LikesCount = len(p.Likes)
	p.UpdatedAt = time.Now().UTC()

	return clonePost(p), liked, nil
}

func (r *postRepo) Delete(ctx context.Context, id primitive.ObjectID) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.posts[id]; !ok {
		return repository.ErrNotFound
	}
	delete(r.s.posts, id)
	delete(r.s.postSeq, id)
	return nil
}

func (r *postRepo) AdjustCommentsCount(ctx context.Context, postID primitive.ObjectID, delta int) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	p, ok := r.s.posts[postID]
	if !ok {
		return nil
	}
	p.CommentsCount += delta
	if p.CommentsCount < 0 {
		p.CommentsCount = 0
	}
	p.UpdatedAt = time.Now().UTC()
	return nil
}

type commentRepo struct{ s *Store }

func (r *commentRepo) Create(ctx context.Context, c *models.Comment) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if c.ID.IsZero() {
		c.ID = primitive.NewObjectID()
	}
	c.CreatedAt = time.Now().UTC()

	cp := *c
	r.s.comments[c.ID] = &cp
	r.s.commSeq[c.ID] = r.s.next()
	return nil
}

func (r *commentRepo) FindByID(ctx context.Context, id primitive.ObjectID) (*models.Comment, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	c, ok := r.s.comments[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *c
	return &cp, nil
}

func (r *commentRepo) ListForPost(ctx context.Context, postID primitive.ObjectID) ([]models.Comment, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	out := []models.Comment{}
	for _, c := range r.s.comments {
		if c.PostID == postID {
			out = append(out, *c)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return r.s.commSeq[out[i].ID] > r.s.commSeq[out[j].ID]
	})
	return out, nil
}

func (r *commentRepo) Delete(ctx context.Context, id primitive.ObjectID) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.comments[id]; !ok {
		return repository.ErrNotFound
	}
	delete(r.s.comments, id)
	delete(r.s.commSeq, id)
	return nil
}

func (r *commentRepo) DeleteForPost(ctx context.Context, postID primitive.ObjectID) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	var n int64
	for id, c := range r.s.comments {
		if c.PostID == postID {
			delete(r.s.comments, id)
			delete(r.s.commSeq, id)
			n++
		}
	}
	return n, nil
}

func clonePost(p *models.Post) *models.Post {
	cp := *p
	cp.Likes = append([]primitive.ObjectID{}, p.Likes...)
	return &cp
}
