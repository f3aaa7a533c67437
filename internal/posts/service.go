package posts

import (
	"context"
	"errors"

	"github.com/tiya001/hw05-final/internal/db"

	"github.com/jackc/pgx/v5"
)

var ErrNotFound = errors.New("not found")

// Posts are served newest first; descending id breaks created_at ties in
// insertion order.
const postSelect = `
	SELECT p.id, p.text, p.author_id, u.username, p.group_id, g.slug, p.image, p.created_at
	FROM posts p
	JOIN users u ON u.id = p.author_id
	LEFT JOIN groups g ON g.id = p.group_id`

const postOrder = ` ORDER BY p.created_at DESC, p.id DESC`

type Service struct {
	db db.Querier
}

func NewService(q db.Querier) *Service {
	return &Service{db: q}
}

func (s *Service) AllPosts(ctx context.Context) ([]Post, error) {
	rows, err := s.db.Query(ctx, postSelect+postOrder)
	if err != nil {
		return nil, err
	}
	return scanPosts(rows)
}

func (s *Service) GroupBySlug(ctx context.Context, slug string) (Group, error) {
	row := s.db.QueryRow(ctx, `
		SELECT id, title, slug, description FROM groups WHERE slug = $1
	`, slug)
	var group Group
	if err := row.Scan(&group.ID, &group.Title, &group.Slug, &group.Description); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Group{}, ErrNotFound
		}
		return Group{}, err
	}
	return group, nil
}

func (s *Service) PostsByGroup(ctx context.Context, slug string) (Group, []Post, error) {
	group, err := s.GroupBySlug(ctx, slug)
	if err != nil {
		return Group{}, nil, err
	}

	rows, err := s.db.Query(ctx, postSelect+` WHERE p.group_id = $1`+postOrder, group.ID)
	if err != nil {
		return Group{}, nil, err
	}
	list, err := scanPosts(rows)
	if err != nil {
		return Group{}, nil, err
	}
	return group, list, nil
}

func (s *Service) AuthorByUsername(ctx context.Context, username string) (Author, error) {
	row := s.db.QueryRow(ctx, `
		SELECT id, username FROM users WHERE username = $1
	`, username)
	var author Author
	if err := row.Scan(&author.ID, &author.Username); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Author{}, ErrNotFound
		}
		return Author{}, err
	}
	return author, nil
}

func (s *Service) PostsByAuthor(ctx context.Context, username string) (Author, []Post, error) {
	author, err := s.AuthorByUsername(ctx, username)
	if err != nil {
		return Author{}, nil, err
	}

	rows, err := s.db.Query(ctx, postSelect+` WHERE p.author_id = $1`+postOrder, author.ID)
	if err != nil {
		return Author{}, nil, err
	}
	list, err := scanPosts(rows)
	if err != nil {
		return Author{}, nil, err
	}
	return author, list, nil
}

// PostsFromFollowed returns the posts of every author the user follows.
// No edges means an empty feed, not an error.
func (s *Service) PostsFromFollowed(ctx context.Context, userID string) ([]Post, error) {
	rows, err := s.db.Query(ctx, postSelect+`
		WHERE p.author_id IN (SELECT author_id FROM follows WHERE user_id = $1)`+postOrder, userID)
	if err != nil {
		return nil, err
	}
	return scanPosts(rows)
}

func (s *Service) GetPost(ctx context.Context, id int64) (Post, error) {
	row := s.db.QueryRow(ctx, postSelect+` WHERE p.id = $1`, id)
	post, err := scanPost(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Post{}, ErrNotFound
		}
		return Post{}, err
	}
	return post, nil
}

func (s *Service) Comments(ctx context.Context, postID int64) ([]Comment, error) {
	rows, err := s.db.Query(ctx, `
		SELECT c.id, c.post_id, c.author_id, u.username, c.text, c.created_at
		FROM comments c
		JOIN users u ON u.id = c.author_id
		WHERE c.post_id = $1
		ORDER BY c.created_at ASC, c.id ASC
	`, postID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var comments []Comment
	for rows.Next() {
		var comment Comment
		if err := rows.Scan(&comment.ID, &comment.PostID, &comment.AuthorID, &comment.AuthorName, &comment.Text, &comment.CreatedAt); err != nil {
			return nil, err
		}
		comments = append(comments, comment)
	}
	return comments, rows.Err()
}

func (s *Service) CreatePost(ctx context.Context, authorID, text string, groupID *int64, image string) (Post, error) {
	post := Post{
		Text:     text,
		AuthorID: authorID,
		GroupID:  groupID,
		Image:    image,
	}
	row := s.db.QueryRow(ctx, `
		INSERT INTO posts (text, author_id, group_id, image)
		VALUES ($1,$2,$3,$4)
		RETURNING id, created_at
	`, text, authorID, groupID, image)
	if err := row.Scan(&post.ID, &post.CreatedAt); err != nil {
		return Post{}, err
	}
	return post, nil
}

// UpdatePost rewrites text, group and image. created_at and author never
// change after creation.
func (s *Service) UpdatePost(ctx context.Context, id int64, text string, groupID *int64, image string) error {
	_, err := s.db.Exec(ctx, `
		UPDATE posts SET text=$2, group_id=$3, image=$4 WHERE id=$1
	`, id, text, groupID, image)
	return err
}

func (s *Service) DeletePost(ctx context.Context, id int64) error {
	_, err := s.db.Exec(ctx, `DELETE FROM posts WHERE id=$1`, id)
	return err
}

func (s *Service) CreateComment(ctx context.Context, postID int64, authorID, text string) (Comment, error) {
	comment := Comment{
		PostID:   postID,
		AuthorID: authorID,
		Text:     text,
	}
	row := s.db.QueryRow(ctx, `
		INSERT INTO comments (post_id, author_id, text)
		VALUES ($1,$2,$3)
		RETURNING id, created_at
	`, postID, authorID, text)
	if err := row.Scan(&comment.ID, &comment.CreatedAt); err != nil {
		return Comment{}, err
	}
	return comment, nil
}

func (s *Service) CreateGroup(ctx context.Context, title, slug, description string) (Group, error) {
	group := Group{Title: title, Slug: slug, Description: description}
	row := s.db.QueryRow(ctx, `
		INSERT INTO groups (title, slug, description)
		VALUES ($1,$2,$3)
		RETURNING id
	`, title, slug, description)
	if err := row.Scan(&group.ID); err != nil {
		return Group{}, err
	}
	return group, nil
}

// DeleteGroup removes the group only; its posts stay and lose the group ref
// through the SET NULL foreign key.
func (s *Service) DeleteGroup(ctx context.Context, slug string) error {
	_, err := s.db.Exec(ctx, `DELETE FROM groups WHERE slug=$1`, slug)
	return err
}

// Follow is idempotent: the unique (user_id, author_id) index plus
// ON CONFLICT DO NOTHING means a repeated follow never duplicates the edge.
// Following yourself is silently skipped.
func (s *Service) Follow(ctx context.Context, userID, authorID string) error {
	if userID == "" || authorID == "" || userID == authorID {
		return nil
	}
	_, err := s.db.Exec(ctx, `
		INSERT INTO follows (user_id, author_id)
		VALUES ($1,$2)
		ON CONFLICT DO NOTHING
	`, userID, authorID)
	return err
}

// Unfollow deletes the edge if present; a missing edge is not an error.
func (s *Service) Unfollow(ctx context.Context, userID, authorID string) error {
	if userID == "" || authorID == "" || userID == authorID {
		return nil
	}
	_, err := s.db.Exec(ctx, `
		DELETE FROM follows WHERE user_id=$1 AND author_id=$2
	`, userID, authorID)
	return err
}

func (s *Service) IsFollowing(ctx context.Context, userID, authorID string) (bool, error) {
	if userID == "" {
		return false, nil
	}
	row := s.db.QueryRow(ctx, `
		SELECT EXISTS(SELECT 1 FROM follows WHERE user_id=$1 AND author_id=$2)
	`, userID, authorID)
	var following bool
	if err := row.Scan(&following); err != nil {
		return false, err
	}
	return following, nil
}

func scanPosts(rows pgx.Rows) ([]Post, error) {
	defer rows.Close()

	var list []Post
	for rows.Next() {
		post, err := scanPost(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, post)
	}
	return list, rows.Err()
}

func scanPost(row pgx.Row) (Post, error) {
	var post Post
	var groupSlug *string
	if err := row.Scan(&post.ID, &post.Text, &post.AuthorID, &post.AuthorName, &post.GroupID, &groupSlug, &post.Image, &post.CreatedAt); err != nil {
		return Post{}, err
	}
	if groupSlug != nil {
		post.GroupSlug = *groupSlug
	}
	return post, nil
}
