package posts

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/pashagolub/pgxmock/v3"
)

var postColumns = []string{"id", "text", "author_id", "username", "group_id", "slug", "image", "created_at"}

func newMock(t *testing.T) pgxmock.PgxPoolIface {
	t.Helper()
	mock, err := pgxmock.NewPool(pgxmock.QueryMatcherOption(pgxmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("mock pool: %v", err)
	}
	t.Cleanup(mock.Close)
	return mock
}

func groupRef(id int64, slug string) (*int64, *string) {
	return &id, &slug
}

func TestAllPostsNewestFirst(t *testing.T) {
	mock := newMock(t)

	now := time.Now()
	gid, gslug := groupRef(1, "tech")
	mock.ExpectQuery(`SELECT p.id, p.text`).
		WillReturnRows(pgxmock.NewRows(postColumns).
			AddRow(int64(3), "third", "user-1", "leo", (*int64)(nil), (*string)(nil), "", now).
			AddRow(int64(2), "second", "user-2", "anna", gid, gslug, "img.png", now.Add(-time.Hour)).
			AddRow(int64(1), "first", "user-1", "leo", (*int64)(nil), (*string)(nil), "", now.Add(-2*time.Hour)))

	svc := NewService(mock)
	list, err := svc.AllPosts(context.Background())
	if err != nil {
		t.Fatalf("all posts: %v", err)
	}
	if len(list) != 3 || list[0].ID != 3 || list[2].ID != 1 {
		t.Fatalf("unexpected order: %+v", list)
	}
	if list[1].GroupSlug != "tech" || list[1].GroupID == nil {
		t.Fatalf("expected group ref on second post")
	}
	if list[0].AuthorName != "leo" {
		t.Fatalf("expected joined author name")
	}
}

func TestPostsByGroupUnknownSlug(t *testing.T) {
	mock := newMock(t)

	mock.ExpectQuery(`SELECT id, title, slug, description FROM groups`).
		WithArgs("missing").
		WillReturnRows(pgxmock.NewRows([]string{"id", "title", "slug", "description"}))

	svc := NewService(mock)
	if _, _, err := svc.PostsByGroup(context.Background(), "missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestPostsByGroup(t *testing.T) {
	mock := newMock(t)

	mock.ExpectQuery(`SELECT id, title, slug, description FROM groups`).
		WithArgs("tech").
		WillReturnRows(pgxmock.NewRows([]string{"id", "title", "slug", "description"}).
			AddRow(int64(1), "Tech", "tech", "tech talk"))

	gid, gslug := groupRef(1, "tech")
	mock.ExpectQuery(`SELECT p.id, p.text`).
		WithArgs(int64(1)).
		WillReturnRows(pgxmock.NewRows(postColumns).
			AddRow(int64(5), "in group", "user-1", "leo", gid, gslug, "", time.Now()))

	svc := NewService(mock)
	group, list, err := svc.PostsByGroup(context.Background(), "tech")
	if err != nil {
		t.Fatalf("posts by group: %v", err)
	}
	if group.Title != "Tech" || len(list) != 1 || list[0].GroupSlug != "tech" {
		t.Fatalf("unexpected result: %+v %+v", group, list)
	}
}

func TestPostsByAuthorUnknownUsername(t *testing.T) {
	mock := newMock(t)

	mock.ExpectQuery(`SELECT id, username FROM users`).
		WithArgs("ghost").
		WillReturnRows(pgxmock.NewRows([]string{"id", "username"}))

	svc := NewService(mock)
	if _, _, err := svc.PostsByAuthor(context.Background(), "ghost"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestPostsByAuthor(t *testing.T) {
	mock := newMock(t)

	mock.ExpectQuery(`SELECT id, username FROM users`).
		WithArgs("leo").
		WillReturnRows(pgxmock.NewRows([]string{"id", "username"}).AddRow("user-1", "leo"))

	mock.ExpectQuery(`SELECT p.id, p.text`).
		WithArgs("user-1").
		WillReturnRows(pgxmock.NewRows(postColumns).
			AddRow(int64(2), "mine", "user-1", "leo", (*int64)(nil), (*string)(nil), "", time.Now()))

	svc := NewService(mock)
	author, list, err := svc.PostsByAuthor(context.Background(), "leo")
	if err != nil {
		t.Fatalf("posts by author: %v", err)
	}
	if author.ID != "user-1" || len(list) != 1 {
		t.Fatalf("unexpected result: %+v %+v", author, list)
	}
}

func TestPostsFromFollowed(t *testing.T) {
	mock := newMock(t)

	mock.ExpectQuery(`SELECT author_id FROM follows`).
		WithArgs("user-1").
		WillReturnRows(pgxmock.NewRows(postColumns).
			AddRow(int64(9), "followed author post", "user-2", "anna", (*int64)(nil), (*string)(nil), "", time.Now()))

	svc := NewService(mock)
	list, err := svc.PostsFromFollowed(context.Background(), "user-1")
	if err != nil {
		t.Fatalf("from followed: %v", err)
	}
	if len(list) != 1 || list[0].AuthorName != "anna" {
		t.Fatalf("unexpected feed: %+v", list)
	}
}

func TestPostsFromFollowedEmpty(t *testing.T) {
	mock := newMock(t)

	mock.ExpectQuery(`SELECT author_id FROM follows`).
		WithArgs("user-1").
		WillReturnRows(pgxmock.NewRows(postColumns))

	svc := NewService(mock)
	list, err := svc.PostsFromFollowed(context.Background(), "user-1")
	if err != nil {
		t.Fatalf("from followed: %v", err)
	}
	if len(list) != 0 {
		t.Fatalf("expected empty feed")
	}
}

func TestFollowInsertsIdempotently(t *testing.T) {
	mock := newMock(t)

	// Second insert hits the unique index and affects nothing.
	mock.ExpectExec(`(?s)INSERT INTO follows.*ON CONFLICT DO NOTHING`).
		WithArgs("user-1", "user-2").
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectExec(`(?s)INSERT INTO follows.*ON CONFLICT DO NOTHING`).
		WithArgs("user-1", "user-2").
		WillReturnResult(pgxmock.NewResult("INSERT", 0))

	svc := NewService(mock)
	if err := svc.Follow(context.Background(), "user-1", "user-2"); err != nil {
		t.Fatalf("follow: %v", err)
	}
	if err := svc.Follow(context.Background(), "user-1", "user-2"); err != nil {
		t.Fatalf("repeat follow: %v", err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestFollowSelfIsNoop(t *testing.T) {
	mock := newMock(t)

	svc := NewService(mock)
	if err := svc.Follow(context.Background(), "user-1", "user-1"); err != nil {
		t.Fatalf("self follow: %v", err)
	}

	// No SQL may run for a self-follow.
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unexpected statements: %v", err)
	}
}

func TestUnfollowMissingEdgeIsNoop(t *testing.T) {
	mock := newMock(t)

	mock.ExpectExec(`DELETE FROM follows`).
		WithArgs("user-1", "user-2").
		WillReturnResult(pgxmock.NewResult("DELETE", 0))

	svc := NewService(mock)
	if err := svc.Unfollow(context.Background(), "user-1", "user-2"); err != nil {
		t.Fatalf("unfollow: %v", err)
	}
}

func TestUnfollowSelfIsNoop(t *testing.T) {
	mock := newMock(t)

	svc := NewService(mock)
	if err := svc.Unfollow(context.Background(), "user-1", "user-1"); err != nil {
		t.Fatalf("self unfollow: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unexpected statements: %v", err)
	}
}

func TestIsFollowing(t *testing.T) {
	mock := newMock(t)

	mock.ExpectQuery(`SELECT EXISTS`).
		WithArgs("user-1", "user-2").
		WillReturnRows(pgxmock.NewRows([]string{"exists"}).AddRow(true))

	svc := NewService(mock)
	following, err := svc.IsFollowing(context.Background(), "user-1", "user-2")
	if err != nil || !following {
		t.Fatalf("expected following=true, err=%v", err)
	}
}

func TestIsFollowingAnonymous(t *testing.T) {
	svc := NewService(nil)
	following, err := svc.IsFollowing(context.Background(), "", "user-2")
	if err != nil || following {
		t.Fatalf("expected false for anonymous caller")
	}
}

func TestGetPostNotFound(t *testing.T) {
	mock := newMock(t)

	mock.ExpectQuery(`SELECT p.id, p.text`).
		WithArgs(int64(42)).
		WillReturnRows(pgxmock.NewRows(postColumns))

	svc := NewService(mock)
	if _, err := svc.GetPost(context.Background(), 42); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestCreatePost(t *testing.T) {
	mock := newMock(t)

	mock.ExpectQuery(`INSERT INTO posts`).
		WithArgs("hello", "user-1", (*int64)(nil), "").
		WillReturnRows(pgxmock.NewRows([]string{"id", "created_at"}).AddRow(int64(7), time.Now()))

	svc := NewService(mock)
	post, err := svc.CreatePost(context.Background(), "user-1", "hello", nil, "")
	if err != nil {
		t.Fatalf("create post: %v", err)
	}
	if post.ID != 7 || post.CreatedAt.IsZero() {
		t.Fatalf("unexpected post: %+v", post)
	}
}

func TestUpdatePost(t *testing.T) {
	mock := newMock(t)

	gid := int64(3)
	mock.ExpectExec(`UPDATE posts SET`).
		WithArgs(int64(7), "edited", &gid, "new.png").
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))

	svc := NewService(mock)
	if err := svc.UpdatePost(context.Background(), 7, "edited", &gid, "new.png"); err != nil {
		t.Fatalf("update post: %v", err)
	}
}

func TestCreateComment(t *testing.T) {
	mock := newMock(t)

	mock.ExpectQuery(`INSERT INTO comments`).
		WithArgs(int64(7), "user-2", "nice one").
		WillReturnRows(pgxmock.NewRows([]string{"id", "created_at"}).AddRow(int64(11), time.Now()))

	svc := NewService(mock)
	comment, err := svc.CreateComment(context.Background(), 7, "user-2", "nice one")
	if err != nil {
		t.Fatalf("create comment: %v", err)
	}
	if comment.ID != 11 || comment.PostID != 7 {
		t.Fatalf("unexpected comment: %+v", comment)
	}
}

func TestComments(t *testing.T) {
	mock := newMock(t)

	now := time.Now()
	mock.ExpectQuery(`SELECT c.id, c.post_id`).
		WithArgs(int64(7)).
		WillReturnRows(pgxmock.NewRows([]string{"id", "post_id", "author_id", "username", "text", "created_at"}).
			AddRow(int64(1), int64(7), "user-2", "anna", "first", now).
			AddRow(int64(2), int64(7), "user-1", "leo", "second", now))

	svc := NewService(mock)
	comments, err := svc.Comments(context.Background(), 7)
	if err != nil {
		t.Fatalf("comments: %v", err)
	}
	if len(comments) != 2 || comments[0].AuthorName != "anna" {
		t.Fatalf("unexpected comments: %+v", comments)
	}
}

func TestDeletePost(t *testing.T) {
	mock := newMock(t)

	// Comment rows go with the post through the cascade FK.
	mock.ExpectExec(`DELETE FROM posts`).
		WithArgs(int64(7)).
		WillReturnResult(pgxmock.NewResult("DELETE", 1))

	svc := NewService(mock)
	if err := svc.DeletePost(context.Background(), 7); err != nil {
		t.Fatalf("delete post: %v", err)
	}
}

func TestCreateAndDeleteGroup(t *testing.T) {
	mock := newMock(t)

	mock.ExpectQuery(`INSERT INTO groups`).
		WithArgs("Tech", "tech", "tech talk").
		WillReturnRows(pgxmock.NewRows([]string{"id"}).AddRow(int64(1)))

	// Posts survive the group: the SET NULL FK clears their group ref.
	mock.ExpectExec(`DELETE FROM groups`).
		WithArgs("tech").
		WillReturnResult(pgxmock.NewResult("DELETE", 1))

	svc := NewService(mock)
	group, err := svc.CreateGroup(context.Background(), "Tech", "tech", "tech talk")
	if err != nil || group.ID != 1 {
		t.Fatalf("create group: %v %+v", err, group)
	}
	if err := svc.DeleteGroup(context.Background(), "tech"); err != nil {
		t.Fatalf("delete group: %v", err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}
