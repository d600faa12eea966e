package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/dynasty-blog/dynasty/internal/auth"
	"github.com/dynasty-blog/dynasty/internal/domain"
	"github.com/dynasty-blog/dynasty/internal/mail"
	"github.com/dynasty-blog/dynasty/internal/render"
	"github.com/dynasty-blog/dynasty/internal/repository/sqlite"
	"github.com/dynasty-blog/dynasty/internal/search"
	"github.com/dynasty-blog/dynasty/internal/validator"
	"github.com/dynasty-blog/dynasty/pkg/logger"
	"github.com/dynasty-blog/dynasty/pkg/pagination"
)

type fakeMailer struct {
	mu   sync.Mutex
	sent []*mail.Message
	err  error
}

func (m *fakeMailer) Send(_ context.Context, msg *mail.Message) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return fmt.Errorf("%w: %v", domain.ErrEmailDelivery, m.err)
	}
	m.sent = append(m.sent, msg)
	return nil
}

type fakeStore struct {
	saved   map[string]string
	removed []string
	n       int
}

func (s *fakeStore) Save(_ context.Context, kind domain.AttachmentKind, filename, _ string, r io.Reader, _ int64) (string, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return "", err
	}
	s.n++
	ref := fmt.Sprintf("%s/%d%s", kind.Dir(), s.n, filepath.Ext(filename))
	s.saved[ref] = string(data)
	return ref, nil
}

func (s *fakeStore) Remove(_ context.Context, ref string) error {
	s.removed = append(s.removed, ref)
	return nil
}

func (s *fakeStore) URL(ref string) string { return "/media/" + ref }
func (s *fakeStore) Name() string          { return "fake" }

type fakeRanked struct {
	hits []search.Hit
	err  error
}

func (f *fakeRanked) Search(context.Context, string) ([]search.Hit, error) {
	return f.hits, f.err
}

type env struct {
	posts    *PostService
	comments *CommentService
	share    *ShareService
	feed     *FeedService
	users    *UserService
	postRepo *sqlite.PostRepo
	userRepo *sqlite.UserRepo
	mailer   *fakeMailer
	store    *fakeStore
	opts     BlogOptions
	author   *domain.Actor
	other    *domain.Actor
	base     time.Time
	seq      int
}

func newEnv(t *testing.T, policy pagination.Policy) *env {
	t.Helper()

	db, err := sqlite.New(filepath.Join(t.TempDir(), "blog.db"), 1, 1)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	log := logger.NewNop()
	v := validator.New()
	postRepo := sqlite.NewPostRepo(db, time.UTC)
	commentRepo := sqlite.NewCommentRepo(db)
	userRepo := sqlite.NewUserRepo(db)
	renderer := render.New(nil, log)

	e := &env{
		postRepo: postRepo,
		userRepo: userRepo,
		mailer:   &fakeMailer{},
		store:    &fakeStore{saved: map[string]string{}},
		opts: BlogOptions{
			PageSize:     3,
			PagePolicy:   policy,
			SimilarLimit: 4,
			LatestCount:  5,
			Location:     time.UTC,
		},
		base: time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC),
	}

	jwt := auth.NewJWTManager("0123456789abcdef0123456789abcdef", time.Hour, 24*time.Hour)
	e.users = NewUserService(userRepo, jwt, v, bcrypt.MinCost, log)
	e.posts = NewPostService(postRepo, postRepo, commentRepo, nil, nil, renderer, e.store, v, e.opts, log)
	e.comments = NewCommentService(commentRepo, postRepo, v, log)
	e.share = NewShareService(postRepo, e.mailer, "webmaster@localhost", v, e.opts, log)
	e.feed = NewFeedService(postRepo, renderer, FeedOptions{Title: "Blog", Items: 5, ExcerptWords: 30}, log)

	e.author = e.createAuthor(t, "mike_thomas", false)
	e.other = e.createAuthor(t, "jane", false)
	return e
}

func (e *env) createAuthor(t *testing.T, username string, staff bool) *domain.Actor {
	t.Helper()
	u, err := e.users.CreateAuthor(context.Background(), &domain.UserCreateRequest{
		Username: username,
		Password: "correct horse",
		IsStaff:  staff,
	})
	require.NoError(t, err)
	return &domain.Actor{UserID: u.ID, Username: u.Username, IsStaff: staff}
}

// publish creates a post with a publish time seq minutes after base
func (e *env) publish(t *testing.T, title string, status domain.PostStatus, tags ...string) *domain.Post {
	t.Helper()
	e.seq++
	published := e.base.Add(time.Duration(e.seq) * time.Minute)
	post, err := e.posts.Create(context.Background(), &domain.PostCreateRequest{
		Title:     title,
		Body:      "Body of " + title,
		Status:    status,
		Published: &published,
		Tags:      tags,
	}, e.author)
	require.NoError(t, err)
	return post
}

func postIDs(posts []*domain.Post) []int64 {
	out := make([]int64, 0, len(posts))
	for _, p := range posts {
		out = append(out, p.ID)
	}
	return out
}

func TestPostService_ListPagination(t *testing.T) {
	e := newEnv(t, pagination.Clamp)
	ctx := context.Background()

	var created []*domain.Post
	for i := 0; i < 7; i++ {
		created = append(created, e.publish(t, fmt.Sprintf("Post %d", i), domain.StatusPublished))
	}
	e.publish(t, "Hidden draft", domain.StatusDraft)

	page, err := e.posts.List(ctx, 3, "")
	require.NoError(t, err)
	assert.Equal(t, []int64{created[0].ID}, postIDs(page.Posts))
	assert.Equal(t, pagination.Page{Number: 3, Size: 3, Total: 7, TotalPages: 3}, page.Page)

	clamped, err := e.posts.List(ctx, 99, "")
	require.NoError(t, err)
	assert.Equal(t, 3, clamped.Page.Number)
	assert.Equal(t, postIDs(page.Posts), postIDs(clamped.Posts))

	first, err := e.posts.List(ctx, 0, "")
	require.NoError(t, err)
	assert.Equal(t, 1, first.Page.Number)
	assert.Equal(t, []int64{created[6].ID, created[5].ID, created[4].ID}, postIDs(first.Posts))
}

func TestPostService_PagesConcatenateToPublishedSet(t *testing.T) {
	e := newEnv(t, pagination.Clamp)
	ctx := context.Background()

	same := e.base.Add(time.Hour)
	for i := 0; i < 8; i++ {
		status := domain.StatusPublished
		if i%4 == 3 {
			status = domain.StatusDraft
		}
		published := same
		if i >= 5 {
			published = e.base.Add(time.Duration(i) * time.Minute)
		}
		_, err := e.posts.Create(ctx, &domain.PostCreateRequest{
			Title:     fmt.Sprintf("Same time %d", i),
			Body:      "body",
			Status:    status,
			Published: &published,
		}, e.author)
		require.NoError(t, err)
	}

	all, total, err := e.postRepo.List(ctx, &domain.PostListFilter{})
	require.NoError(t, err)
	require.Equal(t, 6, total)

	first, err := e.posts.List(ctx, 1, "")
	require.NoError(t, err)

	var walked []int64
	for n := 1; n <= first.Page.TotalPages; n++ {
		page, err := e.posts.List(ctx, n, "")
		require.NoError(t, err)
		require.Equal(t, n, page.Page.Number)
		walked = append(walked, postIDs(page.Posts)...)
	}

	assert.Equal(t, postIDs(all), walked)
	seen := map[int64]bool{}
	for _, id := range walked {
		assert.False(t, seen[id], "post %d appears twice", id)
		seen[id] = true
	}
}

func TestPostService_ListStrictPolicy(t *testing.T) {
	e := newEnv(t, pagination.Strict)
	ctx := context.Background()

	page, err := e.posts.List(ctx, 1, "")
	require.NoError(t, err)
	assert.Empty(t, page.Posts)
	assert.Equal(t, 1, page.Page.TotalPages)

	e.publish(t, "only", domain.StatusPublished)
	_, err = e.posts.List(ctx, 2, "")
	assert.ErrorIs(t, err, domain.ErrPageOutOfRange)
}

func TestPostService_ListByTag(t *testing.T) {
	e := newEnv(t, pagination.Clamp)
	ctx := context.Background()

	tagged := e.publish(t, "Tagged", domain.StatusPublished, "Django")
	e.publish(t, "Untagged", domain.StatusPublished)

	page, err := e.posts.List(ctx, 1, "django")
	require.NoError(t, err)
	require.NotNil(t, page.Tag)
	assert.Equal(t, "Django", page.Tag.Name)
	assert.Equal(t, []int64{tagged.ID}, postIDs(page.Posts))

	_, err = e.posts.List(ctx, 1, "unknown")
	assert.ErrorIs(t, err, domain.ErrTagNotFound)
}

func TestPostService_SimilarExcludesDrafts(t *testing.T) {
	e := newEnv(t, pagination.Clamp)
	ctx := context.Background()

	a := e.publish(t, "A", domain.StatusPublished, "python", "django")
	b := e.publish(t, "B", domain.StatusPublished, "python")
	e.publish(t, "C", domain.StatusDraft, "python", "django")

	similar, err := e.posts.Similar(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, []int64{b.ID}, postIDs(similar))

	draft := e.publish(t, "D", domain.StatusDraft, "python")
	_, err = e.posts.Similar(ctx, draft.ID)
	assert.ErrorIs(t, err, domain.ErrPostNotFound)
}

func TestPostService_Detail(t *testing.T) {
	e := newEnv(t, pagination.Clamp)
	ctx := context.Background()

	post := e.publish(t, "Hello World", domain.StatusPublished, "go")
	other := e.publish(t, "Other", domain.StatusPublished, "go")

	c, err := e.comments.Create(ctx, post.ID, &domain.CommentCreateRequest{Name: "Ann", Email: "ann@example.com", Body: "Nice"})
	require.NoError(t, err)
	hidden, err := e.comments.Create(ctx, post.ID, &domain.CommentCreateRequest{Name: "Bob", Email: "bob@example.com", Body: "Spam"})
	require.NoError(t, err)
	active := false
	_, err = e.comments.SetActive(ctx, hidden.ID, &domain.CommentModerationRequest{Active: &active}, e.author)
	require.NoError(t, err)

	detail, err := e.posts.Detail(ctx, 2024, 3, 10, "hello-world")
	require.NoError(t, err)
	assert.Equal(t, post.ID, detail.Post.ID)
	assert.Equal(t, "/blog/2024/3/10/hello-world", detail.URL)
	assert.Contains(t, detail.BodyHTML, "<p>Body of Hello World</p>")
	require.Len(t, detail.Comments, 1)
	assert.Equal(t, c.ID, detail.Comments[0].ID)
	assert.Equal(t, []int64{other.ID}, postIDs(detail.Similar))

	_, err = e.posts.Detail(ctx, 2024, 3, 11, "hello-world")
	assert.ErrorIs(t, err, domain.ErrPostNotFound)
	_, err = e.posts.Detail(ctx, 2024, 2, 30, "hello-world")
	assert.ErrorIs(t, err, domain.ErrPostNotFound)

	e.publish(t, "Secret", domain.StatusDraft)
	_, err = e.posts.Detail(ctx, 2024, 3, 10, "secret")
	assert.ErrorIs(t, err, domain.ErrPostNotFound)
}

func TestPostService_CreateSlugsAndTags(t *testing.T) {
	e := newEnv(t, pagination.Clamp)
	ctx := context.Background()

	post := e.publish(t, "Hello, World!", domain.StatusPublished, "Go", "go", " ", "Web Dev")
	assert.Equal(t, "hello-world", post.Slug)
	assert.ElementsMatch(t, []string{"Go", "Web Dev"}, post.TagNames())
	assert.Equal(t, domain.StatusPublished, post.Status)
	assert.Equal(t, "mike_thomas", post.Author.Username)

	// same slug on the same day conflicts
	published := post.Published
	_, err := e.posts.Create(ctx, &domain.PostCreateRequest{
		Title: "Hello world", Body: "x", Published: &published,
	}, e.author)
	require.ErrorIs(t, err, domain.ErrSlugConflict)
	verr, ok := domain.IsValidation(err)
	require.True(t, ok)
	assert.Contains(t, verr.Fields, "slug")

	_, err = e.posts.Create(ctx, &domain.PostCreateRequest{Title: "x", Slug: "Not A Slug", Body: "x"}, e.author)
	assert.ErrorIs(t, err, domain.ErrValidationFailed)

	_, err = e.posts.Create(ctx, &domain.PostCreateRequest{Title: "", Body: "x"}, e.author)
	verr, ok = domain.IsValidation(err)
	require.True(t, ok)
	assert.Contains(t, verr.Fields, "title")

	draft, err := e.posts.Create(ctx, &domain.PostCreateRequest{Title: "Defaults", Body: "x"}, e.author)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusDraft, draft.Status)
}

func TestPostService_UpdateOwnership(t *testing.T) {
	e := newEnv(t, pagination.Clamp)
	ctx := context.Background()

	post := e.publish(t, "Mine", domain.StatusPublished, "a")
	title := "Renamed"

	_, err := e.posts.Update(ctx, post.ID, &domain.PostUpdateRequest{Title: &title}, e.other)
	assert.ErrorIs(t, err, domain.ErrForbidden)

	staff := e.createAuthor(t, "editor", true)
	updated, err := e.posts.Update(ctx, post.ID, &domain.PostUpdateRequest{Title: &title, Tags: []string{"b"}}, staff)
	require.NoError(t, err)
	assert.Equal(t, "Renamed", updated.Title)
	assert.Equal(t, "mine", updated.Slug, "slug is kept unless set")
	assert.Equal(t, []string{"b"}, updated.TagNames())

	draft := domain.StatusDraft
	_, err = e.posts.Update(ctx, post.ID, &domain.PostUpdateRequest{Status: &draft}, e.author)
	require.NoError(t, err)
	_, err = e.comments.Create(ctx, post.ID, &domain.CommentCreateRequest{Name: "a", Email: "a@example.com", Body: "b"})
	assert.ErrorIs(t, err, domain.ErrPostNotFound)

	page, err := e.posts.ListForAuthor(ctx, e.author, 1)
	require.NoError(t, err)
	assert.Equal(t, []int64{post.ID}, postIDs(page.Posts))

	page, err = e.posts.ListForAuthor(ctx, e.other, 1)
	require.NoError(t, err)
	assert.Empty(t, page.Posts)
}

func TestPostService_Media(t *testing.T) {
	e := newEnv(t, pagination.Clamp)
	ctx := context.Background()

	post := e.publish(t, "With media", domain.StatusPublished)

	_, err := e.posts.AttachMedia(ctx, post.ID, domain.AttachmentImage, "song.mp3", "audio/mpeg",
		strings.NewReader("x"), 1, e.author)
	assert.ErrorIs(t, err, domain.ErrAttachmentType)

	_, err = e.posts.AttachMedia(ctx, post.ID, domain.AttachmentImage, "big.png", "image/png",
		strings.NewReader("x"), 51*1024*1024, e.author)
	assert.ErrorIs(t, err, domain.ErrAttachmentTooLarge)

	_, err = e.posts.AttachMedia(ctx, post.ID, domain.AttachmentImage, "pic.png", "image/png",
		strings.NewReader("png"), 3, e.other)
	assert.ErrorIs(t, err, domain.ErrForbidden)

	updated, err := e.posts.AttachMedia(ctx, post.ID, domain.AttachmentImage, "pic.png", "image/png",
		strings.NewReader("png"), 3, e.author)
	require.NoError(t, err)
	assert.Equal(t, "/media/blog_images/1.png", updated.Media[domain.AttachmentImage])

	replaced, err := e.posts.AttachMedia(ctx, post.ID, domain.AttachmentImage, "pic2.gif", "image/gif",
		strings.NewReader("gif"), 3, e.author)
	require.NoError(t, err)
	assert.Equal(t, "/media/blog_images/2.gif", replaced.Media[domain.AttachmentImage])
	assert.Equal(t, []string{"blog_images/1.png"}, e.store.removed)

	cleared, err := e.posts.RemoveMedia(ctx, post.ID, domain.AttachmentImage, e.author)
	require.NoError(t, err)
	assert.Empty(t, cleared.Media)
}

func TestPostService_DeleteRemovesComments(t *testing.T) {
	e := newEnv(t, pagination.Clamp)
	ctx := context.Background()

	post := e.publish(t, "Doomed", domain.StatusPublished)
	_, err := e.comments.Create(ctx, post.ID, &domain.CommentCreateRequest{Name: "a", Email: "a@example.com", Body: "b"})
	require.NoError(t, err)

	assert.ErrorIs(t, e.posts.Delete(ctx, post.ID, e.other), domain.ErrForbidden)
	require.NoError(t, e.posts.Delete(ctx, post.ID, e.author))

	_, err = e.comments.ListActive(ctx, post.ID)
	assert.ErrorIs(t, err, domain.ErrPostNotFound)
}

func TestPostService_Latest(t *testing.T) {
	e := newEnv(t, pagination.Clamp)
	ctx := context.Background()

	for i := 0; i < 7; i++ {
		e.publish(t, fmt.Sprintf("P%d", i), domain.StatusPublished)
	}

	posts, total, err := e.posts.Latest(ctx, 0)
	require.NoError(t, err)
	assert.Len(t, posts, 5)
	assert.Equal(t, 7, total)

	posts, _, err = e.posts.Latest(ctx, 2)
	require.NoError(t, err)
	assert.Equal(t, "P6", posts[0].Title)
	assert.Len(t, posts, 2)
}

func TestCommentService_DraftIsNotFoundBeforeValidation(t *testing.T) {
	e := newEnv(t, pagination.Clamp)
	ctx := context.Background()

	draft := e.publish(t, "Draft", domain.StatusDraft)
	_, err := e.comments.Create(ctx, draft.ID, &domain.CommentCreateRequest{})
	assert.ErrorIs(t, err, domain.ErrPostNotFound)

	pub := e.publish(t, "Pub", domain.StatusPublished)
	_, err = e.comments.Create(ctx, pub.ID, &domain.CommentCreateRequest{Name: "n", Email: "not-an-email", Body: "b"})
	verr, ok := domain.IsValidation(err)
	require.True(t, ok)
	assert.Contains(t, verr.Fields, "email")

	c, err := e.comments.Create(ctx, pub.ID, &domain.CommentCreateRequest{Name: " n ", Email: "n@example.com", Body: "b"})
	require.NoError(t, err)
	assert.True(t, c.Active)
	assert.Equal(t, "n", c.Name)

	active := false
	_, err = e.comments.SetActive(ctx, c.ID, &domain.CommentModerationRequest{Active: &active}, e.other)
	assert.ErrorIs(t, err, domain.ErrForbidden)
}

func TestShareService(t *testing.T) {
	e := newEnv(t, pagination.Clamp)
	ctx := context.Background()

	post := e.publish(t, "Shared", domain.StatusPublished)
	req := &domain.ShareRequest{Name: "Ann", Email: "ann@example.com", To: "bob@example.com", Comments: "Read it"}

	result, err := e.share.Share(ctx, post.ID, req, "https://blog.example.com/")
	require.NoError(t, err)
	assert.True(t, result.Sent)
	assert.Equal(t, "https://blog.example.com/blog/2024/3/10/shared", result.URL)

	require.Len(t, e.mailer.sent, 1)
	msg := e.mailer.sent[0]
	assert.Equal(t, "Ann (ann@example.com) recommends you read Shared", msg.Subject)
	assert.Equal(t, "Read “Shared” at https://blog.example.com/blog/2024/3/10/shared\n\nAnn's comments:\nRead it", msg.Body)
	assert.Equal(t, []string{"bob@example.com"}, msg.To)
	assert.Equal(t, "ann@example.com", msg.ReplyTo)

	e.mailer.err = errors.New("connection refused")
	result, err = e.share.Share(ctx, post.ID, req, "https://blog.example.com")
	assert.ErrorIs(t, err, domain.ErrEmailDelivery)
	require.NotNil(t, result)
	assert.False(t, result.Sent)
	assert.Equal(t, post.ID, result.Post.ID)
	assert.True(t, strings.HasPrefix(result.Error, "Could not send email: "))

	draft := e.publish(t, "Draft", domain.StatusDraft)
	_, err = e.share.Share(ctx, draft.ID, req, "https://blog.example.com")
	assert.ErrorIs(t, err, domain.ErrPostNotFound)

	_, err = e.share.Share(ctx, post.ID, &domain.ShareRequest{Name: strings.Repeat("x", 26), Email: "a@example.com", To: "b@example.com"}, "")
	verr, ok := domain.IsValidation(err)
	require.True(t, ok)
	assert.Contains(t, verr.Fields, "name")
}

func TestSearchService_Strategies(t *testing.T) {
	e := newEnv(t, pagination.Clamp)
	ctx := context.Background()

	older := e.publish(t, "Learning Django", domain.StatusPublished)
	newer := e.publish(t, "More django", domain.StatusPublished)
	draft := e.publish(t, "Django draft", domain.StatusDraft)

	fallback := NewSearchService(nil, e.postRepo, e.store, 0.3, logger.NewNop())
	res, err := fallback.Search(ctx, "DJANGO")
	require.NoError(t, err)
	assert.Equal(t, StrategySubstring, res.Strategy)
	require.Len(t, res.Results, 2)
	assert.Equal(t, newer.ID, res.Results[0].ID)
	assert.Equal(t, older.ID, res.Results[1].ID)

	ranked := &fakeRanked{hits: []search.Hit{
		{PostID: draft.ID, Score: 1},
		{PostID: older.ID, Score: 0.5},
		{PostID: newer.ID, Score: 0.5},
	}}
	svc := NewSearchService(ranked, e.postRepo, e.store, 0.3, logger.NewNop())
	res, err = svc.Search(ctx, "django")
	require.NoError(t, err)
	assert.Equal(t, StrategyRanked, res.Strategy)
	require.Len(t, res.Results, 2, "drafts never leak from a stale index")
	assert.Equal(t, newer.ID, res.Results[0].ID, "equal scores fall back to recency")

	ranked.err = errors.New("index closed")
	res, err = svc.Search(ctx, "django")
	require.NoError(t, err)
	assert.Equal(t, StrategySubstring, res.Strategy)

	res, err = svc.Search(ctx, "   ")
	require.NoError(t, err)
	assert.Empty(t, res.Results)
}

func TestSearchService_FallbackReturnsEveryMatch(t *testing.T) {
	e := newEnv(t, pagination.Clamp)
	ctx := context.Background()

	for i := 0; i < 51; i++ {
		e.publish(t, fmt.Sprintf("Django %d", i), domain.StatusPublished)
	}

	svc := NewSearchService(nil, e.postRepo, e.store, 0.3, logger.NewNop())
	res, err := svc.Search(ctx, "django")
	require.NoError(t, err)
	assert.Equal(t, StrategySubstring, res.Strategy)
	assert.Len(t, res.Results, 51)
}

func TestSearchService_StaleDocumentsDoNotHideResults(t *testing.T) {
	e := newEnv(t, pagination.Clamp)
	ctx := context.Background()

	idx := search.NewBleveIndex(search.Options{TitleBoost: 2, MaxResults: 50}, logger.NewNop())
	require.NoError(t, idx.OpenInMemory())
	t.Cleanup(func() { idx.Close() })

	strong := e.publish(t, "Django Django", domain.StatusPublished)
	weak := e.publish(t, "Weekend notes", domain.StatusPublished)
	body := strings.Repeat("gardens travel cooking and long walks ", 20) + "with one mention of django"
	weak, err := e.posts.Update(ctx, weak.ID, &domain.PostUpdateRequest{Body: &body}, e.author)
	require.NoError(t, err)

	require.NoError(t, idx.IndexPost(ctx, strong))
	require.NoError(t, idx.IndexPost(ctx, weak))

	// unpublished without reaching the index
	draft := domain.StatusDraft
	_, err = e.posts.Update(ctx, strong.ID, &domain.PostUpdateRequest{Status: &draft}, e.author)
	require.NoError(t, err)

	svc := NewSearchService(idx, e.postRepo, e.store, 0.3, logger.NewNop())
	res, err := svc.Search(ctx, "django")
	require.NoError(t, err)
	assert.Equal(t, StrategyRanked, res.Strategy)
	require.Len(t, res.Results, 1)
	assert.Equal(t, weak.ID, res.Results[0].ID)
	assert.InDelta(t, 1.0, res.Results[0].Score, 1e-9)

	n, err := svc.Reindex(ctx, idx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	indexed, err := idx.PostIDs(ctx)
	require.NoError(t, err)
	assert.Equal(t, []int64{weak.ID}, indexed)

	// republished, and weak deleted while the index was unreachable
	published := domain.StatusPublished
	_, err = e.posts.Update(ctx, strong.ID, &domain.PostUpdateRequest{Status: &published}, e.author)
	require.NoError(t, err)
	require.NoError(t, e.postRepo.Delete(ctx, weak.ID))

	n, err = svc.Reindex(ctx, idx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	indexed, err = idx.PostIDs(ctx)
	require.NoError(t, err)
	assert.Equal(t, []int64{strong.ID}, indexed)
}

func TestFeedService(t *testing.T) {
	e := newEnv(t, pagination.Clamp)
	ctx := context.Background()

	for i := 0; i < 6; i++ {
		e.publish(t, fmt.Sprintf("Post %d", i), domain.StatusPublished)
	}
	e.publish(t, "Unpublished", domain.StatusDraft)

	feed, err := e.feed.Build(ctx, "https://blog.example.com")
	require.NoError(t, err)
	require.Len(t, feed.Items, 5)
	assert.Equal(t, "Post 5", feed.Items[0].Title)
	assert.Equal(t, "https://blog.example.com/blog/2024/3/10/post-5", feed.Items[0].Link.Href)
	for _, item := range feed.Items {
		assert.NotEqual(t, "Unpublished", item.Title)
	}

	rss, err := e.feed.RSS(ctx, "https://blog.example.com")
	require.NoError(t, err)
	assert.Contains(t, rss, "<rss")
	assert.Equal(t, 5, strings.Count(rss, "<item>"))
}

func TestUserService_LoginAndRefresh(t *testing.T) {
	e := newEnv(t, pagination.Clamp)
	ctx := context.Background()

	_, err := e.users.CreateAuthor(ctx, &domain.UserCreateRequest{Username: "mike_thomas", Password: "whatever1"})
	assert.ErrorIs(t, err, domain.ErrUserAlreadyExists)

	_, err = e.users.Login(ctx, &domain.UserLoginRequest{Username: "mike_thomas", Password: "wrong"})
	assert.ErrorIs(t, err, domain.ErrInvalidCredentials)

	_, err = e.users.Login(ctx, &domain.UserLoginRequest{Username: "nobody", Password: "wrong"})
	assert.ErrorIs(t, err, domain.ErrInvalidCredentials)

	login, err := e.users.Login(ctx, &domain.UserLoginRequest{Username: "mike_thomas", Password: "correct horse"})
	require.NoError(t, err)
	assert.Equal(t, "Mike Thomas", login.User.DisplayName)

	tokens, err := e.users.RefreshToken(ctx, login.Tokens.RefreshToken)
	require.NoError(t, err)
	assert.NotEmpty(t, tokens.AccessToken)

	_, err = e.users.RefreshToken(ctx, login.Tokens.AccessToken)
	assert.ErrorIs(t, err, domain.ErrInvalidToken)
}
