package service_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/linemk/bookstore/internal/domain/apperr"
	"github.com/linemk/bookstore/internal/domain/badge"
	"github.com/linemk/bookstore/internal/domain/models"
	"github.com/linemk/bookstore/internal/service"
	"github.com/linemk/bookstore/internal/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeReviewRepo struct {
	reviews map[int64]*models.Review
	nextID  int64
}

var _ storage.ReviewStorage = (*fakeReviewRepo)(nil)

func newFakeReviewRepo() *fakeReviewRepo {
	return &fakeReviewRepo{reviews: make(map[int64]*models.Review)}
}

func (f *fakeReviewRepo) ListReviews(ctx context.Context) ([]*models.Review, error) {
	out := make([]*models.Review, 0, len(f.reviews))
	for id := int64(1); id <= f.nextID; id++ {
		if r, ok := f.reviews[id]; ok {
			out = append(out, r)
		}
	}
	return out, nil
}

func (f *fakeReviewRepo) ListReviewsByBook(ctx context.Context, bookID int64) ([]*models.Review, error) {
	all, _ := f.ListReviews(ctx)
	var out []*models.Review
	for _, r := range all {
		if r.BookID == bookID {
			out = append(out, r)
		}
	}
	return out, nil
}

func (f *fakeReviewRepo) GetReviewByID(ctx context.Context, id int64) (*models.Review, error) {
	r, ok := f.reviews[id]
	if !ok {
		return nil, storage.ErrReviewNotFound
	}
	cp := *r
	return &cp, nil
}

func (f *fakeReviewRepo) CreateReview(ctx context.Context, review *models.Review) (*models.Review, error) {
	if _, ok := testBooks[review.BookID]; !ok {
		return nil, storage.ErrUnknownReference
	}
	f.nextID++
	review.ID = f.nextID
	review.CreatedAt = time.Now()
	review.UpdatedAt = review.CreatedAt
	f.reviews[review.ID] = review
	return review, nil
}

func (f *fakeReviewRepo) UpdateReview(ctx context.Context, review *models.Review) error {
	if _, ok := f.reviews[review.ID]; !ok {
		return storage.ErrReviewNotFound
	}
	review.UpdatedAt = time.Now()
	f.reviews[review.ID] = review
	return nil
}

func (f *fakeReviewRepo) DeleteReview(ctx context.Context, id int64) error {
	if _, ok := f.reviews[id]; !ok {
		return storage.ErrReviewNotFound
	}
	delete(f.reviews, id)
	return nil
}

func TestReviewService_Create(t *testing.T) {
	repo := newFakeReviewRepo()
	awarder := &fakeAwarder{}
	svc := service.NewReviewService(testLogger(), repo, awarder)

	// e с комбинируемым акцентом приводится к одному символу
	created, err := svc.Create(context.Background(), 7, service.ReviewInput{BookID: 101, Rating: 5, Comment: "  Cafe\u0301 vibes "})
	require.NoError(t, err)
	assert.Equal(t, "Caf\u00e9 vibes", created.Review.Comment)
	assert.Equal(t, []string{"First Purchase"}, names(created.Badges))

	require.Len(t, awarder.calls, 1)
	assert.Equal(t, []badge.Kind{badge.KindReviewCount}, awarder.calls[0].trigger.Kinds)
	assert.Zero(t, awarder.calls[0].trigger.OrderID)
}

func TestReviewService_Create_AwardFailureKeepsReview(t *testing.T) {
	repo := newFakeReviewRepo()
	svc := service.NewReviewService(testLogger(), repo, &fakeAwarder{err: errors.New("db down")})

	created, err := svc.Create(context.Background(), 7, service.ReviewInput{BookID: 101, Rating: 4})
	require.NoError(t, err)
	assert.NotNil(t, created.Badges)
	assert.Empty(t, created.Badges)
	assert.Len(t, repo.reviews, 1)
}

func TestReviewService_Create_Validation(t *testing.T) {
	svc := service.NewReviewService(testLogger(), newFakeReviewRepo(), &fakeAwarder{})

	_, err := svc.Create(context.Background(), 7, service.ReviewInput{BookID: 101, Rating: 6})
	vErr, ok := apperr.IsValidation(err)
	require.True(t, ok)
	assert.Contains(t, vErr.Fields, "rating")

	_, err = svc.Create(context.Background(), 7, service.ReviewInput{BookID: 999, Rating: 3})
	vErr, ok = apperr.IsValidation(err)
	require.True(t, ok)
	assert.Contains(t, vErr.Fields, "bookId")
}

func TestReviewService_UpdateAndDelete_OwnerOnly(t *testing.T) {
	repo := newFakeReviewRepo()
	svc := service.NewReviewService(testLogger(), repo, &fakeAwarder{})
	ctx := context.Background()

	created, err := svc.Create(ctx, 7, service.ReviewInput{BookID: 101, Rating: 3, Comment: "ok"})
	require.NoError(t, err)
	id := created.Review.ID

	_, err = svc.Update(ctx, 8, id, service.ReviewInput{Rating: 1})
	assert.ErrorIs(t, err, apperr.ErrForbidden)
	assert.ErrorIs(t, svc.Delete(ctx, 8, id), apperr.ErrForbidden)

	updated, err := svc.Update(ctx, 7, id, service.ReviewInput{BookID: 202, Rating: 5, Comment: "great"})
	require.NoError(t, err)
	assert.Equal(t, 5, updated.Rating)
	assert.Equal(t, int64(101), updated.BookID, "book cannot be changed")

	require.NoError(t, svc.Delete(ctx, 7, id))
	assert.ErrorIs(t, svc.Delete(ctx, 7, id), apperr.ErrNotFound)
}

func TestReviewService_ListByBook(t *testing.T) {
	repo := newFakeReviewRepo()
	svc := service.NewReviewService(testLogger(), repo, &fakeAwarder{})
	ctx := context.Background()

	for _, bookID := range []int64{101, 202, 101} {
		_, err := svc.Create(ctx, 7, service.ReviewInput{BookID: bookID, Rating: 4})
		require.NoError(t, err)
	}

	reviews, err := svc.ListByBook(ctx, 101)
	require.NoError(t, err)
	assert.Len(t, reviews, 2)

	all, err := svc.List(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 3)
}
