package photos_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/Simplici0/quickestimate/internal/photos"
	"github.com/Simplici0/quickestimate/internal/photos/mocks"
)

func TestSaveAll_PreservesOrder(t *testing.T) {
	ctrl := gomock.NewController(t)
	st := mocks.NewMockStorage(ctrl)

	uploads := []photos.Upload{
		{Filename: "a.jpg"},
		{Filename: "b.jpg"},
		{Filename: "c.jpg"},
		{Filename: "d.jpg"},
	}
	st.EXPECT().Save(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, u photos.Upload) (string, error) {
			return "/uploads/" + u.Filename, nil
		}).
		Times(len(uploads))

	refs, err := photos.SaveAll(context.Background(), st, uploads)
	require.NoError(t, err)
	assert.Equal(t, []string{"/uploads/a.jpg", "/uploads/b.jpg", "/uploads/c.jpg", "/uploads/d.jpg"}, refs)
}

func TestSaveAll_Empty(t *testing.T) {
	ctrl := gomock.NewController(t)
	st := mocks.NewMockStorage(ctrl)

	refs, err := photos.SaveAll(context.Background(), st, nil)
	require.NoError(t, err)
	assert.Empty(t, refs)
}

func TestSaveAll_PropagatesFailure(t *testing.T) {
	ctrl := gomock.NewController(t)
	st := mocks.NewMockStorage(ctrl)

	st.EXPECT().Save(gomock.Any(), gomock.Any()).
		Return("", errors.New("disk full")).
		MinTimes(1)

	_, err := photos.SaveAll(context.Background(), st, []photos.Upload{{Filename: "a.jpg"}, {Filename: "b.jpg"}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "disk full")
}

func TestSaveAll_RemovesSavedPhotosOnFailure(t *testing.T) {
	ctrl := gomock.NewController(t)
	st := mocks.NewMockStorage(ctrl)

	st.EXPECT().Save(gomock.Any(), photos.Upload{Filename: "a.jpg"}).Return("/uploads/a.jpg", nil)
	st.EXPECT().Save(gomock.Any(), photos.Upload{Filename: "b.jpg"}).Return("", errors.New("disk full"))
	st.EXPECT().Delete(gomock.Any(), "/uploads/a.jpg").Return(nil)

	_, err := photos.SaveAll(context.Background(), st, []photos.Upload{{Filename: "a.jpg"}, {Filename: "b.jpg"}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "disk full")
}

func TestDeleteAll_ContinuesPastFailures(t *testing.T) {
	ctrl := gomock.NewController(t)
	st := mocks.NewMockStorage(ctrl)

	gomock.InOrder(
		st.EXPECT().Delete(gomock.Any(), "/uploads/a.jpg").Return(errors.New("permission denied")),
		st.EXPECT().Delete(gomock.Any(), "/uploads/b.jpg").Return(nil),
	)

	err := photos.DeleteAll(context.Background(), st, []string{"/uploads/a.jpg", "/uploads/b.jpg"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "permission denied")
}
