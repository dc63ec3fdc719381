package service

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"moodadmin/api/internal/models"
)

type fakeUserSource struct {
	users   []models.AppUser
	toggled []string
}

func (f *fakeUserSource) List(context.Context) ([]models.AppUser, error) {
	return f.users, nil
}

func (f *fakeUserSource) ToggleStatus(_ context.Context, deviceID string) error {
	f.toggled = append(f.toggled, deviceID)
	for i := range f.users {
		if f.users[i].DeviceID == deviceID {
			f.users[i].Status = !f.users[i].Status
		}
	}
	return nil
}

type fakePublisher struct {
	published []string
}

func (f *fakePublisher) Publish(_ context.Context, channel string, payload string) error {
	f.published = append(f.published, channel+"|"+payload)
	return nil
}

var dirNow = time.Date(2026, 8, 28, 12, 0, 0, 0, time.UTC)

func ts(offset time.Duration) *time.Time {
	t := dirNow.Add(-offset)
	return &t
}

func newTestDirectory(users []models.AppUser) (*DirectoryService, *fakeUserSource, *fakePublisher) {
	source := &fakeUserSource{users: users}
	pub := &fakePublisher{}
	svc := NewDirectoryService(source, pub, zerolog.Nop())
	svc.now = func() time.Time { return dirNow }
	return svc, source, pub
}

func TestListUsersExcludesReservedDocuments(t *testing.T) {
	svc, _, _ := newTestDirectory([]models.AppUser{
		{DeviceID: "device-1", CreatedAt: ts(time.Hour), Status: true},
		{DeviceID: models.ReservedUserCount, CreatedAt: ts(time.Hour)},
		{DeviceID: models.ReservedUserTotalCount, CreatedAt: ts(time.Hour)},
		{DeviceID: "device-2", CreatedAt: ts(2 * time.Hour), Status: true},
	})

	page, err := svc.ListUsers(context.Background(), FilterAll, 1)
	require.NoError(t, err)

	assert.Equal(t, 2, page.TotalUsers)
	require.Len(t, page.Rows, 2)
	assert.Equal(t, "device-1", page.Rows[0].DeviceID)
	assert.Equal(t, 1, page.Rows[0].Index)
	assert.Equal(t, 2, page.Rows[1].Index)
}

func TestListUsersWeeklyActive(t *testing.T) {
	svc, _, _ := newTestDirectory([]models.AppUser{
		// Seen recently: active.
		{DeviceID: "a", LastSeen: ts(2 * 24 * time.Hour), CreatedAt: ts(30 * 24 * time.Hour)},
		// Never seen but created this week: active via creation time.
		{DeviceID: "b", CreatedAt: ts(2 * 24 * time.Hour)},
		// Last seen eight days ago: not active even though created long ago.
		{DeviceID: "c", LastSeen: ts(8 * 24 * time.Hour), CreatedAt: ts(60 * 24 * time.Hour)},
		// No timestamps at all: not active.
		{DeviceID: "d"},
	})

	page, err := svc.ListUsers(context.Background(), FilterAll, 1)
	require.NoError(t, err)

	assert.Equal(t, 4, page.TotalUsers)
	assert.Equal(t, 2, page.WeeklyActive)
}

func TestListUsersFilters(t *testing.T) {
	svc, _, _ := newTestDirectory([]models.AppUser{
		{DeviceID: "new", CreatedAt: ts(3 * time.Hour), Status: true},
		{DeviceID: "seen", LastSeen: ts(5 * time.Hour), CreatedAt: ts(90 * 24 * time.Hour), Status: false},
		{DeviceID: "stale", LastSeen: ts(50 * time.Hour), CreatedAt: ts(90 * 24 * time.Hour), Status: true},
	})

	page, err := svc.ListUsers(context.Background(), FilterCreated24h, 1)
	require.NoError(t, err)
	require.Len(t, page.Rows, 1)
	assert.Equal(t, "new", page.Rows[0].DeviceID)

	page, err = svc.ListUsers(context.Background(), FilterLastSeen24h, 1)
	require.NoError(t, err)
	require.Len(t, page.Rows, 1)
	assert.Equal(t, "seen", page.Rows[0].DeviceID)

	page, err = svc.ListUsers(context.Background(), FilterActive, 1)
	require.NoError(t, err)
	assert.Len(t, page.Rows, 2)

	page, err = svc.ListUsers(context.Background(), FilterInactive, 1)
	require.NoError(t, err)
	require.Len(t, page.Rows, 1)
	assert.Equal(t, "seen", page.Rows[0].DeviceID)

	// TotalUsers always counts the unfiltered set.
	assert.Equal(t, 3, page.TotalUsers)
}

func TestListUsersPagination(t *testing.T) {
	users := make([]models.AppUser, 0, 20)
	for i := 0; i < 20; i++ {
		users = append(users, models.AppUser{
			DeviceID:  fmt.Sprintf("device-%02d", i),
			CreatedAt: ts(time.Duration(i) * time.Hour),
			Status:    true,
		})
	}
	svc, _, _ := newTestDirectory(users)

	page, err := svc.ListUsers(context.Background(), FilterAll, 1)
	require.NoError(t, err)
	assert.Len(t, page.Rows, UserPageSize)
	assert.Equal(t, 3, page.TotalPages)
	assert.Equal(t, []int{1, 2, 3}, page.PageWindow)

	page, err = svc.ListUsers(context.Background(), FilterAll, 3)
	require.NoError(t, err)
	assert.Len(t, page.Rows, 4)
	assert.Equal(t, []int{1, 2, 3}, page.PageWindow)

	// Out-of-range pages clamp to the last page.
	page, err = svc.ListUsers(context.Background(), FilterAll, 99)
	require.NoError(t, err)
	assert.Equal(t, 3, page.Page)
	assert.Len(t, page.Rows, 4)
}

func TestPageWindow(t *testing.T) {
	assert.Equal(t, []int{}, pageWindow(1, 0))
	assert.Equal(t, []int{1}, pageWindow(1, 1))
	assert.Equal(t, []int{1, 2}, pageWindow(1, 2))
	assert.Equal(t, []int{1, 2, 3}, pageWindow(1, 5))
	assert.Equal(t, []int{2, 3, 4}, pageWindow(3, 5))
	assert.Equal(t, []int{3, 4, 5}, pageWindow(5, 5))
	assert.Equal(t, []int{4, 5, 6}, pageWindow(5, 6))
}

func TestToggleStatus(t *testing.T) {
	svc, source, pub := newTestDirectory([]models.AppUser{
		{DeviceID: "device-1", CreatedAt: ts(time.Hour), Status: true},
	})

	require.NoError(t, svc.ToggleStatus(context.Background(), "device-1"))
	assert.False(t, source.users[0].Status)

	// Toggling twice restores the original value.
	require.NoError(t, svc.ToggleStatus(context.Background(), "device-1"))
	assert.True(t, source.users[0].Status)

	assert.Len(t, pub.published, 2)
}

func TestToggleStatusRejectsReserved(t *testing.T) {
	svc, source, pub := newTestDirectory(nil)

	err := svc.ToggleStatus(context.Background(), models.ReservedUserCount)
	assert.ErrorIs(t, err, ErrReservedUser)
	assert.Empty(t, source.toggled)
	assert.Empty(t, pub.published)
}
