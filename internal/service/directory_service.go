package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"moodadmin/api/internal/models"
	"moodadmin/api/internal/watch"
)

// UserPageSize is the fixed page size of the user table.
const UserPageSize = 8

// pageWindowSize is the width of the page-number strip.
const pageWindowSize = 3

// UserFilter selects which users a directory page shows. Filtering happens
// before pagination; clients reset to page 1 when the filter changes.
type UserFilter string

const (
	FilterAll          UserFilter = "all"
	FilterCreated24h   UserFilter = "created24h"
	FilterLastSeen24h  UserFilter = "seen24h"
	FilterActive       UserFilter = "active"
	FilterInactive     UserFilter = "inactive"
)

var ErrReservedUser = errors.New("reserved aggregate document")

// AppUserSource reads and toggles device-user records.
type AppUserSource interface {
	List(ctx context.Context) ([]models.AppUser, error)
	ToggleStatus(ctx context.Context, deviceID string) error
}

// UserRow is one table row. Index is the 1-based position in the snapshot,
// assigned before filtering, so it is not stable across reordering pushes.
type UserRow struct {
	Index     int         `json:"id"`
	DeviceID  string      `json:"deviceId"`
	LastSeen  *time.Time  `json:"lastSeen"`
	CreatedAt *time.Time  `json:"createdAt"`
	Status    bool        `json:"status"`
}

type UserPage struct {
	Rows         []UserRow `json:"rows"`
	Page         int       `json:"page"`
	PageSize     int       `json:"pageSize"`
	TotalPages   int       `json:"totalPages"`
	PageWindow   []int     `json:"pageWindow"`
	TotalUsers   int       `json:"totalUsers"`
	WeeklyActive int       `json:"weeklyActive"`
}

// DirectoryService is the user-management view: reserved counter documents
// are excluded from every figure it derives, the table and the totals alike.
type DirectoryService struct {
	users    AppUserSource
	notifier watch.Publisher
	log      zerolog.Logger
	now      func() time.Time
}

func NewDirectoryService(users AppUserSource, notifier watch.Publisher, log zerolog.Logger) *DirectoryService {
	return &DirectoryService{
		users:    users,
		notifier: notifier,
		log:      log,
		now:      time.Now,
	}
}

func (s *DirectoryService) ListUsers(ctx context.Context, filter UserFilter, page int) (UserPage, error) {
	users, err := s.users.List(ctx)
	if err != nil {
		return UserPage{}, fmt.Errorf("list users: %w", err)
	}

	now := s.now()

	rows := make([]UserRow, 0, len(users))
	weeklyActive := 0
	for _, user := range users {
		if models.ReservedUserID(user.DeviceID) {
			continue
		}
		rows = append(rows, UserRow{
			Index:     len(rows) + 1,
			DeviceID:  user.DeviceID,
			LastSeen:  user.LastSeen,
			CreatedAt: user.CreatedAt,
			Status:    user.Status,
		})
		if ts := user.ActivityTime(); ts != nil && now.Sub(*ts) <= 7*24*time.Hour {
			weeklyActive++
		}
	}
	total := len(rows)

	filtered := filterRows(rows, filter, now)

	totalPages := (len(filtered) + UserPageSize - 1) / UserPageSize
	if page < 1 {
		page = 1
	}
	if totalPages > 0 && page > totalPages {
		page = totalPages
	}

	start := (page - 1) * UserPageSize
	end := start + UserPageSize
	if start > len(filtered) {
		start = len(filtered)
	}
	if end > len(filtered) {
		end = len(filtered)
	}

	return UserPage{
		Rows:         filtered[start:end],
		Page:         page,
		PageSize:     UserPageSize,
		TotalPages:   totalPages,
		PageWindow:   pageWindow(page, totalPages),
		TotalUsers:   total,
		WeeklyActive: weeklyActive,
	}, nil
}

func filterRows(rows []UserRow, filter UserFilter, now time.Time) []UserRow {
	day := 24 * time.Hour
	keep := func(row UserRow) bool {
		switch filter {
		case FilterCreated24h:
			return row.CreatedAt != nil && now.Sub(*row.CreatedAt) <= day
		case FilterLastSeen24h:
			return row.LastSeen != nil && now.Sub(*row.LastSeen) <= day
		case FilterActive:
			return row.Status
		case FilterInactive:
			return !row.Status
		default:
			return true
		}
	}

	filtered := make([]UserRow, 0, len(rows))
	for _, row := range rows {
		if keep(row) {
			filtered = append(filtered, row)
		}
	}
	return filtered
}

// pageWindow is the contiguous strip of up to three page numbers centered
// on the current page, clamped to bounds.
func pageWindow(page, totalPages int) []int {
	if totalPages < 1 {
		return []int{}
	}

	start := page - 1
	end := page + 1
	switch {
	case page == 1:
		start, end = 1, pageWindowSize
	case page == totalPages:
		start, end = totalPages-pageWindowSize+1, totalPages
	}
	if start < 1 {
		start = 1
	}
	if end > totalPages {
		end = totalPages
	}

	window := make([]int, 0, end-start+1)
	for i := start; i <= end; i++ {
		window = append(window, i)
	}
	return window
}

// ToggleStatus flips one user's active flag. There is no optimistic echo;
// callers observe the change through the next read, driven by the change
// notification published here.
func (s *DirectoryService) ToggleStatus(ctx context.Context, deviceID string) error {
	if models.ReservedUserID(deviceID) {
		return ErrReservedUser
	}

	if err := s.users.ToggleStatus(ctx, deviceID); err != nil {
		return err
	}

	if err := s.notifier.Publish(ctx, watch.UsersChannel(), deviceID); err != nil {
		s.log.Warn().Err(err).Str("device_id", deviceID).Msg("publish user change failed")
	}
	return nil
}
