// Package testutil holds database and Redis fixtures shared by package tests.
package testutil

import (
	"testing"
	"time"

	"civichub/internal/cache"
	"civichub/internal/config"
	"civichub/internal/database"
	"civichub/internal/models"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// DefaultPassword is the plaintext password given to fixture users.
const DefaultPassword = "password123"

// NewSQLiteDB returns a migrated, private in-memory database.
func NewSQLiteDB(t testing.TB) *gorm.DB {
	t.Helper()

	db, err := database.Connect(&config.Config{DBDriver: "sqlite", DBSQLitePath: ":memory:"})
	require.NoError(t, err)

	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	return db
}

// NewRedis starts a miniredis instance and installs it as the cache client.
func NewRedis(t testing.TB) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	cache.SetClient(client)
	t.Cleanup(func() { cache.SetClient(nil); _ = client.Close() })
	return mr, client
}

// CreateUser inserts a user with DefaultPassword and the given role.
func CreateUser(t testing.TB, db *gorm.DB, username, role string) *models.User {
	t.Helper()

	u := &models.User{Username: username, Email: username + "@example.com", Role: role}
	require.NoError(t, u.SetPassword(DefaultPassword))
	require.NoError(t, db.Create(u).Error)
	return u
}

// CreateIssue inserts an issue authored by author, posted at postedAt.
func CreateIssue(t testing.TB, db *gorm.DB, author *models.User, title string, slots int, postedAt time.Time) *models.Issue {
	t.Helper()

	issue := &models.Issue{
		Title:       title,
		Description: "Description of " + title,
		Category:    "Health",
		AuthorID:    author.ID,
		TotalSlots:  slots,
		Mode:        "Offline",
		DatePosted:  postedAt,
	}
	require.NoError(t, db.Omit("Author").Create(issue).Error)
	return issue
}

// CreateComment inserts a comment posted at postedAt.
func CreateComment(t testing.TB, db *gorm.DB, author *models.User, issue *models.Issue, content string, postedAt time.Time) *models.Comment {
	t.Helper()

	comment := &models.Comment{Content: content, AuthorID: author.ID, IssueID: issue.ID, DatePosted: postedAt}
	require.NoError(t, db.Omit("Author", "Issue").Create(comment).Error)
	return comment
}

// CreateBooking inserts a booking for user on issue.
func CreateBooking(t testing.TB, db *gorm.DB, user *models.User, issue *models.Issue) *models.Booking {
	t.Helper()

	booking := &models.Booking{UserID: user.ID, IssueID: issue.ID}
	require.NoError(t, db.Omit("User", "Issue").Create(booking).Error)
	return booking
}
