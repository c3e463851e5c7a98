// Package seed fills the database with demo users, issues, comments and
// bookings. It is intended for development only.
package seed

import (
	"fmt"
	"log"
	"strings"
	"time"

	"civichub/internal/models"

	"github.com/brianvoe/gofakeit/v6"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// DemoPassword is the password of every seeded user.
const DemoPassword = "password123"

var modes = []string{"Offline", "Online", "Hybrid"}

// Options controls how much data Run creates.
type Options struct {
	Users            int
	Issues           int
	MaxComments      int
	MaxDays          int
	Clean            bool
	IncludeDemoAdmin bool
}

// Summary reports what Run created.
type Summary struct {
	Users    int
	Issues   int
	Comments int
	Bookings int
}

// Seeder creates demo data with a deterministic faker.
type Seeder struct {
	db    *gorm.DB
	faker *gofakeit.Faker
	now   time.Time
}

// NewSeeder returns a Seeder whose output depends only on seed.
func NewSeeder(db *gorm.DB, seed int64) *Seeder {
	return &Seeder{db: db, faker: gofakeit.New(seed), now: time.Now()}
}

// Run seeds users, issues, comments and bookings according to opts.
func (s *Seeder) Run(opts Options) (*Summary, error) {
	if opts.Clean {
		if err := s.ClearAll(); err != nil {
			return nil, fmt.Errorf("clear: %w", err)
		}
	}

	users, err := s.SeedUsers(opts.Users, opts.IncludeDemoAdmin)
	if err != nil {
		return nil, fmt.Errorf("users: %w", err)
	}
	log.Printf("✓ %d users created", len(users))

	issues, err := s.SeedIssues(users, opts.Issues, opts.MaxDays)
	if err != nil {
		return nil, fmt.Errorf("issues: %w", err)
	}
	log.Printf("✓ %d issues created", len(issues))

	comments, err := s.SeedComments(users, issues, opts.MaxComments)
	if err != nil {
		return nil, fmt.Errorf("comments: %w", err)
	}
	log.Printf("✓ %d comments created", comments)

	bookings, err := s.SeedBookings(users, issues)
	if err != nil {
		return nil, fmt.Errorf("bookings: %w", err)
	}
	log.Printf("✓ %d bookings created", bookings)

	return &Summary{Users: len(users), Issues: len(issues), Comments: comments, Bookings: bookings}, nil
}

// ClearAll deletes every row, children first.
func (s *Seeder) ClearAll() error {
	log.Println("🗑️  Clearing existing data...")
	return s.db.Transaction(func(tx *gorm.DB) error {
		for _, model := range []any{&models.Booking{}, &models.Comment{}, &models.Issue{}, &models.User{}} {
			if err := tx.Session(&gorm.Session{AllowGlobalUpdate: true}).Delete(model).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

// SeedUsers creates count users sharing DemoPassword. With demoAdmin the
// first user is "demo_admin" holding the admin role.
func (s *Seeder) SeedUsers(count int, demoAdmin bool) ([]models.User, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(DemoPassword), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	users := make([]models.User, 0, count)
	for i := 0; i < count; i++ {
		username := s.username(i)
		role := models.RoleUser
		if demoAdmin && i == 0 {
			username = "demo_admin"
			role = models.RoleAdmin
		}
		users = append(users, models.User{
			Username:     username,
			Email:        username + "@example.com",
			PasswordHash: string(hash),
			Role:         role,
			CreatedAt:    s.pastTime(365),
		})
	}
	if len(users) == 0 {
		return users, nil
	}

	if err := s.db.CreateInBatches(&users, 100).Error; err != nil {
		return nil, err
	}
	return users, nil
}

// SeedIssues creates count issues by random authors, posted within maxDays.
func (s *Seeder) SeedIssues(authors []models.User, count, maxDays int) ([]models.Issue, error) {
	if len(authors) == 0 || count <= 0 {
		return nil, nil
	}
	if maxDays <= 0 {
		maxDays = 60
	}

	issues := make([]models.Issue, 0, count)
	for i := 0; i < count; i++ {
		author := authors[s.faker.Number(0, len(authors)-1)]
		issues = append(issues, models.Issue{
			Title:       s.title(),
			Description: s.faker.Paragraph(2, 3, 12, "\n\n"),
			Category:    models.Categories[s.faker.Number(0, len(models.Categories)-1)].Value,
			DatePosted:  s.pastTime(maxDays),
			AuthorID:    author.ID,
			TotalSlots:  s.faker.Number(1, 12),
			Mode:        s.faker.RandomString(modes),
		})
	}

	if err := s.db.Omit("Author").CreateInBatches(&issues, 100).Error; err != nil {
		return nil, err
	}
	return issues, nil
}

// SeedComments adds up to maxPerIssue comments to each issue, all posted after the issue.
func (s *Seeder) SeedComments(authors []models.User, issues []models.Issue, maxPerIssue int) (int, error) {
	if len(authors) == 0 || maxPerIssue <= 0 {
		return 0, nil
	}

	var comments []models.Comment
	for _, issue := range issues {
		n := s.faker.Number(0, maxPerIssue)
		for j := 0; j < n; j++ {
			author := authors[s.faker.Number(0, len(authors)-1)]
			comments = append(comments, models.Comment{
				Content:    s.faker.Sentence(s.faker.Number(4, 16)),
				DatePosted: issue.DatePosted.Add(time.Duration(j+1) * time.Duration(s.faker.Number(5, 180)) * time.Minute),
				AuthorID:   author.ID,
				IssueID:    issue.ID,
			})
		}
	}
	if len(comments) == 0 {
		return 0, nil
	}

	if err := s.db.Omit("Author", "Issue").CreateInBatches(&comments, 200).Error; err != nil {
		return 0, err
	}
	return len(comments), nil
}

// SeedBookings books slots for random distinct users, never past an issue's capacity.
func (s *Seeder) SeedBookings(users []models.User, issues []models.Issue) (int, error) {
	if len(users) == 0 {
		return 0, nil
	}

	var bookings []models.Booking
	for _, issue := range issues {
		limit := issue.TotalSlots
		if limit > len(users) {
			limit = len(users)
		}
		n := s.faker.Number(0, limit)

		order := make([]int, len(users))
		for i := range order {
			order[i] = i
		}
		s.faker.ShuffleInts(order)

		for _, idx := range order[:n] {
			bookings = append(bookings, models.Booking{
				UserID:     users[idx].ID,
				IssueID:    issue.ID,
				DateBooked: issue.DatePosted.Add(time.Duration(s.faker.Number(1, 72)) * time.Hour),
			})
		}
	}
	if len(bookings) == 0 {
		return 0, nil
	}

	if err := s.db.Omit("User", "Issue").CreateInBatches(&bookings, 200).Error; err != nil {
		return 0, err
	}
	return len(bookings), nil
}

// username builds a unique name of at most 20 characters.
func (s *Seeder) username(i int) string {
	base := strings.ToLower(s.faker.FirstName())
	base = strings.Map(func(r rune) rune {
		if r >= 'a' && r <= 'z' {
			return r
		}
		return -1
	}, base)
	suffix := fmt.Sprintf("_%d", i+1)
	if room := 20 - len(suffix); len(base) > room {
		base = base[:room]
	}
	if base == "" {
		base = "user"
	}
	return base + suffix
}

func (s *Seeder) title() string {
	title := strings.TrimSuffix(s.faker.Sentence(s.faker.Number(3, 8)), ".")
	for len([]rune(title)) < 5 {
		title += " issue"
	}
	if r := []rune(title); len(r) > 100 {
		title = string(r[:100])
	}
	return title
}

func (s *Seeder) pastTime(maxDays int) time.Time {
	back := time.Duration(s.faker.Number(0, maxDays*24*60)) * time.Minute
	return s.now.Add(-back)
}
