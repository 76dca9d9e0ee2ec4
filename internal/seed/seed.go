// Package seed provides database seeding utilities for development and testing.
package seed

import (
	"fmt"
	"log"
	"math/rand"
	"time"

	"inkwell/internal/models"

	"github.com/brianvoe/gofakeit/v6"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// Options configuration for the seeder
type Options struct {
	NumUsers           int
	NumPosts           int
	MaxCommentsPerPost int
	ShouldClean        bool
}

// Seed populates the database with test data. Every generated user gets the
// password "password123" so seeded accounts can log in during development.
func Seed(db *gorm.DB, opts Options) error {
	gofakeit.Seed(time.Now().UnixNano())

	log.Printf("Starting database seeding with %d users and %d posts...", opts.NumUsers, opts.NumPosts)

	if opts.ShouldClean {
		if err := clearData(db); err != nil {
			log.Println("Warning: could not clear all existing data, continuing anyway...")
		}
	}

	users, err := createUsers(db, opts.NumUsers)
	if err != nil {
		return fmt.Errorf("failed to create users: %w", err)
	}
	log.Printf("%d test users created", len(users))

	posts, err := createPosts(db, users, opts.NumPosts)
	if err != nil {
		return fmt.Errorf("failed to create posts: %w", err)
	}
	log.Printf("%d posts created", len(posts))

	numComments, err := createComments(db, users, posts, opts.MaxCommentsPerPost)
	if err != nil {
		return fmt.Errorf("failed to create comments: %w", err)
	}
	log.Printf("%d comments created", numComments)

	log.Println("Seeding complete")
	return nil
}

func clearData(db *gorm.DB) error {
	// Comments reference posts, posts reference users; delete in FK order.
	if err := db.Exec("DELETE FROM comments").Error; err != nil {
		return err
	}
	if err := db.Exec("DELETE FROM posts").Error; err != nil {
		return err
	}
	return db.Exec("DELETE FROM users").Error
}

func createUsers(db *gorm.DB, count int) ([]*models.User, error) {
	// Hash once; all seeded accounts share the same dev password.
	hashed, err := bcrypt.GenerateFromPassword([]byte("password123"), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	users := make([]*models.User, 0, count)
	for i := 0; i < count; i++ {
		user := &models.User{
			Username: fmt.Sprintf("%s%d", gofakeit.Username(), gofakeit.Number(100, 999)),
			Email:    gofakeit.Email(),
			Password: string(hashed),
		}
		if err := db.Create(user).Error; err != nil {
			return nil, err
		}
		users = append(users, user)
	}
	return users, nil
}

func createPosts(db *gorm.DB, users []*models.User, count int) ([]*models.Post, error) {
	if len(users) == 0 || count == 0 {
		return nil, nil
	}

	posts := make([]*models.Post, 0, count)
	for i := 0; i < count; i++ {
		author := users[rand.Intn(len(users))]
		post := &models.Post{
			Title:    gofakeit.Sentence(5),
			Content:  gofakeit.Paragraph(2, 4, 8, "\n"),
			AuthorID: author.ID,
		}
		// Spread created_at over the last 90 days for realistic listings.
		daysBack := rand.Intn(90)
		post.CreatedAt = time.Now().Add(-time.Duration(daysBack)*24*time.Hour -
			time.Duration(rand.Intn(24))*time.Hour)
		posts = append(posts, post)
	}
	if err := db.Create(&posts).Error; err != nil {
		return nil, err
	}
	return posts, nil
}

func createComments(db *gorm.DB, users []*models.User, posts []*models.Post, maxPerPost int) (int, error) {
	if len(users) == 0 || len(posts) == 0 {
		return 0, nil
	}
	if maxPerPost <= 0 {
		maxPerPost = 5
	}

	total := 0
	for _, post := range posts {
		n := rand.Intn(maxPerPost + 1)
		for i := 0; i < n; i++ {
			author := users[rand.Intn(len(users))]
			comment := &models.Comment{
				Content:  gofakeit.Sentence(gofakeit.Number(5, 20)),
				AuthorID: author.ID,
				PostID:   post.ID,
			}
			if err := db.Create(comment).Error; err != nil {
				return total, err
			}
			total++
		}
	}
	return total, nil
}
