package main

import (
	"fmt"
	"log"
	"time"

	"linka/internal/pkg/config"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"golang.org/x/crypto/bcrypt"
)

// 开发环境演示数据，不要在生产库上执行
type seedUser struct {
	ID        string `db:"id"`
	Username  string `db:"username"`
	Email     string `db:"email"`
	Password  string `db:"password_hash"`
	FirstName string `db:"first_name"`
	LastName  string `db:"last_name"`
}

type seedPost struct {
	ID      string `db:"id"`
	UserID  string `db:"user_id"`
	Content string `db:"content"`
}

func main() {
	config.LoadConfig()
	cfg := config.GlobalConfig.Database
	dsn := fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		cfg.Host, cfg.Port, cfg.User, cfg.Password, cfg.DBName, cfg.SSLMode)

	db, err := sqlx.Connect("postgres", dsn)
	if err != nil {
		log.Fatal("failed to connect:", err)
	}
	defer db.Close()

	hash, err := bcrypt.GenerateFromPassword([]byte("password123"), bcrypt.DefaultCost)
	if err != nil {
		log.Fatal(err)
	}

	users := []seedUser{
		{ID: uuid.New().String(), Username: "alice", Email: "alice@example.com", Password: string(hash), FirstName: "Alice", LastName: "Liddell"},
		{ID: uuid.New().String(), Username: "bob", Email: "bob@example.com", Password: string(hash), FirstName: "Bob", LastName: "Stone"},
		{ID: uuid.New().String(), Username: "carol", Email: "carol@example.com", Password: string(hash), FirstName: "Carol", LastName: "Reed"},
	}

	tx := db.MustBegin()
	_, err = tx.NamedExec(`
		INSERT INTO users (id, username, email, password_hash, first_name, last_name, created_at, updated_at)
		VALUES (:id, :username, :email, :password_hash, :first_name, :last_name, now(), now())
		ON CONFLICT (username) DO NOTHING`, users)
	if err != nil {
		tx.Rollback()
		log.Fatal("failed to seed users:", err)
	}

	posts := []seedPost{
		{ID: uuid.New().String(), UserID: users[0].ID, Content: "Hello from the seed data"},
		{ID: uuid.New().String(), UserID: users[1].ID, Content: "Second demo post"},
	}
	_, err = tx.NamedExec(`
		INSERT INTO posts (id, user_id, content, visibility, created_at, updated_at)
		VALUES (:id, :user_id, :content, 'public', now(), now())`, posts)
	if err != nil {
		tx.Rollback()
		log.Fatal("failed to seed posts:", err)
	}

	communityID := uuid.New().String()
	_, err = tx.Exec(`
		INSERT INTO communities (id, name, description, category, creator_id, created_at, updated_at)
		VALUES ($1, 'golang', 'Go developers hangout', 'tech', $2, now(), now())
		ON CONFLICT (name) DO NOTHING`, communityID, users[0].ID)
	if err != nil {
		tx.Rollback()
		log.Fatal("failed to seed community:", err)
	}
	_, err = tx.Exec(`
		INSERT INTO community_members (id, community_id, user_id, role, created_at, updated_at)
		VALUES ($1, $2, $3, 'admin', now(), now())
		ON CONFLICT DO NOTHING`, uuid.New().String(), communityID, users[0].ID)
	if err != nil {
		tx.Rollback()
		log.Fatal("failed to seed community members:", err)
	}

	_, err = tx.Exec(`
		INSERT INTO stories (id, user_id, media_type, media_path, caption, expires_at, created_at, updated_at)
		VALUES ($1, $2, 'image', 'demo.jpg', 'seeded story', $3, now(), now())`,
		uuid.New().String(), users[2].ID, time.Now().Add(24*time.Hour))
	if err != nil {
		tx.Rollback()
		log.Fatal("failed to seed stories:", err)
	}

	if err := tx.Commit(); err != nil {
		log.Fatal(err)
	}
	log.Printf("Seeded %d users, %d posts, 1 community, 1 story", len(users), len(posts))
}
