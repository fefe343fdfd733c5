package main

import (
	"context"
	"fmt"
	"time"

	"github.com/examportal/examportal-backend/internal/config"
	"github.com/examportal/examportal-backend/internal/database"
	"github.com/examportal/examportal-backend/internal/logger"
	"github.com/examportal/examportal-backend/internal/model"
	"github.com/examportal/examportal-backend/internal/repository"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

// Seeds a demo admin, two participants, one exam with questions, and
// assignment windows opening now. Intended for development databases only.
func main() {
	cfg := config.Load()
	log := logger.Setup(cfg.LogLevel, cfg.LogFormat)

	ctx := context.Background()

	pool, err := database.NewPostgresPool(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to PostgreSQL")
	}
	defer pool.Close()

	userRepo := repository.NewUserRepository(pool)
	examRepo := repository.NewExamRepository(pool)
	questionRepo := repository.NewQuestionRepository(pool)
	permissionRepo := repository.NewPermissionRepository(pool)

	hash, err := bcrypt.GenerateFromPassword([]byte("password123"), cfg.BcryptCost)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to hash seed password")
	}

	admin := &model.User{
		Username:     "admin",
		Email:        "admin@example.com",
		PasswordHash: string(hash),
		Role:         model.RoleAdmin,
	}
	if err := userRepo.Create(ctx, admin); err != nil {
		log.Fatal().Err(err).Msg("Failed to create admin")
	}

	participants := make([]*model.User, 0, 2)
	for _, username := range []string{"alice", "bob"} {
		u := &model.User{
			Username:     username,
			Email:        username + "@example.com",
			PasswordHash: string(hash),
			Role:         model.RoleParticipant,
		}
		if err := userRepo.Create(ctx, u); err != nil {
			log.Fatal().Err(err).Str("username", username).Msg("Failed to create participant")
		}
		participants = append(participants, u)
	}

	exam := &model.Exam{
		ID:              uuid.New(),
		Title:           "General Knowledge",
		Description:     "A short multiple-choice demo exam.",
		DurationMinutes: 30,
		CreatedBy:       admin.ID,
	}
	if err := examRepo.Create(ctx, exam); err != nil {
		log.Fatal().Err(err).Msg("Failed to create exam")
	}

	questions := []model.Question{
		{
			QuestionText:  "Which planet is closest to the sun?",
			OptionA:       "Venus",
			OptionB:       "Mercury",
			OptionC:       "Mars",
			OptionD:       "Earth",
			CorrectOption: "B",
			Marks:         1,
		},
		{
			QuestionText:  "What is the chemical symbol for gold?",
			OptionA:       "Au",
			OptionB:       "Ag",
			OptionC:       "Gd",
			OptionD:       "Go",
			CorrectOption: "A",
			Marks:         2,
		},
		{
			QuestionText:  "How many continents are there?",
			OptionA:       "Five",
			OptionB:       "Six",
			OptionC:       "Seven",
			OptionD:       "Eight",
			CorrectOption: "C",
			Marks:         2,
		},
	}
	for i := range questions {
		questions[i].ID = uuid.New()
		questions[i].ExamID = exam.ID
		if err := questionRepo.Create(ctx, &questions[i]); err != nil {
			log.Fatal().Err(err).Msg("Failed to create question")
		}
	}

	now := time.Now().UTC()
	for _, p := range participants {
		perm := &model.Permission{
			ID:      uuid.New(),
			UserID:  p.ID,
			ExamID:  exam.ID,
			StartAt: now,
			EndAt:   now.Add(24 * time.Hour),
		}
		if err := permissionRepo.Create(ctx, perm); err != nil {
			log.Fatal().Err(err).Int("user_id", p.ID).Msg("Failed to create assignment")
		}
	}

	fmt.Println("Seed complete:")
	fmt.Printf("  admin: admin / password123\n")
	fmt.Printf("  participants: alice, bob / password123\n")
	fmt.Printf("  exam: %s (%s)\n", exam.Title, exam.ID)
}
