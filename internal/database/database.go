package database

import (
	"fmt"
	"log"

	"quizbit-backend/internal/config"
	"quizbit-backend/internal/models"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func Connect(cfg *config.Config) *gorm.DB {
	dsn := fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=disable",
		cfg.DBHost, cfg.DBPort, cfg.DBUser, cfg.DBPassword, cfg.DBName,
	)

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{TranslateError: true})
	if err != nil {
		log.Fatalf("failed to connect to database: %v", err)
	}

	log.Println("database connected")
	return db
}

func AutoMigrate(db *gorm.DB) {
	err := db.AutoMigrate(
		&models.User{},
		&models.Profile{},
		&models.Test{},
		&models.Question{},
		&models.Answer{},
		&models.TestSession{},
		&models.UserResponse{},
		&models.CompetitiveSession{},
		&models.Achievement{},
		&models.UserAchievement{},
		&models.FriendRequest{},
	)
	if err != nil {
		log.Fatalf("failed to migrate database: %v", err)
	}

	SeedAchievements(db)
}

func SeedAchievements(db *gorm.DB) {
	seed := []models.Achievement{
		{Code: models.AchievementFirstTest, Name: "First Steps", Description: "Complete your first test", Icon: "trophy"},
		{Code: models.AchievementTenTests, Name: "Dedicated", Description: "Complete ten tests", Icon: "medal"},
		{Code: models.AchievementPerfectScore, Name: "Flawless", Description: "Finish a test with a perfect score", Icon: "star"},
	}
	for i := range seed {
		var existing models.Achievement
		if err := db.Where("code = ?", seed[i].Code).First(&existing).Error; err != nil {
			db.Create(&seed[i])
		}
	}
}
