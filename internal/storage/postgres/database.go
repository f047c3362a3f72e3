package postgres

import (
	"fmt"
	"log/slog"

	"github.com/VitaminP8/alumni-forum/internal/config"
	"github.com/VitaminP8/alumni-forum/models"
	"github.com/jinzhu/gorm"
	_ "github.com/jinzhu/gorm/dialects/postgres"
)

var DB *gorm.DB

// GetDB возвращает глобальную переменную DB (для тестирования)
func GetDB() *gorm.DB {
	return DB
}

// InitDB подключается к PostgreSQL и устанавливает глобальную переменную DB
func InitDB(cfg config.DBConfig) error {
	dsn := fmt.Sprintf(
		"host=%s user=%s password=%s dbname=%s port=%s sslmode=%s",
		cfg.Host,
		cfg.User,
		cfg.Password,
		cfg.Name,
		cfg.Port,
		cfg.SSLMode,
	)

	db, err := gorm.Open("postgres", dsn)
	if err != nil {
		return fmt.Errorf("failed to connect to the database: %w", err)
	}

	if cfg.MaxOpenConns > 0 {
		db.DB().SetMaxOpenConns(cfg.MaxOpenConns)
	}

	DB = db
	slog.Info("connected to database", "host", cfg.Host, "name", cfg.Name)
	return nil
}

// Migrate создает таблицы форума
func Migrate() error {
	err := DB.AutoMigrate(
		&models.User{},
		&models.ForumCategory{},
		&models.Post{},
		&models.ForumReply{},
		&models.ReplyLike{},
		&models.PostLike{},
	).Error
	if err != nil {
		return fmt.Errorf("failed to migrate database: %w", err)
	}
	return nil
}

// CloseDB закрывает соединение с базой данных
func CloseDB() error {
	if DB == nil {
		return nil
	}

	err := DB.Close()
	if err != nil {
		return fmt.Errorf("failed to close the database connection: %w", err)
	}

	slog.Info("database connection closed")
	return nil
}

// InitDBWithConnection для тестирования (позволяет инъекцию соединения БД)
func InitDBWithConnection(db *gorm.DB) {
	DB = db
}

// usernames возвращает имена авторов по их id
func usernames(ids []uint) (map[uint]string, error) {
	names := make(map[uint]string, len(ids))
	if len(ids) == 0 {
		return names, nil
	}

	var users []models.User
	err := DB.Select("id, username").Where("id IN (?)", ids).Find(&users).Error
	if err != nil {
		return nil, fmt.Errorf("could not get authors: %w", err)
	}
	for _, u := range users {
		names[u.ID] = u.Username
	}
	return names, nil
}
