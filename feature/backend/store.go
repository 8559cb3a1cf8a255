package backend

import (
	"context"
	"errors"
	"fmt"
	"time"

	"roster-sync/core/database"
	"roster-sync/feature/players/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ErrNotFound is returned for operations on an unknown player id.
var ErrNotFound = errors.New("player not found")

// PlayerRecord is a row of the 'players' table.
type PlayerRecord struct {
	ID        int       `gorm:"column:id;primaryKey;autoIncrement"`
	Name      string    `gorm:"column:name;size:255;not null"`
	Age       *int      `gorm:"column:age"`
	Email     string    `gorm:"column:email;size:255"`
	CreatedAt time.Time `gorm:"column:created_at"`
	UpdatedAt time.Time `gorm:"column:updated_at"`
}

// TableName overrides the table name used by PlayerRecord.
func (PlayerRecord) TableName() string {
	return "players"
}

func (r PlayerRecord) toModel() models.Player {
	return models.Player{ID: r.ID, Name: r.Name, Age: r.Age, Email: r.Email}
}

// TokenRecord is a row of the 'fcm_tokens' table. One token per user.
type TokenRecord struct {
	UserID    string    `gorm:"column:user_id;primaryKey;size:255"`
	Token     string    `gorm:"column:token;size:512;not null"`
	UpdatedAt time.Time `gorm:"column:updated_at"`
}

// TableName overrides the table name used by TokenRecord.
func (TokenRecord) TableName() string {
	return "fcm_tokens"
}

// Store persists players and push tokens.
type Store struct {
	db *gorm.DB
}

// NewStore creates a store on an open connection.
func NewStore(db *gorm.DB) *Store {
	return &Store{db: db}
}

// Migrate creates or updates the tables.
func (s *Store) Migrate(ctx context.Context) error {
	if err := s.db.WithContext(ctx).AutoMigrate(&PlayerRecord{}, &TokenRecord{}); err != nil {
		return fmt.Errorf("failed to migrate schema: %w", err)
	}
	return nil
}

// VerifySchema returns the columns missing from the players and fcm_tokens
// tables, keyed by table.
func (s *Store) VerifySchema() (map[string][]string, error) {
	expected := map[string][]string{
		PlayerRecord{}.TableName(): {"id", "name", "age", "email"},
		TokenRecord{}.TableName():  {"user_id", "token"},
	}

	report := make(map[string][]string)
	for table, columns := range expected {
		missing, err := database.MissingColumns(s.db, table, columns...)
		if err != nil {
			return nil, err
		}
		if len(missing) > 0 {
			report[table] = missing
		}
	}
	return report, nil
}

// List returns every player ordered by id.
func (s *Store) List(ctx context.Context) ([]models.Player, error) {
	var records []PlayerRecord
	if err := s.db.WithContext(ctx).Order("id").Find(&records).Error; err != nil {
		return nil, fmt.Errorf("failed to list players: %w", err)
	}

	players := make([]models.Player, 0, len(records))
	for _, r := range records {
		players = append(players, r.toModel())
	}
	return players, nil
}

// Create inserts a player and returns it with its assigned id.
func (s *Store) Create(ctx context.Context, p models.NewPlayer) (models.Player, error) {
	record := PlayerRecord{Name: p.Name, Age: p.Age, Email: p.Email}
	if err := s.db.WithContext(ctx).Create(&record).Error; err != nil {
		return models.Player{}, fmt.Errorf("failed to create player: %w", err)
	}
	return record.toModel(), nil
}

// Update replaces the fields of player id.
func (s *Store) Update(ctx context.Context, id int, p models.NewPlayer) (models.Player, error) {
	res := s.db.WithContext(ctx).Model(&PlayerRecord{}).Where("id = ?", id).
		Select("name", "age", "email", "updated_at").
		Updates(PlayerRecord{Name: p.Name, Age: p.Age, Email: p.Email, UpdatedAt: time.Now()})
	if res.Error != nil {
		return models.Player{}, fmt.Errorf("failed to update player %d: %w", id, res.Error)
	}
	if res.RowsAffected == 0 {
		return models.Player{}, ErrNotFound
	}
	return p.WithID(id), nil
}

// Delete removes player id.
func (s *Store) Delete(ctx context.Context, id int) error {
	res := s.db.WithContext(ctx).Delete(&PlayerRecord{}, id)
	if res.Error != nil {
		return fmt.Errorf("failed to delete player %d: %w", id, res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// SaveToken stores the push token of a user, replacing any previous one.
func (s *Store) SaveToken(ctx context.Context, t models.FCMToken) error {
	record := TokenRecord{UserID: t.UserID, Token: t.Token, UpdatedAt: time.Now()}
	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"token", "updated_at"}),
	}).Create(&record).Error
	if err != nil {
		return fmt.Errorf("failed to save token: %w", err)
	}
	return nil
}

// Token returns the stored push token of a user.
func (s *Store) Token(ctx context.Context, userID string) (string, error) {
	var record TokenRecord
	err := s.db.WithContext(ctx).Where("user_id = ?", userID).Take(&record).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("failed to load token: %w", err)
	}
	return record.Token, nil
}
