package store

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/classchat/classchat/config"
	"github.com/classchat/classchat/types"
	"github.com/google/uuid"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type GormStore struct {
	db *gorm.DB
}

var _ Store = (*GormStore)(nil)

func NewGormStore(cfg *config.Config) (*GormStore, error) {
	db, err := setupGormDB(cfg)
	if err != nil {
		return nil, err
	}
	return &GormStore{db: db}, nil
}

func setupGormDB(cfg *config.Config) (*gorm.DB, error) {
	if cfg.PersistenceConfig.DSN == "" {
		return nil, fmt.Errorf("no persistence DSN configured")
	}
	var dial gorm.Dialector
	switch cfg.PersistenceConfig.Type {
	case "postgres":
		dial = postgres.Open(cfg.PersistenceConfig.DSN)

	case "sqlite":
		dial = sqlite.Open(cfg.PersistenceConfig.DSN)

	default:
		return nil, fmt.Errorf("invalid persistence type %q", cfg.PersistenceConfig.Type)
	}
	db, err := gorm.Open(dial, &gorm.Config{TranslateError: true})
	if err != nil {
		return nil, err
	}
	err = db.AutoMigrate(&types.User{}, &types.Room{}, &types.Message{})
	if err != nil {
		return nil, err
	}
	return db, nil
}

func (s *GormStore) CreateMessage(ctx context.Context, userId, roomId, content string) (*types.Message, error) {
	if strings.TrimSpace(content) == "" {
		return nil, fmt.Errorf("empty message content: %w", types.ErrValidation)
	}
	msg := types.Message{
		RoomId:  roomId,
		UserId:  userId,
		Content: content,
	}
	if err := s.db.WithContext(ctx).Create(&msg).Error; err != nil {
		return nil, err
	}
	return &msg, nil
}

func (s *GormStore) ListMessages(ctx context.Context, roomId string, cursor *int64, limit int) (*Page, error) {
	rows, err := s.queryMessages(ctx, roomId, "", cursor, limit)
	if err != nil {
		return nil, err
	}
	authors, err := s.loadAuthors(ctx, rows)
	if err != nil {
		return nil, err
	}
	return buildPage(rows, limit, authors), nil
}

func (s *GormStore) SearchMessages(ctx context.Context, roomId, query string, cursor *int64, limit int) (*SearchPage, error) {
	rows, err := s.queryMessages(ctx, roomId, query, cursor, limit)
	if err != nil {
		return nil, err
	}
	authors, err := s.loadAuthors(ctx, rows)
	if err != nil {
		return nil, err
	}
	total, err := s.CountMatches(ctx, roomId, query)
	if err != nil {
		return nil, err
	}
	return &SearchPage{Page: *buildPage(rows, limit, authors), Total: total}, nil
}

func (s *GormStore) CountMatches(ctx context.Context, roomId, query string) (int64, error) {
	var total int64
	err := s.db.WithContext(ctx).Model(&types.Message{}).
		Where("room_id = ?", roomId).
		Where(matchClause, likePattern(query)).
		Count(&total).Error
	return total, err
}

// Matching is case-insensitive independent of the engine collation: both the
// content and the pattern are lowered in SQL.
const matchClause = `lower(content) LIKE lower(?) ESCAPE '\'`

func likePattern(query string) string {
	escaped := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(query)
	return "%" + escaped + "%"
}

// queryMessages fetches up to limit+1 rows newest-first, strictly older than
// the cursor's message when a cursor is given. The extra row is the probe the
// pagination codec uses to decide HasMore.
func (s *GormStore) queryMessages(ctx context.Context, roomId, query string, cursor *int64, limit int) ([]types.Message, error) {
	if limit <= 0 {
		return nil, fmt.Errorf("limit must be positive: %w", types.ErrValidation)
	}
	q := s.db.WithContext(ctx).Where("room_id = ?", roomId)
	if query != "" {
		q = q.Where(matchClause, likePattern(query))
	}
	if cursor != nil {
		q = q.Where("id < ?", *cursor)
	}
	rows := make([]types.Message, 0, limit+1)
	err := q.Order("id DESC").Limit(limit + 1).Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func (s *GormStore) loadAuthors(ctx context.Context, rows []types.Message) (map[string]*types.User, error) {
	ids := make([]string, 0, len(rows))
	seen := make(map[string]struct{}, len(rows))
	for _, m := range rows {
		if _, ok := seen[m.UserId]; ok {
			continue
		}
		seen[m.UserId] = struct{}{}
		ids = append(ids, m.UserId)
	}
	authors := make(map[string]*types.User, len(ids))
	if len(ids) == 0 {
		return authors, nil
	}
	users := make([]*types.User, 0, len(ids))
	err := s.db.WithContext(ctx).Where("id IN ?", ids).Find(&users).Error
	if err != nil {
		return nil, err
	}
	for _, u := range users {
		authors[u.Id] = u
	}
	return authors, nil
}

func (s *GormStore) GetOrCreateRoom(ctx context.Context, name, kind string) (*types.Room, error) {
	var room types.Room
	err := s.db.WithContext(ctx).Where("name = ?", name).First(&room).Error
	if err == nil {
		return &room, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}
	room = types.Room{Id: uuid.NewString(), Name: name, Kind: kind}
	if err := s.db.WithContext(ctx).Create(&room).Error; err != nil {
		// lost a concurrent first-create race, the winning row exists now
		if err2 := s.db.WithContext(ctx).Where("name = ?", name).First(&room).Error; err2 == nil {
			return &room, nil
		}
		return nil, err
	}
	return &room, nil
}

func (s *GormStore) GetRoom(ctx context.Context, id string) (*types.Room, error) {
	var room types.Room
	err := s.db.WithContext(ctx).First(&room, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("room %s: %w", id, types.ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return &room, nil
}

func (s *GormStore) ListRooms(ctx context.Context) ([]*types.Room, error) {
	roomList := make([]*types.Room, 0)
	err := s.db.WithContext(ctx).Order("name").Find(&roomList).Error
	return roomList, err
}

func (s *GormStore) GetUser(ctx context.Context, id string) (*types.User, error) {
	var user types.User
	err := s.db.WithContext(ctx).First(&user, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("user %s: %w", id, types.ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (s *GormStore) GetUserByEmail(ctx context.Context, email string) (*types.User, error) {
	var user types.User
	err := s.db.WithContext(ctx).First(&user, "email = ?", email).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("user %s: %w", email, types.ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (s *GormStore) StoreUser(ctx context.Context, user *types.User) error {
	return s.db.WithContext(ctx).Clauses(clause.OnConflict{UpdateAll: true}).Create(user).Error
}

func (s *GormStore) ListUsers(ctx context.Context) ([]*types.User, error) {
	users := make([]*types.User, 0)
	err := s.db.WithContext(ctx).Order("email").Find(&users).Error
	return users, err
}

func (s *GormStore) UpdateLastOnline(ctx context.Context, userIds []string, t time.Time) error {
	if len(userIds) == 0 {
		return nil
	}
	return s.db.WithContext(ctx).Model(&types.User{}).
		Where("id IN ?", userIds).
		UpdateColumn("last_online", t).Error
}

func (s *GormStore) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
