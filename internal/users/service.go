package users

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"time"
	"unicode"

	"github.com/monocle-dev/taskboard/internal/auth"
	"github.com/monocle-dev/taskboard/internal/models"
	"github.com/monocle-dev/taskboard/internal/types"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

var (
	ErrUserNotFound       = fmt.Errorf("user %w", types.ErrNotFound)
	ErrEmailTaken         = errors.New("user already exists")
	ErrInvalidCredentials = errors.New("invalid credentials")
)

type Service struct {
	db     *gorm.DB
	log    *zap.SugaredLogger
	tokens *auth.Manager
	cost   int
	now    func() time.Time
}

func NewService(db *gorm.DB, log *zap.SugaredLogger, tokens *auth.Manager) *Service {
	return &Service{
		db:     db,
		log:    log,
		tokens: tokens,
		cost:   bcrypt.DefaultCost,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

type RegisterInput struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (in *RegisterInput) Validate() error {
	in.Name = strings.TrimSpace(in.Name)
	in.Email = strings.ToLower(strings.TrimSpace(in.Email))

	if in.Name == "" {
		return types.Invalid("name", "should not be empty")
	}
	if _, err := mail.ParseAddress(in.Email); err != nil || !strings.Contains(in.Email, "@") {
		return types.Invalid("email", "enter a valid email")
	}
	return validatePassword(in.Password)
}

func validatePassword(password string) error {
	if len(password) < 8 {
		return types.Invalid("password", "must be at least 8 characters long")
	}

	var digit, upper, lower, special bool
	for _, r := range password {
		switch {
		case unicode.IsDigit(r):
			digit = true
		case unicode.IsUpper(r):
			upper = true
		case unicode.IsLower(r):
			lower = true
		case !unicode.IsSpace(r) && r != '_':
			special = true
		}
	}

	switch {
	case !digit:
		return types.Invalid("password", "must contain a number")
	case !upper:
		return types.Invalid("password", "must contain an uppercase letter")
	case !lower:
		return types.Invalid("password", "must contain a lowercase letter")
	case !special:
		return types.Invalid("password", "must contain a special character")
	}
	return nil
}

// Session is what a successful login hands back to the client.
type Session struct {
	Token string      `json:"token"`
	ID    uint        `json:"id"`
	Name  string      `json:"name"`
	Role  models.Role `json:"role"`
}

func (s *Service) Register(ctx context.Context, in RegisterInput) (*models.User, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}

	db := s.db.WithContext(ctx)

	var count int64
	if err := db.Model(&models.User{}).Where("email = ?", in.Email).Count(&count).Error; err != nil {
		return nil, fmt.Errorf("checking email: %w", err)
	}
	if count > 0 {
		return nil, ErrEmailTaken
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), s.cost)
	if err != nil {
		return nil, fmt.Errorf("hashing password: %w", err)
	}

	user := models.User{
		Name:         in.Name,
		Email:        in.Email,
		PasswordHash: string(hash),
		Role:         models.RoleUser,
		CreatedAt:    s.now(),
	}
	if err := db.Create(&user).Error; err != nil {
		return nil, fmt.Errorf("creating user: %w", err)
	}

	s.log.Infow("user registered", "user_id", user.ID)
	return &user, nil
}

func (s *Service) Login(ctx context.Context, email, password string) (*Session, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || password == "" {
		return nil, types.Invalid("", "email and password should not be empty")
	}

	var user models.User
	if err := s.db.WithContext(ctx).Where("email = ?", email).Take(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("loading user: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	token, err := s.tokens.Generate(user)
	if err != nil {
		return nil, err
	}

	return &Session{Token: token, ID: user.ID, Name: user.Name, Role: user.Role}, nil
}

func (s *Service) Get(ctx context.Context, userID uint) (*models.User, error) {
	return findUser(s.db.WithContext(ctx), userID)
}

func findUser(db *gorm.DB, userID uint) (*models.User, error) {
	var user models.User

	if err := db.First(&user, userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("loading user %d: %w", userID, err)
	}

	return &user, nil
}

// ListQuery filters the admin user listing by name or email.
type ListQuery struct {
	types.PageQuery
	Search string
}

func (s *Service) List(ctx context.Context, q ListQuery) ([]models.User, types.Pagination, error) {
	q.PageQuery = q.PageQuery.Normalize()

	filtered := func() *gorm.DB {
		db := s.db.WithContext(ctx).Model(&models.User{})
		if search := strings.TrimSpace(q.Search); search != "" {
			like := "%" + strings.ToLower(search) + "%"
			db = db.Where("LOWER(name) LIKE ? OR LOWER(email) LIKE ?", like, like)
		}
		return db
	}

	var total int64
	if err := filtered().Count(&total).Error; err != nil {
		return nil, types.Pagination{}, fmt.Errorf("counting users: %w", err)
	}

	users := []models.User{}
	if err := filtered().Order("id ASC").Limit(q.Limit).Offset(q.Offset()).Find(&users).Error; err != nil {
		return nil, types.Pagination{}, fmt.Errorf("listing users: %w", err)
	}

	return users, types.NewPagination(q.PageQuery, total), nil
}

func (s *Service) UpdateRole(ctx context.Context, userID uint, role models.Role) error {
	if !role.Valid() {
		return types.Invalid("newRole", "must be ADMIN or USER")
	}

	res := s.db.WithContext(ctx).Model(&models.User{}).Where("id = ?", userID).Update("role", role)
	if res.Error != nil {
		return fmt.Errorf("updating role of user %d: %w", userID, res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrUserNotFound
	}

	s.log.Infow("user role updated", "user_id", userID, "role", role)
	return nil
}

// Delete removes a user. Rows the user authored keep existing with the
// author cleared; memberships, assignments and comments go with the user.
func (s *Service) Delete(ctx context.Context, userID uint) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := findUser(tx, userID); err != nil {
			return err
		}

		authored := []interface{}{&models.Task{}, &models.Project{}}
		for _, model := range authored {
			if err := tx.Model(model).Where("created_by = ?", userID).Update("created_by", nil).Error; err != nil {
				return fmt.Errorf("clearing authorship of user %d: %w", userID, err)
			}
		}
		if err := tx.Model(&models.ActivityLog{}).Where("user_id = ?", userID).Update("user_id", nil).Error; err != nil {
			return fmt.Errorf("clearing activity of user %d: %w", userID, err)
		}

		owned := []interface{}{&models.ProjectUserMapping{}, &models.UserTaskMapping{}}
		for _, model := range owned {
			if err := tx.Where("user_id = ?", userID).Delete(model).Error; err != nil {
				return fmt.Errorf("deleting rows owned by user %d: %w", userID, err)
			}
		}
		if err := tx.Where("created_by = ?", userID).Delete(&models.Comment{}).Error; err != nil {
			return fmt.Errorf("deleting comments of user %d: %w", userID, err)
		}

		if err := tx.Delete(&models.User{}, userID).Error; err != nil {
			return fmt.Errorf("deleting user %d: %w", userID, err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.log.Infow("user deleted", "user_id", userID)
	return nil
}
