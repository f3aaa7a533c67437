package media

import (
	"context"
	"strings"
	"time"

	"github.com/tiya001/hw05-final/internal/auth"
	"github.com/tiya001/hw05-final/internal/db"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

// Service records uploaded images so posts can reference them by URL.
type Service struct {
	db      db.Querier
	baseURL string
}

type Object struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	URL       string    `json:"url"`
	Kind      string    `json:"kind"`
	CreatedAt time.Time `json:"created_at"`
}

func NewService(q db.Querier, baseURL string) *Service {
	return &Service{db: q, baseURL: strings.TrimSuffix(baseURL, "/")}
}

func (s *Service) SaveObject(ctx context.Context, userID, fileName, kind string) (Object, error) {
	object := Object{
		ID:     uuid.NewString(),
		UserID: userID,
		URL:    s.baseURL + "/" + fileName,
		Kind:   kind,
	}
	row := s.db.QueryRow(ctx, `
		INSERT INTO media_objects (id, user_id, url, kind)
		VALUES ($1,$2,$3,$4)
		RETURNING created_at
	`, object.ID, object.UserID, object.URL, object.Kind)
	if err := row.Scan(&object.CreatedAt); err != nil {
		return Object{}, err
	}
	return object, nil
}

func RegisterRoutes(r fiber.Router, svc *Service, requireLogin fiber.Handler) {
	r.Post("/upload", requireLogin, func(c *fiber.Ctx) error {
		var body struct {
			FileName string `json:"file_name" form:"file_name"`
			Kind     string `json:"kind" form:"kind"`
		}
		_ = c.BodyParser(&body)
		if body.FileName == "" {
			return fiber.NewError(fiber.StatusBadRequest, "file_name required")
		}

		object, err := svc.SaveObject(c.Context(), auth.CurrentUserID(c), body.FileName, body.Kind)
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, err.Error())
		}
		return c.Status(fiber.StatusCreated).JSON(object)
	})
}
