package push

import (
	"context"
	"fmt"

	firebase "firebase.google.com/go"
	"firebase.google.com/go/messaging"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"google.golang.org/api/option"

	"github.com/doersapp/doers-backend/internal/logger"
)

// FCMSender доставляет push-уведомления через Firebase Cloud Messaging.
// Токены устройств хранятся в таблице device_tokens.
type FCMSender struct {
	client *messaging.Client
	db     *sqlx.DB
}

// NewFCMSender инициализирует Firebase по файлу сервисного аккаунта.
// При пустом пути push-уведомления отключены: возвращается nil без ошибки.
func NewFCMSender(ctx context.Context, credentialsFile string, db *sqlx.DB) (*FCMSender, error) {
	if credentialsFile == "" {
		return nil, nil
	}

	app, err := firebase.NewApp(ctx, nil, option.WithCredentialsFile(credentialsFile))
	if err != nil {
		return nil, fmt.Errorf("push: firebase init %w", err)
	}

	client, err := app.Messaging(ctx)
	if err != nil {
		return nil, fmt.Errorf("push: messaging client %w", err)
	}

	return &FCMSender{client: client, db: db}, nil
}

// RegisterToken сохраняет токен устройства пользователя.
func (s *FCMSender) RegisterToken(ctx context.Context, userID uuid.UUID, token string) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO device_tokens (user_id, token)
		VALUES ($1, $2)
		ON CONFLICT (token) DO UPDATE SET user_id = EXCLUDED.user_id
	`, userID, token)
	if err != nil {
		return fmt.Errorf("push: register token %w", err)
	}
	return nil
}

// DeleteToken удаляет токен устройства.
func (s *FCMSender) DeleteToken(ctx context.Context, token string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM device_tokens WHERE token = $1`, token); err != nil {
		return fmt.Errorf("push: delete token %w", err)
	}
	return nil
}

// SendToUser отправляет уведомление на все устройства пользователя.
// Недоставка на отдельное устройство не прерывает рассылку.
func (s *FCMSender) SendToUser(ctx context.Context, userID uuid.UUID, title, body string, data map[string]string) error {
	var tokens []string
	err := s.db.SelectContext(ctx, &tokens, `SELECT token FROM device_tokens WHERE user_id = $1`, userID)
	if err != nil {
		return fmt.Errorf("push: get tokens %w", err)
	}

	for _, token := range tokens {
		msg := &messaging.Message{
			Token: token,
			Notification: &messaging.Notification{
				Title: title,
				Body:  body,
			},
			Data: data,
			Android: &messaging.AndroidConfig{
				Priority: "high",
			},
			APNS: &messaging.APNSConfig{
				Headers: map[string]string{"apns-priority": "10"},
				Payload: &messaging.APNSPayload{
					Aps: &messaging.Aps{
						Alert: &messaging.ApsAlert{Title: title, Body: body},
						Sound: "default",
					},
				},
			},
		}

		if _, err := s.client.Send(ctx, msg); err != nil && logger.Log != nil {
			logger.Log.WithFields(map[string]interface{}{
				"user_id": userID,
				"error":   err.Error(),
			}).Warn("push: не удалось отправить уведомление на устройство")
		}
	}

	return nil
}
