package notify

import (
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/rjinka/family-potluck/internal/metrics"
)

// Level classifies a transient notification.
type Level string

const (
	LevelSuccess Level = "success"
	LevelError   Level = "error"
	LevelInfo    Level = "info"
)

// Notification is one transient, user-visible message.
type Notification struct {
	ID      uuid.UUID
	Message string
	Level   Level
}

// Notifier surfaces transient notifications. Implementations must be safe
// for concurrent use.
type Notifier interface {
	Notify(message string, level Level)
}

// New builds a Notification with a fresh id.
func New(message string, level Level) Notification {
	return Notification{ID: uuid.New(), Message: message, Level: level}
}

// ---------------------------------------------------------------------------
// Log notifier
// ---------------------------------------------------------------------------

// LogNotifier writes notifications to the application log.
type LogNotifier struct {
	logger *logrus.Logger
}

// NewLogNotifier creates a LogNotifier.
func NewLogNotifier(logger *logrus.Logger) *LogNotifier {
	return &LogNotifier{logger: logger}
}

func (n *LogNotifier) Notify(message string, level Level) {
	note := New(message, level)
	metrics.Notifications.WithLabelValues(string(level)).Inc()
	entry := n.logger.WithFields(logrus.Fields{
		"notification_id": note.ID,
		"level":           level,
	})
	if level == LevelError {
		entry.Warn(message)
		return
	}
	entry.Info(message)
}

// ---------------------------------------------------------------------------
// Telegram notifier
// ---------------------------------------------------------------------------

// TelegramNotifier forwards notifications to a Telegram chat, so a headless
// session can still reach its user.
type TelegramNotifier struct {
	api    *tgbotapi.BotAPI
	chatID int64
	logger *logrus.Logger
}

// NewTelegramNotifier creates a TelegramNotifier for the given bot token
// and chat.
func NewTelegramNotifier(token string, chatID int64, logger *logrus.Logger) (*TelegramNotifier, error) {
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, err
	}
	logger.Infof("Telegram notifier authorized on account %s", api.Self.UserName)
	return &TelegramNotifier{api: api, chatID: chatID, logger: logger}, nil
}

func (n *TelegramNotifier) Notify(message string, level Level) {
	text := message
	if level == LevelError {
		text = "⚠️ " + message
	}
	msg := tgbotapi.NewMessage(n.chatID, text)
	if _, err := n.api.Send(msg); err != nil {
		n.logger.WithError(err).Error("Failed to send Telegram notification")
	}
}

// ---------------------------------------------------------------------------
// Fan-out
// ---------------------------------------------------------------------------

// Multi fans one notification out to several notifiers.
type Multi []Notifier

func (m Multi) Notify(message string, level Level) {
	for _, n := range m {
		n.Notify(message, level)
	}
}
