// internal/app/system/auditlog/logger.go
package auditlog

import (
	"context"
	"net/http"

	"github.com/dalemusser/kinshealth/internal/app/store/audit"
	"github.com/dalemusser/kinshealth/internal/app/system/auth"
	"github.com/dalemusser/kinshealth/internal/app/system/ratelimit"
	"go.uber.org/zap"
)

// Destinations accepted by Config fields.
const (
	All = "all" // MongoDB + zap
	DB  = "db"
	Log = "log"
	Off = "off"
)

// Config picks where each category goes.
type Config struct {
	Account string
	Admin   string
}

// Logger writes audit events to MongoDB and zap as configured. A nil
// *Logger is a no-op.
type Logger struct {
	store  *audit.Store
	zapLog *zap.Logger
	config Config
}

func New(store *audit.Store, zapLog *zap.Logger, config Config) *Logger {
	return &Logger{store: store, zapLog: zapLog, config: config}
}

// ValidSetting reports whether s is one of all, db, log or off.
func ValidSetting(s string) bool {
	switch s {
	case All, DB, Log, Off:
		return true
	}
	return false
}

func (l *Logger) logToZap(event audit.Event) {
	fields := []zap.Field{
		zap.Bool("audit", true),
		zap.String("category", event.Category),
		zap.String("event_type", event.EventType),
		zap.String("actor", event.Actor),
		zap.Bool("success", event.Success),
		zap.String("ip", event.IP),
	}
	if event.UserID != "" {
		fields = append(fields, zap.String("user_id", event.UserID))
	}
	if event.TargetID != "" {
		fields = append(fields, zap.String("target_id", event.TargetID))
	}
	if event.FailureReason != "" {
		fields = append(fields, zap.String("failure_reason", event.FailureReason))
	}
	for k, v := range event.Details {
		fields = append(fields, zap.String("detail_"+k, v))
	}

	if event.Success {
		l.zapLog.Info("audit event", fields...)
	} else {
		l.zapLog.Warn("audit event", fields...)
	}
}

// Log records event according to its category's setting. Unknown
// categories are recorded everywhere. Store failures are logged, never
// returned.
func (l *Logger) Log(ctx context.Context, event audit.Event) {
	if l == nil {
		return
	}

	setting := All
	switch event.Category {
	case audit.CategoryAccount:
		setting = l.config.Account
	case audit.CategoryAdmin:
		setting = l.config.Admin
	}
	if setting == Off {
		return
	}

	if setting == All || setting == Log {
		l.logToZap(event)
	}
	if (setting == All || setting == DB) && l.store != nil {
		if err := l.store.Log(ctx, event); err != nil {
			l.zapLog.Error("failed to store audit event",
				zap.Error(err),
				zap.String("event_type", event.EventType))
		}
	}
}

// actor names who made the request: the signed-in userID, else the admin
// key when one was presented.
func actor(r *http.Request) string {
	if u, ok := auth.CurrentUser(r); ok {
		return u.ID
	}
	if r.Header.Get(auth.AdminKeyHeader) != "" {
		return audit.ActorAdminKey
	}
	return ""
}

func fromRequest(r *http.Request, category, eventType string) audit.Event {
	return audit.Event{
		Category:  category,
		EventType: eventType,
		Actor:     actor(r),
		IP:        ratelimit.ClientIP(r),
		UserAgent: r.UserAgent(),
		Success:   true,
	}
}

// AdminAction records an operator change. userID is the affected account,
// targetID the affected job or thread; either may be blank.
func (l *Logger) AdminAction(ctx context.Context, r *http.Request, eventType, userID, targetID string, details map[string]string) {
	if l == nil {
		return
	}
	e := fromRequest(r, audit.CategoryAdmin, eventType)
	e.UserID = userID
	e.TargetID = targetID
	e.Details = details
	l.Log(ctx, e)
}

// AccountCreated records a create_user upsert.
func (l *Logger) AccountCreated(ctx context.Context, r *http.Request, userID, role string) {
	if l == nil {
		return
	}
	e := fromRequest(r, audit.CategoryAccount, audit.EventAccountCreated)
	e.UserID = userID
	e.Details = map[string]string{"role": role}
	l.Log(ctx, e)
}

// AccountDeleted records a user removal through the account API.
func (l *Logger) AccountDeleted(ctx context.Context, r *http.Request, userID string) {
	if l == nil {
		return
	}
	e := fromRequest(r, audit.CategoryAccount, audit.EventAccountDeleted)
	e.UserID = userID
	l.Log(ctx, e)
}
