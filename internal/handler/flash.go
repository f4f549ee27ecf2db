package handler

import (
	"log/slog"
	"net/http"

	"github.com/gorilla/sessions"
)

const flashSession = "yatube_flash"

// FlashStore keeps one-shot notices in a signed cookie until the next
// rendered page shows them.
type FlashStore struct {
	store  *sessions.CookieStore
	logger *slog.Logger
}

func NewFlashStore(secret []byte, secure bool, logger *slog.Logger) *FlashStore {
	store := sessions.NewCookieStore(secret)
	store.Options = &sessions.Options{
		Path:     "/",
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	}
	return &FlashStore{store: store, logger: logger}
}

// Add queues message for the next page. Failures are logged; a lost
// notice never fails the request.
func (f *FlashStore) Add(w http.ResponseWriter, r *http.Request, message string) {
	// A tampered or stale cookie yields a fresh session alongside the error.
	session, err := f.store.Get(r, flashSession)
	if err != nil {
		f.logger.Debug("discarding unreadable flash cookie", slog.String("error", err.Error()))
	}
	session.AddFlash(message)
	if err := session.Save(r, w); err != nil {
		f.logger.Warn("failed to save flash", slog.String("error", err.Error()))
	}
}

// Pop returns and clears the queued notices.
func (f *FlashStore) Pop(w http.ResponseWriter, r *http.Request) []string {
	session, err := f.store.Get(r, flashSession)
	if err != nil {
		return nil
	}

	raw := session.Flashes()
	if len(raw) == 0 {
		return nil
	}
	if err := session.Save(r, w); err != nil {
		f.logger.Warn("failed to clear flashes", slog.String("error", err.Error()))
	}

	messages := make([]string, 0, len(raw))
	for _, v := range raw {
		if s, ok := v.(string); ok {
			messages = append(messages, s)
		}
	}
	return messages
}
