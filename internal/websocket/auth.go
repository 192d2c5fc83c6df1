package websocket

import (
	"net/http"

	"github.com/rs/zerolog/log"
	app_error "github.com/xenn00/social-chat/internal/errors"
	"github.com/xenn00/social-chat/internal/identity"
)

// authenticateConnection resolves the handshake credential. Any failure is
// reported as forbidden so the upgrade never happens.
func (h *WebSocketHandler) authenticateConnection(r *http.Request) (*identity.Identity, *app_error.AppError) {
	token := identity.TokenFromRequest(r)
	ident, appErr := h.Resolver.Resolve(r.Context(), token)
	if appErr != nil {
		log.Debug().Str("reason", appErr.Message).Msg("ws: handshake rejected")
		if app_error.Is(appErr, app_error.KindInternal) {
			return nil, appErr
		}
		return nil, app_error.Forbidden(appErr.Message, "auth")
	}
	return ident, nil
}
