package realtime

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/net/websocket"

	"github.com/vssamaj/server/internal/middleware"
	"github.com/vssamaj/server/internal/model"
)

// Authenticator resolves a session token to a live identity
type Authenticator interface {
	Authenticate(ctx context.Context, token string) (*model.Identity, error)
}

// Server is the /ws endpoint. The token is checked before the upgrade, so an
// unauthenticated client never gets a connection.
type Server struct {
	auth Authenticator
	hub  *Hub
}

// NewServer creates the websocket endpoint
func NewServer(auth Authenticator, hub *Hub) *Server {
	return &Server{auth: auth, hub: hub}
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.Header().Set("Allow", http.MethodGet)
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	identity, err := s.auth.Authenticate(r.Context(), tokenFromRequest(r))
	if err != nil {
		slog.WarnContext(r.Context(), "websocket handshake rejected", "remote", r.RemoteAddr, "error", err)
		http.Error(w, "Authentication error", http.StatusForbidden)
		return
	}

	ws := websocket.Server{
		Handler: func(conn *websocket.Conn) {
			s.serveConn(conn, identity.ID)
		},
	}
	ws.ServeHTTP(w, r)
}

func (s *Server) serveConn(conn *websocket.Conn, identityID uuid.UUID) {
	// drop the http.Server read/write deadlines inherited by the hijacked conn
	_ = conn.SetDeadline(time.Time{})

	p := &peer{identityID: identityID, conn: conn}
	s.hub.add(p)
	slog.Info("websocket client connected", "identity_id", p.identityID)

	defer func() {
		s.hub.remove(p)
		_ = conn.Close()
		slog.Info("websocket client disconnected", "identity_id", p.identityID)
	}()

	// inbound frames carry nothing; reading detects the close
	for {
		var msg string
		if err := websocket.Message.Receive(conn, &msg); err != nil {
			return
		}
	}
}

func tokenFromRequest(r *http.Request) string {
	if token := strings.TrimSpace(r.URL.Query().Get("token")); token != "" {
		return token
	}
	return middleware.BearerToken(r)
}
