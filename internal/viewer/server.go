package viewer

import (
	"context"
	"net"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/Faultbox/reviz/pkg/formats"
	"github.com/Faultbox/reviz/pkg/math"
)

const indexHTML = `<!DOCTYPE html>
<html>
<head><title>reviz</title></head>
<body>
<h1>reviz motion replay</h1>
<p>Connect a viewer to <code>ws://{host}/ws</code> to receive the scene stream.</p>
</body>
</html>`

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// The viewer is a local tool; any page may connect
	CheckOrigin: func(*http.Request) bool { return true },
}

// Server exposes a playback run over websockets. It implements the
// playback sink interfaces, so it can be handed to the engine directly.
type Server struct {
	log  *zap.Logger
	hub  *Hub
	http *http.Server
}

// NewServer creates a viewer server. The hub loop starts with Start.
func NewServer(log *zap.Logger) *Server {
	if log == nil {
		log = zap.NewNop()
	}
	return &Server{
		log: log,
		hub: NewHub(log),
	}
}

// Start begins serving on addr. It returns once the listener is bound;
// serving continues in the background.
func (s *Server) Start(addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/", s.handleIndex)
	mux.HandleFunc("/ws", s.handleWS)

	s.http = &http.Server{Handler: mux}

	go s.hub.Run()
	go func() {
		if err := s.http.Serve(ln); err != nil && err != http.ErrServerClosed {
			s.log.Error("viewer server stopped", zap.Error(err))
		}
	}()

	s.log.Info("viewer listening", zap.String("addr", ln.Addr().String()))
	return nil
}

// Close shuts down the server and disconnects all clients.
func (s *Server) Close() error {
	s.hub.Stop()
	if s.http == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	return s.http.Shutdown(ctx)
}

// ClientCount returns the number of connected clients.
func (s *Server) ClientCount() int {
	return s.hub.ClientCount()
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Write([]byte(indexHTML))
}

func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Warn("websocket upgrade failed", zap.Error(err))
		return
	}
	NewClient(s.hub, conn).Run()
}

// SetTime broadcasts the logical frame index.
func (s *Server) SetTime(frame int) {
	msg, err := encodeSetTime(frame)
	if err != nil {
		s.log.Error("encoding time update", zap.Error(err))
		return
	}
	s.hub.Broadcast(msg)
}

// LogTransform broadcasts one entity pose.
func (s *Server) LogTransform(entity string, tf math.Transform) error {
	msg, err := encodeTransform(entity, tf)
	if err != nil {
		return err
	}
	s.hub.Broadcast(msg)
	return nil
}

// LogMesh broadcasts a static mesh and caches it for late joiners.
func (s *Server) LogMesh(entity string, mesh *formats.Mesh) error {
	msg, err := encodeMesh(entity, mesh)
	if err != nil {
		return err
	}
	s.hub.BroadcastStatic(msg)
	return nil
}

// LogViewCoordinates broadcasts the scene's coordinate convention and
// caches it for late joiners.
func (s *Server) LogViewCoordinates(up, handedness string) error {
	msg, err := encodeViewCoordinates(up, handedness)
	if err != nil {
		return err
	}
	s.hub.BroadcastStatic(msg)
	return nil
}
