package api

import (
	"net/http"

	echo "github.com/labstack/echo/v5"
)

// healthHandler handles GET /health. Returns 503 until the orchestrator
// has initialized.
func (s *Server) healthHandler(c *echo.Context) error {
	if !s.orch.Ready() {
		return echo.NewHTTPError(http.StatusServiceUnavailable, "Agent not initialized")
	}

	peers := s.orch.ConnectedPeers()
	if peers == nil {
		peers = []string{}
	}
	return c.JSON(http.StatusOK, &HealthResponse{
		Status:     "healthy",
		Model:      s.orch.Model(),
		MCPServers: peers,
	})
}

// listServersHandler handles GET /servers: every configured peer,
// including disabled ones.
func (s *Server) listServersHandler(c *echo.Context) error {
	peers := s.orch.ConfiguredPeers()
	servers := make([]ServerInfo, 0, len(peers))
	for _, p := range peers {
		servers = append(servers, ServerInfo{
			Name:        p.Name,
			URL:         p.URL,
			Transport:   p.Transport,
			Enabled:     p.Enabled,
			Description: p.Description,
		})
	}
	return c.JSON(http.StatusOK, &ServersResponse{Servers: servers})
}
