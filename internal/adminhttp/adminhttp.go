// Package adminhttp exposes a small operational HTTP surface alongside
// the RESP3 client wire: known-nodes dump, cluster_state, and a
// prometheus /metrics route. Disabled unless redis.conf sets
// admin_address.
package adminhttp

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"ripcache/internal/cluster"
	"ripcache/internal/rip"
)

// Server wraps a gin engine and the http.Server serving it.
type Server struct {
	engine *gin.Engine
	http   *http.Server
}

// New builds the admin router. self and table back /cluster/state and
// /cluster/nodes; reg is the prometheus registry /metrics scrapes.
func New(addr string, self *cluster.Node, table *cluster.Table, reg *prometheus.Registry) *Server {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery())

	r.GET("/cluster/state", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"node_id":       self.ID.String(),
			"role":          roleString(self.Role()),
			"current_epoch": self.CurrentEpoch(),
			"config_epoch":  self.ConfigEpoch(),
			"cluster_state": clusterStateString(self.ClusterState()),
		})
	})

	r.GET("/cluster/nodes", func(c *gin.Context) {
		start, end := self.SlotRange()
		client, clusterAddr := self.Addrs()
		nodes := []gin.H{{
			"node_id":      self.ID.String(),
			"role":         roleString(self.Role()),
			"client_addr":  client.String(),
			"cluster_addr": clusterAddr.String(),
			"slot_start":   start,
			"slot_end":     end,
			"self":         true,
		}}
		for _, info := range table.Masters() {
			nodes = append(nodes, neighborJSON(info))
		}
		for _, info := range table.Replicas() {
			nodes = append(nodes, neighborJSON(info))
		}
		c.JSON(http.StatusOK, gin.H{"nodes": nodes})
	})

	r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(reg, promhttp.HandlerOpts{})))

	return &Server{engine: r, http: &http.Server{Addr: addr, Handler: r}}
}

// Serve blocks serving the admin surface until the server is closed.
func (s *Server) Serve() error {
	err := s.http.ListenAndServe()
	if err == http.ErrServerClosed {
		return nil
	}
	return err
}

func (s *Server) Close() error { return s.http.Close() }

func neighborJSON(info cluster.NeighborInfo) gin.H {
	return gin.H{
		"node_id":      info.NodeID.String(),
		"role":         roleString(info.Role),
		"client_addr":  info.ClientAddr.String(),
		"cluster_addr": info.ClusterAddr.String(),
		"slot_start":   info.SlotStart,
		"slot_end":     info.SlotEnd,
		"fail":         info.Flags.IsFail(),
		"pfail":        info.Flags.IsPFail(),
	}
}

func roleString(r cluster.Role) string {
	if r == cluster.RoleMaster {
		return "master"
	}
	return "replica"
}

func clusterStateString(s rip.ClusterState) string {
	if s == rip.ClusterOK {
		return "ok"
	}
	return "fail"
}
