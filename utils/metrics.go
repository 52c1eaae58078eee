package utils

import (
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	ginprometheus "github.com/zsais/go-gin-prometheus"
)

var (
	// CommentsCreated counts stored comments by target kind and depth.
	CommentsCreated = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "srdhub_comments_created_total",
			Help: "Total number of comments created.",
		}, []string{"kind", "depth"})
	// CommentsDeleted counts comment rows removed by any cascade.
	CommentsDeleted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "srdhub_comments_deleted_total",
			Help: "Total number of comment rows removed.",
		}, []string{"cause"})
	PostsCreated = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "srdhub_posts_created_total",
			Help: "Total number of posts created.",
		}, []string{"category"})
	UsersRegistered = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "srdhub_users_registered_total",
			Help: "Total number of accounts created.",
		}, []string{"role"})
	ServiceErrors = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "srdhub_errors_total",
			Help: "Total number of unexpected errors returned by handlers.",
		})
)

var (
	requestMetrics     *ginprometheus.Prometheus
	requestMetricsOnce sync.Once
)

// UseMetrics installs request metrics on the engine and exposes them at
// metricsPath. The collectors are registered once per process and shared by
// every engine.
func UseMetrics(engine *gin.Engine, metricsPath string) {
	if metricsPath == "" {
		metricsPath = "/metrics"
	}
	requestMetricsOnce.Do(func() {
		requestMetrics = ginprometheus.NewPrometheus("srdhub")
		requestMetrics.ReqCntURLLabelMappingFn = routeLabel
		// scrapes are not counted as requests
		requestMetrics.MetricsPath = metricsPath
	})
	engine.Use(requestMetrics.HandlerFunc())
	engine.GET(metricsPath, gin.WrapH(promhttp.Handler()))
}

// routeLabel is the route template, so ids never become label values.
func routeLabel(c *gin.Context) string {
	if route := c.FullPath(); route != "" {
		return route
	}
	return "unmatched"
}
