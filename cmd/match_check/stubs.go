package main

import (
	"fmt"
	"net/http"
	"net/http/httptest"

	"github.com/gin-gonic/gin"
)

// stubConfig describe como responden las fuentes simuladas en un escenario.
type stubConfig struct {
	Primary        int
	PrimaryStatus  int
	Secondary      int
	SecondaryFails bool
	Jobs           int
}

// newStubUpstreams levanta un unico servidor que imita los servicios externos.
func newStubUpstreams(cfg stubConfig) *httptest.Server {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()

	r.POST("/keywords", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"keywords": []string{"1. golang", "backend"}})
	})

	r.GET("/match/:identifier", func(c *gin.Context) {
		if cfg.PrimaryStatus != 0 && cfg.PrimaryStatus != http.StatusOK {
			c.JSON(cfg.PrimaryStatus, gin.H{"detail": "user not found"})
			return
		}
		matches := make([]gin.H, 0, cfg.Primary)
		for i := 0; i < cfg.Primary; i++ {
			matches = append(matches, gin.H{
				"username": fmt.Sprintf("dev%02d", i),
				"name":     fmt.Sprintf("Developer %02d", i),
				"reason":   "shares your stack",
				"score":    90 - i,
			})
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok", "total_analyzed": cfg.Primary * 3, "matches": matches})
	})

	r.POST("/people", func(c *gin.Context) {
		if cfg.SecondaryFails {
			// Corta la conexion para simular un error de red.
			if hj, ok := c.Writer.(http.Hijacker); ok {
				if conn, _, err := hj.Hijack(); err == nil {
					_ = conn.Close()
					return
				}
			}
			c.Status(http.StatusBadGateway)
			return
		}
		data := make([]gin.H, 0, cfg.Secondary)
		for i := 0; i < cfg.Secondary; i++ {
			data = append(data, gin.H{
				"urn_id":    fmt.Sprintf("urn:li:%02d", i),
				"title":     fmt.Sprintf("Professional %02d", i),
				"subtitle":  "Backend engineer",
				"url":       fmt.Sprintf("https://www.linkedin.com/in/pro%02d", i),
				"image_url": "https://media.example/avatar.png",
			})
		}
		c.JSON(http.StatusOK, gin.H{"data": data})
	})

	r.GET("/job", func(c *gin.Context) {
		data := make([]gin.H, 0, cfg.Jobs)
		for i := 0; i < cfg.Jobs; i++ {
			data = append(data, gin.H{
				"job_title":    fmt.Sprintf("Go Engineer %02d", i),
				"company_name": "Acme",
				"location":     c.Query("location"),
				"job_link":     fmt.Sprintf("https://jobs.example/%02d", i),
			})
		}
		c.JSON(http.StatusOK, gin.H{"data": data})
	})

	return httptest.NewServer(r)
}
