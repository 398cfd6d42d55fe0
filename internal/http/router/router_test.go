package router_test

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"time"

	"github.com/gin-gonic/gin"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/br00kd0wnt0n/LENNYBOT/core/config"
	"github.com/br00kd0wnt0n/LENNYBOT/internal/http/router"
	"github.com/br00kd0wnt0n/LENNYBOT/internal/ingest"
	"github.com/br00kd0wnt0n/LENNYBOT/internal/service"
	"github.com/br00kd0wnt0n/LENNYBOT/internal/store"
)

var _ = Describe("SetupRoutes", func() {
	var engine *gin.Engine

	BeforeEach(func() {
		gin.SetMode(gin.TestMode)
		engine = gin.New()
		normalizer := ingest.NewNormalizer(config.ChannelsConfig{ByID: map[string]string{"C1": "main"}}, nil)
		services := service.NewServices(store.NewStores(nil), normalizer, nil, time.UTC, 100)
		router.SetupRoutes(engine, services, router.RouterConfig{
			SlackVerify:       false,
			RateLimitRequests: 100,
			RateLimitWindow:   15 * time.Minute,
		})
	})

	It("serves health", func() {
		w := httptest.NewRecorder()
		engine.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))

		Expect(w.Code).To(Equal(http.StatusOK))
		Expect(w.Body.String()).To(MatchJSON(`{"status":"ok"}`))
	})

	It("serves prometheus metrics", func() {
		w := httptest.NewRecorder()
		engine.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))

		Expect(w.Code).To(Equal(http.StatusOK))
		Expect(w.Body.String()).To(ContainSubstring("go_goroutines"))
	})

	It("mounts the slack events endpoint", func() {
		body := []byte(`{"type":"url_verification","challenge":"abc"}`)
		w := httptest.NewRecorder()
		engine.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/slack/events", bytes.NewReader(body)))

		Expect(w.Code).To(Equal(http.StatusOK))
		Expect(w.Body.String()).To(MatchJSON(`{"challenge":"abc"}`))
	})

	It("does not expose unknown routes", func() {
		w := httptest.NewRecorder()
		engine.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/admin", nil))

		Expect(w.Code).To(Equal(http.StatusNotFound))
	})
})
