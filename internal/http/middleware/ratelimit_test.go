package middleware_test

import (
	"net/http"
	"net/http/httptest"
	"time"

	"github.com/gin-gonic/gin"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/br00kd0wnt0n/LENNYBOT/internal/http/middleware"
)

var _ = Describe("RateLimit", func() {
	var router *gin.Engine

	request := func(ip string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodGet, "/api/dashboard", nil)
		req.RemoteAddr = ip + ":51000"
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		return w
	}

	BeforeEach(func() {
		gin.SetMode(gin.TestMode)
		router = gin.New()
		router.Use(middleware.RateLimit(middleware.NewIPRateLimiter(3, 15*time.Minute)))
		router.GET("/api/dashboard", func(c *gin.Context) { c.Status(http.StatusOK) })
	})

	It("allows requests up to the budget then returns 429", func() {
		for range 3 {
			Expect(request("10.0.0.1").Code).To(Equal(http.StatusOK))
		}

		w := request("10.0.0.1")

		Expect(w.Code).To(Equal(http.StatusTooManyRequests))
		Expect(w.Header().Get("Retry-After")).NotTo(BeEmpty())
		Expect(w.Body.String()).To(MatchJSON(`{"error":"too many requests"}`))
	})

	It("keeps a separate budget per client", func() {
		for range 3 {
			request("10.0.0.1")
		}

		Expect(request("10.0.0.1").Code).To(Equal(http.StatusTooManyRequests))
		Expect(request("10.0.0.2").Code).To(Equal(http.StatusOK))
	})

	It("refills after the window", func() {
		limiter := middleware.NewIPRateLimiter(2, 100*time.Millisecond)

		ok, _ := limiter.Allow("10.0.0.1")
		Expect(ok).To(BeTrue())
		ok, _ = limiter.Allow("10.0.0.1")
		Expect(ok).To(BeTrue())
		ok, wait := limiter.Allow("10.0.0.1")
		Expect(ok).To(BeFalse())
		Expect(wait).To(BeNumerically(">", 0))

		Eventually(func() bool {
			ok, _ := limiter.Allow("10.0.0.1")
			return ok
		}).WithTimeout(time.Second).WithPolling(10 * time.Millisecond).Should(BeTrue())
	})
})
