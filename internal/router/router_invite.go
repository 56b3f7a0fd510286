package router

import (
	"strings"

	"github.com/go-arcade/akinvite/internal/invite"
	"github.com/go-arcade/akinvite/pkg/http"
	"github.com/go-arcade/akinvite/pkg/log"
	"github.com/go-arcade/akinvite/pkg/metrics"
	"github.com/gofiber/fiber/v2"
)

// CallerHeader carries the caller identity asserted by the fronting SSO proxy.
const CallerHeader = "X-authentik-username"

type generateReq struct {
	InviteeName string `json:"invitee-name"`
}

type generateRep struct {
	Message string `json:"message"`
	Token   string `json:"token"`
	URL     string `json:"url"`
}

func (rt *Router) generateForm(c *fiber.Ctx) error {
	page, err := web.ReadFile("static/generate.html")
	if err != nil {
		return err
	}
	c.Type("html", "utf-8")
	return c.Send(page)
}

func (rt *Router) generate(c *fiber.Ctx) error {
	caller := strings.TrimSpace(c.Get(CallerHeader))
	if caller == "" {
		metrics.ObserveInvitation("http", "invalid")
		return http.WithRepErr(c, fiber.StatusBadRequest, "missing "+CallerHeader+" header")
	}

	var req generateReq
	if err := c.BodyParser(&req); err != nil {
		metrics.ObserveInvitation("http", "invalid")
		return http.WithRepErr(c, fiber.StatusBadRequest, "request body must be JSON with an invitee-name field")
	}

	res, err := rt.Invite.Generate(c.UserContext(), caller, req.InviteeName)
	metrics.ObserveInvitation("http", invite.Outcome(err))
	if err != nil {
		log.Infow("invitation form request failed", "caller", caller, "outcome", invite.Outcome(err), "error", err)
		return http.WithRepErr(c, invite.HTTPStatus(err), err.Error())
	}

	return c.JSON(generateRep{
		Message: res.Message,
		Token:   res.Token,
		URL:     res.URL,
	})
}
