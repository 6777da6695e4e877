package controllers

import (
	"net/http"
	"net/url"
	"strings"

	"github.com/labstack/echo/v5"
)

const (
	FlashError   = "error"
	FlashSuccess = "success"

	flashCookie = "tubefetch_flash"
)

// Flash is a one-shot message shown on the next form page render.
type Flash struct {
	Category string
	Message  string
}

// SetFlash stores a message in a short-lived cookie. The value is
// "category:message", percent-encoded to survive cookie rules.
func SetFlash(c *echo.Context, category, message string) {
	c.SetCookie(&http.Cookie{
		Name:     flashCookie,
		Value:    url.QueryEscape(category + ":" + message),
		Path:     "/",
		MaxAge:   60,
		HttpOnly: true,
	})
}

// PopFlash reads and clears the flash cookie. Returns nil when absent.
func PopFlash(c *echo.Context) *Flash {
	cookie, err := c.Cookie(flashCookie)
	if err != nil || cookie.Value == "" {
		return nil
	}

	c.SetCookie(&http.Cookie{
		Name:     flashCookie,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
	})

	raw, err := url.QueryUnescape(cookie.Value)
	if err != nil {
		return nil
	}

	category, message, found := strings.Cut(raw, ":")
	if !found {
		return &Flash{Category: FlashError, Message: raw}
	}
	return &Flash{Category: category, Message: message}
}
