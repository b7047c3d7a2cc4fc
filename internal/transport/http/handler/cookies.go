package handler

import (
	"net/http"
	"time"
)

const (
	accessCookie  = "accessToken"
	refreshCookie = "refreshToken"
	csrfCookie    = "csrfToken"
)

// Cookies writes the session cookies. In production they are Secure and
// SameSite=None so a frontend on another origin can send them.
type Cookies struct {
	Secure  bool
	CSRFTTL time.Duration
	now     func() time.Time
}

func NewCookies(production bool, csrfTTL time.Duration) *Cookies {
	return &Cookies{Secure: production, CSRFTTL: csrfTTL, now: time.Now}
}

func (c *Cookies) sameSite() http.SameSite {
	if c.Secure {
		return http.SameSiteNoneMode
	}
	return http.SameSiteLaxMode
}

func (c *Cookies) set(w http.ResponseWriter, name, value string, expires time.Time, httpOnly bool) {
	http.SetCookie(w, &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		Expires:  expires,
		MaxAge:   int(expires.Sub(c.now()).Seconds()),
		HttpOnly: httpOnly,
		Secure:   c.Secure,
		SameSite: c.sameSite(),
	})
}

func (c *Cookies) SetAccess(w http.ResponseWriter, token string, expires time.Time) {
	c.set(w, accessCookie, token, expires, true)
}

func (c *Cookies) SetRefresh(w http.ResponseWriter, token string, expires time.Time) {
	c.set(w, refreshCookie, token, expires, true)
}

// SetCSRF is readable by scripts so the client can echo it in the x-csrf-token header.
func (c *Cookies) SetCSRF(w http.ResponseWriter, token string) {
	c.set(w, csrfCookie, token, c.now().Add(c.CSRFTTL), false)
}

// Clear expires the named cookies, or all three when none are named.
func (c *Cookies) Clear(w http.ResponseWriter, names ...string) {
	if len(names) == 0 {
		names = []string{accessCookie, refreshCookie, csrfCookie}
	}
	for _, n := range names {
		http.SetCookie(w, &http.Cookie{
			Name:     n,
			Value:    "",
			Path:     "/",
			Expires:  time.Unix(0, 0),
			MaxAge:   -1,
			HttpOnly: n != csrfCookie,
			Secure:   c.Secure,
			SameSite: c.sameSite(),
		})
	}
}

func refreshFromRequest(r *http.Request) string {
	if ck, err := r.Cookie(refreshCookie); err == nil {
		return ck.Value
	}
	return ""
}
