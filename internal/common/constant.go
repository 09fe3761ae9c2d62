package common

// SessionCookieName is the cookie that carries the signed login token.
const SessionCookieName = "session"

// RequestIDHeaderName is echoed on every HTTP response.
const RequestIDHeaderName = "X-Request-ID"
