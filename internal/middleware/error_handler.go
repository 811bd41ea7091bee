package middleware

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"
)

// ErrorHandler renders every unhandled error as a {"message": ...} envelope.
// Handlers map ledger sentinels to echo.HTTPError themselves; anything else
// that reaches here is a server fault, so the body stays generic and the
// real error goes to the log.
func ErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	code := http.StatusInternalServerError
	msg := err.Error()

	if he, ok := err.(*echo.HTTPError); ok {
		code = he.Code
		if m, ok := he.Message.(string); ok {
			msg = m
		}
	}

	if code >= http.StatusInternalServerError {
		logrus.WithError(err).WithFields(logrus.Fields{
			"method": c.Request().Method,
			"uri":    c.Request().RequestURI,
			"status": code,
		}).Error("request failed")
		msg = "internal server error"
	}

	_ = c.JSON(code, map[string]string{"message": msg})
}
