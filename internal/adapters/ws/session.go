package ws

import (
	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
)

const sessionUsername = "username"

// RememberName keeps name in the client's cookie session so it is restored
// on the next connection.
func RememberName(c *gin.Context, name string) error {
	s := sessions.Default(c)
	s.Set(sessionUsername, name)
	return s.Save()
}

// RememberedName returns the name kept by RememberName, if any.
func RememberedName(c *gin.Context) string {
	name, _ := sessions.Default(c).Get(sessionUsername).(string)
	return name
}
