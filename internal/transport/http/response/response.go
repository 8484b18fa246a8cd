package response

import "github.com/gin-gonic/gin"

// Resp is the envelope of every JSON response.
type Resp struct {
	Success bool    `json:"success"`
	Data    any     `json:"data"`
	Error   *string `json:"error"`
}

func OK(data any) Resp { return Resp{Success: true, Data: data} }

func Fail(msg string) Resp { return Resp{Error: &msg} }

func JSON(c *gin.Context, status int, data any) {
	c.JSON(status, OK(data))
}

// Abort stops the chain with a failed envelope.
func Abort(c *gin.Context, status int, msg string) {
	c.AbortWithStatusJSON(status, Fail(msg))
}

// Err writes err with the status its kind maps to.
func Err(c *gin.Context, err error) {
	_ = c.Error(err)
	Abort(c, Status(err), Message(err))
}
