package misc

import (
	"encoding/json"

	"github.com/gin-gonic/gin"
)

// Status is the envelope every non-data response uses.
type Status struct {
	Status string `json:"status"`
	Id     string `json:"id,omitempty"`
	Msg    string `json:"msg,omitempty"`
	Kind   string `json:"kind,omitempty"`
}

func StatusOK(id string) Status { return Status{Status: "success", Id: id} }

func StatusErr(msg string) Status { return Status{Status: "error", Msg: msg} }

// StatusErrKind is StatusErr tagged with a machine readable error kind.
func StatusErrKind(kind, msg string) Status {
	st := StatusErr(msg)
	st.Kind = kind
	return st
}

func BindJSON(c *gin.Context, v interface{}) error {
	body := c.Request.Body
	defer body.Close()
	return json.NewDecoder(body).Decode(v)
}

func WriteJSON(c *gin.Context, code int, v interface{}) error {
	c.Writer.Header().Set("Content-Type", gin.MIMEJSON)
	c.Status(code)
	return json.NewEncoder(c.Writer).Encode(v)
}
