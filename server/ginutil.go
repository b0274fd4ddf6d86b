package server

import (
	"errors"
	"net/http"

	"github.com/curtisnewbie/taskq/logging"
	"github.com/curtisnewbie/taskq/util/errs"
	"github.com/curtisnewbie/taskq/util/json"
	"github.com/gin-gonic/gin"
)

const (
	contentTypeJson = "application/json; charset=utf-8"
)

// Web endpoint's response
type Resp struct {
	ErrorCode string `json:"errorCode"`
	Msg       string `json:"msg"`
	Error     bool   `json:"error"`
	Data      any    `json:"data"`
}

// Wrap result and error as Resp, errors that are not *errs.Err are not exposed to the client.
func WrapResp(data any, e error) Resp {
	if e != nil {
		var me *errs.Err
		if errors.As(e, &me) {
			code := me.Code()
			if code == "" {
				code = errs.ErrCodeUnknownError
			}
			logging.Infof("Returned error, code: '%v', msg: '%v', internalMsg: '%v'", code, me.Msg(), me.InternalMsg())
			return Resp{ErrorCode: code, Msg: me.Msg(), Error: true}
		}
		logging.Errorf("Unknown error, %v", e)
		return Resp{ErrorCode: errs.ErrCodeUnknownError, Msg: "Unknown system error, please try again later", Error: true}
	}
	return Resp{Data: data}
}

// Handle route's result
func HandleResult(c *gin.Context, r any, e error) {
	DispatchJson(c, http.StatusOK, WrapResp(r, e))
}

// Dispatch a json response, the body is serialized using jsoniter.
func DispatchJson(c *gin.Context, status int, body any) {
	b, err := json.WriteJson(body)
	if err != nil {
		logging.Errorf("Failed to write json response, %v", err)
		c.Status(http.StatusInternalServerError)
		return
	}
	c.Data(status, contentTypeJson, b)
}

// Default Recovery func
func DefaultRecovery(c *gin.Context, e any) {
	logging.Errorf("Recovered from panic, %v", e)
	DispatchJson(c, http.StatusInternalServerError, WrapResp(nil, errs.PanicErr(e)))
}
