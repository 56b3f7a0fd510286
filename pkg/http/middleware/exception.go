package middleware

import (
	"fmt"
	"runtime/debug"

	"github.com/go-arcade/akinvite/pkg/http"
	"github.com/go-arcade/akinvite/pkg/log"
	"github.com/gofiber/fiber/v2"
)

// ExceptionMiddleware 异常中间件
// 捕获 panic 错误，返回 500 状态码和错误信息
func ExceptionMiddleware(c *fiber.Ctx) (err error) {
	defer func() {
		if r := recover(); r != nil {
			log.Errorw("panic while handling request",
				"path", c.Path(),
				"request_id", c.Locals("request_id"),
				"panic", fmt.Sprint(r),
				"stack", string(debug.Stack()),
			)
			err = http.WithRepErr(c, http.InternalError.Code, errorToString(r))
		}
	}()

	return c.Next()
}

func errorToString(r any) string {
	switch v := r.(type) {
	case http.ResponseErr:
		// 符合预期的错误，可以直接返回给客户端
		if v.Error != "" {
			return v.Error
		}
		return http.InternalError.Msg
	default:
		// 一律返回服务器错误，避免返回堆栈错误给客户端
		return http.InternalError.Msg
	}
}
