package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/vastralabs/karkhana/internal/forecast/service"
)

// Handlers forecast handler collection
type Handlers struct {
	Forecast *ForecastHandler
}

// NewHandlers creates the forecast handler collection
func NewHandlers(forecastSvc *service.ForecastService) *Handlers {
	return &Handlers{
		Forecast: NewForecastHandler(forecastSvc),
	}
}

// Response helpers kept consistent with the catalog handlers

type Response struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

func Success(c *gin.Context, data interface{}) {
	c.JSON(200, Response{
		Code:    0,
		Message: "success",
		Data:    data,
	})
}

func Error(c *gin.Context, code int, message string) {
	statusCode := code / 100
	if statusCode < 100 || statusCode > 599 {
		statusCode = 500
	}
	c.JSON(statusCode, Response{
		Code:    code,
		Message: message,
	})
}

func BadRequest(c *gin.Context, message string) {
	Error(c, 40000, message)
}

func NotFound(c *gin.Context, message string) {
	Error(c, 40400, message)
}

func InternalError(c *gin.Context, message string) {
	Error(c, 50000, message)
}

// ServiceError maps a service error onto the envelope via the sentinel checks
func ServiceError(c *gin.Context, err error) {
	switch {
	case service.IsNotFound(err):
		NotFound(c, err.Error())
	case service.IsBadRequest(err):
		BadRequest(c, err.Error())
	default:
		InternalError(c, err.Error())
	}
}
