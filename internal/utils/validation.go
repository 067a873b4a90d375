package utils

import (
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
)

// A single validator instance is safe for concurrent use and caches
// struct metadata across requests.
var validate = validator.New()

// Validate runs struct-tag validation on s.
func Validate(s interface{}) error {
	return validate.Struct(s)
}

// FormatValidationError flattens validator errors into one readable string.
func FormatValidationError(err error) string {
	errs, ok := err.(validator.ValidationErrors)
	if !ok {
		return err.Error()
	}
	messages := make([]string, 0, len(errs))
	for _, e := range errs {
		messages = append(messages, e.Translate(nil))
	}
	return strings.Join(messages, ", ")
}

// BindAndValidate binds the JSON body into obj and validates it, answering
// 400 itself on failure. Returns true when the request may proceed.
func BindAndValidate(c *gin.Context, obj interface{}) bool {
	if err := c.ShouldBindJSON(obj); err != nil {
		BadRequest(c, "Invalid request payload: "+err.Error())
		return false
	}
	if err := Validate(obj); err != nil {
		BadRequest(c, "Validation failed: "+FormatValidationError(err))
		return false
	}
	return true
}
