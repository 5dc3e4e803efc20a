package http

import (
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/stockledger-api/internal/application/dto"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// bind parsea el body y valida los tags `validate`. Si devuelve false la respuesta ya fue escrita.
func bind(c *fiber.Ctx, out any) (bool, error) {
	if err := c.BodyParser(out); err != nil {
		return false, badBody(c)
	}
	return check(c, out)
}

// check valida un struct ya poblado (body o query).
func check(c *fiber.Ctx, in any) (bool, error) {
	if err := validate.Struct(in); err != nil {
		return false, c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
			Code:    "VALIDATION",
			Message: validationMessage(err),
		})
	}
	return true, nil
}

// isID indica si s es un UUID en forma canónica; las columnas de ID en Postgres son UUID.
func isID(s string) bool {
	return len(s) == 36 && uuid.Validate(s) == nil
}

// isOptionalID igual que isID pero acepta vacío (depósito predeterminado).
func isOptionalID(s string) bool {
	return s == "" || isID(s)
}

func validationMessage(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return "datos inválidos"
	}
	fields := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		fields = append(fields, fe.Namespace()+" ("+fe.Tag()+")")
	}
	return "campos inválidos: " + strings.Join(fields, ", ")
}
