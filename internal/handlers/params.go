package handlers

import (
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/nashfy/pitstop/internal/f1data"
)

func invalid(param string) error {
	return fiber.NewError(fiber.StatusBadRequest, "invalid "+param)
}

// queryInt reads an integer query parameter, using def when it is absent.
func queryInt(c *fiber.Ctx, name string, def int) (int, error) {
	raw := strings.TrimSpace(c.Query(name))
	if raw == "" {
		return def, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, invalid(name)
	}
	return v, nil
}

// queryPositive is queryInt for values that must be at least 1.
func queryPositive(c *fiber.Ctx, name string, def int) (int, error) {
	v, err := queryInt(c, name, def)
	if err != nil {
		return 0, err
	}
	if v < 1 && v != def {
		return 0, invalid(name)
	}
	return v, nil
}

func queryBool(c *fiber.Ctx, name string) (bool, error) {
	raw := strings.TrimSpace(c.Query(name))
	if raw == "" {
		return false, nil
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return false, invalid(name)
	}
	return v, nil
}

// sessionParams reads the year, round and session shared by the session endpoints.
func sessionParams(c *fiber.Ctx, currentYear int) (year, round int, code f1data.SessionCode, err error) {
	if year, err = queryPositive(c, "year", currentYear); err != nil {
		return
	}
	if round, err = queryPositive(c, "round", 1); err != nil {
		return
	}
	raw := c.Query("session", string(f1data.Race))
	if code, err = f1data.ParseSessionCode(raw); err != nil {
		err = invalid("session")
	}
	return
}
