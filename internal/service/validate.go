package service

import (
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/yourname/aquaguide/internal"
)

var validate = validator.New()

// validateStruct runs the struct tags and reports failures as validation errors.
func validateStruct(v interface{}) error {
	err := validate.Struct(v)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		fields := make([]string, 0, len(verrs))
		for _, fe := range verrs {
			fields = append(fields, strings.ToLower(fe.Field())+" "+fe.Tag())
		}
		return internal.Validationf("%s", strings.Join(fields, ", "))
	}
	return internal.Validationf("%v", err)
}

func requireUser(userID string) (string, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return "", internal.Validationf("user id is required")
	}
	return userID, nil
}

func requireSpecies(species string) (string, error) {
	species = strings.TrimSpace(species)
	if species == "" {
		return "", internal.Validationf("species is required")
	}
	return species, nil
}
