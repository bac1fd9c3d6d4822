// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package risk

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

// profileValidate is the validator instance for system profiles.
// Initialized in init() with the enum validators.
var profileValidate *validator.Validate

func init() {
	profileValidate = validator.New()

	profileValidate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	_ = profileValidate.RegisterValidation("domain", validateDomainTag)
	_ = profileValidate.RegisterValidation("autonomy_level", validateAutonomyTag)
	_ = profileValidate.RegisterValidation("population_size", validatePopulationTag)
}

func validateDomainTag(fl validator.FieldLevel) bool {
	return Domain(fl.Field().String()).IsValid()
}

func validateAutonomyTag(fl validator.FieldLevel) bool {
	return AutonomyLevel(fl.Field().String()).IsValid()
}

func validatePopulationTag(fl validator.FieldLevel) bool {
	return PopulationSize(fl.Field().String()).IsValid()
}

// validateProfile runs tag validation and converts the first failure
// into a typed *ValidationError naming the offending field and value.
func validateProfile(p *SystemProfile) error {
	err := profileValidate.Struct(p)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		fe := verrs[0]
		ve := &ValidationError{Field: fe.Field(), Reason: reasonFor(fe)}
		if fe.Tag() != "required" {
			ve.Value = fmt.Sprintf("%v", fe.Value())
		}
		return ve
	}
	return err
}

func reasonFor(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "must not be empty"
	case "domain":
		return fmt.Sprintf("must be one of %v", Domains())
	case "autonomy_level":
		return fmt.Sprintf("must be one of %v", AutonomyLevels())
	case "population_size":
		return fmt.Sprintf("must be one of %v", PopulationSizes())
	default:
		return fmt.Sprintf("failed %s validation", fe.Tag())
	}
}
