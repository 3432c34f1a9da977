// Package service implements the business logic of the Lectern server.
package service

import "github.com/lecternapp/lectern-server/internal/validation"

// validate is the shared request validator for all services.
var validate = validation.New()
